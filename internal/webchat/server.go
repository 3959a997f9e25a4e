// ABOUTME: HTTP handlers of the browser front end
// ABOUTME: Form posts start manager operations; JSON routes expose state and feedback

package webchat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"tailscale.com/tsnet"

	"github.com/2389/tutor-chat/internal/auth"
	"github.com/2389/tutor-chat/internal/config"
	"github.com/2389/tutor-chat/internal/conversation"
	"github.com/2389/tutor-chat/internal/metrics"
	"github.com/2389/tutor-chat/internal/session"
)

const (
	// startWait bounds how long a form post waits for its operation to
	// become visible before redirecting.
	startWait       = 2 * time.Second
	heartbeatEvery  = 30 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Config configures a Server.
type Config struct {
	Hub *session.Hub
	// Signer issues and checks session cookies. Its audience should be
	// auth.AudienceSession.
	Signer       *auth.Signer
	CookieTTL    time.Duration
	QuickActions []conversation.QuickAction
	HTTPAddr     string
	Tailscale    config.TailscaleConfig
	// Metrics, when set, counts requests and is served on /metrics.
	Metrics *metrics.Recorder
	Logger  *slog.Logger
}

// Server is the browser front end.
type Server struct {
	hub       *session.Hub
	signer    *auth.Signer
	cookieTTL time.Duration
	actions   []conversation.QuickAction
	httpAddr  string
	tailscale config.TailscaleConfig
	metrics   *metrics.Recorder
	logger    *slog.Logger

	httpServer  *http.Server
	tsnetServer *tsnet.Server
	// stopStreams ends open event streams so Shutdown does not wait on them.
	stopStreams context.CancelFunc
}

// New creates a Server.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.CookieTTL <= 0 {
		cfg.CookieTTL = 7 * 24 * time.Hour
	}
	if cfg.QuickActions == nil {
		cfg.QuickActions = conversation.DefaultQuickActions()
	}
	s := &Server{
		hub:       cfg.Hub,
		signer:    cfg.Signer,
		cookieTTL: cfg.CookieTTL,
		actions:   cfg.QuickActions,
		httpAddr:  cfg.HTTPAddr,
		tailscale: cfg.Tailscale,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger.With("component", "webchat"),
	}
	baseCtx, stop := context.WithCancel(context.Background())
	s.stopStreams = stop
	s.httpServer = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	return s
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	app := http.NewServeMux()
	app.HandleFunc("GET /{$}", s.handleIndex)
	app.HandleFunc("POST /send", s.handleSend)
	app.HandleFunc("POST /quick/{id}", s.handleQuickAction)
	app.HandleFunc("POST /categories/{id}", s.handleCategory)
	app.HandleFunc("POST /reset", s.handleReset)
	app.HandleFunc("POST /suggestions", s.handleSuggestions)
	app.HandleFunc("POST /api/feedback", s.handleFeedback)
	app.HandleFunc("GET /api/state", s.handleState)
	app.HandleFunc("GET /api/events", s.handleEvents)
	mux.Handle("/", s.withSession(app))

	if s.metrics == nil {
		return mux
	}
	mux.Handle("GET /metrics", s.metrics.Handler())
	return s.metrics.Middleware(mux)
}

func (s *Server) manager(r *http.Request) *conversation.Manager {
	return s.hub.GetOrCreate(sessionFromContext(r.Context()))
}

// start runs op in the background and returns once the manager has
// published a newer snapshot, op has finished, or startWait has passed.
// op's context outlives the request.
func (s *Server) start(r *http.Request, m *conversation.Manager, op func(ctx context.Context) bool) {
	waitCtx, cancel := context.WithTimeout(r.Context(), startWait)
	defer cancel()

	updates := m.Subscribe(waitCtx)
	before := m.State().Version

	opCtx := context.WithoutCancel(r.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if !op(opCtx) {
			s.logger.Debug("operation not started", "session_id", m.SessionID())
		}
	}()

	for {
		select {
		case st, ok := <-updates:
			if !ok || st.Version > before {
				return
			}
		case <-done:
			return
		case <-waitCtx.Done():
			return
		}
	}
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, newPageData(s.manager(r).State(), s.actions))
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	m := s.manager(r)
	text := r.FormValue("text")
	s.start(r, m, func(ctx context.Context) bool { return m.SubmitText(ctx, text) })
	redirectHome(w, r)
}

func (s *Server) handleQuickAction(w http.ResponseWriter, r *http.Request) {
	action, ok := conversation.LookupQuickAction(s.actions, r.PathValue("id"))
	if !ok {
		http.Error(w, "unknown quick action", http.StatusNotFound)
		return
	}
	m := s.manager(r)
	s.start(r, m, func(ctx context.Context) bool { return m.InvokeQuickAction(ctx, action) })
	redirectHome(w, r)
}

func (s *Server) handleCategory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid category id", http.StatusBadRequest)
		return
	}
	m := s.manager(r)

	var category conversation.Category
	found := false
	for _, c := range m.State().Categories {
		if c.ID == id {
			category, found = c, true
			break
		}
	}
	if !found {
		http.Error(w, "unknown category", http.StatusNotFound)
		return
	}

	s.start(r, m, func(ctx context.Context) bool { return m.SelectCategory(ctx, category.ID, category.Name) })
	redirectHome(w, r)
}

// handleReset clears the conversation unless a reply is still pending, in
// which case the page is shown unchanged.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	m := s.manager(r)
	if m.Busy() {
		s.logger.Debug("ignored reset while busy", "session_id", m.SessionID())
	} else {
		m.Reset()
	}
	redirectHome(w, r)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	m := s.manager(r)
	s.start(r, m, m.LoadSuggestions)
	redirectHome(w, r)
}

type feedbackRequest struct {
	MessageID string `json:"message_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	err := s.manager(r).SubmitFeedback(r.Context(), req.MessageID, req.Rating, req.Comment)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case errors.Is(err, conversation.ErrFeedbackNotSent):
		s.sendJSONError(w, http.StatusBadGateway, "No se pudo enviar la valoración")
	default:
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager(r).State())
}

// handleEvents streams a "state" event per snapshot, starting with the
// current one.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	m := s.manager(r)
	updates := m.Subscribe(r.Context())
	if !s.writeState(w, m.State()) {
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatEvery)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case st, ok := <-updates:
			if !ok {
				return
			}
			if !s.writeState(w, st) {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) writeState(w http.ResponseWriter, st conversation.State) bool {
	data, err := json.Marshal(st)
	if err != nil {
		s.logger.Error("failed to marshal state", "error", err)
		return false
	}
	_, err = fmt.Fprintf(w, "event: state\ndata: %s\n\n", data)
	return err == nil
}

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
