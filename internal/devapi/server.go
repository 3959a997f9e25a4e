// ABOUTME: Route table and shared helpers of the development chat backend
// ABOUTME: Resolves chat sessions from the form, the query, or a cookie

package devapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/2389/tutor-chat/internal/auth"
	"github.com/2389/tutor-chat/internal/chatapi"
	"github.com/2389/tutor-chat/internal/knowledge"
)

// SessionCookie carries the chat session of callers that do not send one.
const SessionCookie = "tutor_sid"

const defaultHistoryLimit = 50

// KnowledgeBase is the storage the backend answers from.
type KnowledgeBase interface {
	Answer(ctx context.Context, sessionID, input string) (knowledge.Answer, error)
	ListCategories(ctx context.Context) ([]chatapi.Category, error)
	ListQuestions(ctx context.Context, categoryID int) ([]chatapi.Question, error)
	AddQuestion(ctx context.Context, in chatapi.NewQuestion) (int, error)
	SetFeedback(ctx context.Context, messageID int64, rating int, comment string) error
	Suggestions(ctx context.Context, sessionID string) ([]chatapi.Suggestion, error)
	History(ctx context.Context, sessionID string, limit int) ([]chatapi.HistoryEntry, error)
	Stats(ctx context.Context) (chatapi.Stats, error)
	Analytics(ctx context.Context) (chatapi.Analytics, error)
	Export(ctx context.Context, kind string) (chatapi.Export, error)
	Authenticate(ctx context.Context, username, password string) error
}

// Config configures a Server.
type Config struct {
	KnowledgeBase KnowledgeBase
	// AdminSigner issues and checks the tokens of /login.
	AdminSigner *auth.Signer
	TokenTTL    time.Duration
	Logger      *slog.Logger
}

// Server implements the chat service routes.
type Server struct {
	kb       KnowledgeBase
	signer   *auth.Signer
	tokenTTL time.Duration
	logger   *slog.Logger
}

// New creates a Server.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12 * time.Hour
	}
	return &Server{
		kb:       cfg.KnowledgeBase,
		signer:   cfg.AdminSigner,
		tokenTTL: cfg.TokenTTL,
		logger:   cfg.Logger.With("component", "devapi"),
	}
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	admin := auth.RequireBearer(s.signer, auth.RoleAdmin)

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /login", s.handleLogin)

	mux.HandleFunc("POST /get_response", s.handleGetResponse)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/questions", s.handleQuestions)
	mux.Handle("POST /api/questions", admin(http.HandlerFunc(s.handleAddQuestion)))
	mux.HandleFunc("POST /api/feedback", s.handleFeedback)
	mux.HandleFunc("GET /api/suggestions", s.handleSuggestions)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.Handle("GET /api/analytics", admin(http.HandlerFunc(s.handleAnalytics)))
	mux.Handle("GET /api/export", admin(http.HandlerFunc(s.handleExport)))

	return mux
}

// requestSession returns the session named by the request. When create is
// set and the request names none, a new session is started and its cookie
// set on w.
func requestSession(w http.ResponseWriter, r *http.Request, create bool) string {
	if id := r.FormValue("session_id"); id != "" {
		return id
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if !create {
		return ""
	}
	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
