// ABOUTME: Hub keeps one conversation Manager per visitor session in memory
// ABOUTME: Idle sessions are swept periodically; nothing is persisted

package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/2389/tutor-chat/internal/conversation"
)

const (
	defaultIdleTimeout   = 30 * time.Minute
	defaultSweepInterval = time.Minute
)

// Options configures a Hub. Zero values pick defaults.
type Options struct {
	IdleTimeout   time.Duration
	SweepInterval time.Duration
	Broadcaster   *conversation.StateBroadcaster
	Logger        *slog.Logger
	Now           func() time.Time
}

type entry struct {
	manager  *conversation.Manager
	lastUsed time.Time
}

// Hub maps session ids to conversations.
type Hub struct {
	svc         conversation.ChatService
	broadcaster *conversation.StateBroadcaster
	logger      *slog.Logger
	idleTimeout time.Duration
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry

	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub creates a hub and starts its sweep loop. Call Close to stop it.
func NewHub(svc conversation.ChatService, opts Options) *Hub {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = defaultIdleTimeout
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = defaultSweepInterval
	}
	if opts.Broadcaster == nil {
		opts.Broadcaster = conversation.NewStateBroadcaster(opts.Logger)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		svc:         svc,
		broadcaster: opts.Broadcaster,
		logger:      opts.Logger.With("component", "session"),
		idleTimeout: opts.IdleTimeout,
		now:         opts.Now,
		sessions:    make(map[string]*entry),
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	go h.sweepLoop(ctx, opts.SweepInterval)
	return h
}

// GetOrCreate returns the session's manager, creating a fresh conversation
// when the id is unknown or was swept.
func (h *Hub) GetOrCreate(id string) *conversation.Manager {
	h.mu.Lock()
	defer h.mu.Unlock()

	if e, ok := h.sessions[id]; ok {
		e.lastUsed = h.now()
		return e.manager
	}

	m := conversation.NewManager(h.svc, conversation.Options{
		SessionID:   id,
		Broadcaster: h.broadcaster,
		Logger:      h.logger,
	})
	h.sessions[id] = &entry{manager: m, lastUsed: h.now()}
	h.logger.Debug("session created", "session_id", id)
	return m
}

// Get returns an existing session's manager and marks it used.
func (h *Hub) Get(id string) (*conversation.Manager, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastUsed = h.now()
	return e.manager, true
}

// Remove forgets a session. Returns false if it did not exist.
func (h *Hub) Remove(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[id]; !ok {
		return false
	}
	delete(h.sessions, id)
	return true
}

// Len reports the number of live sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Sweep drops sessions idle longer than the idle timeout. A session with a
// call in flight or an open subscription is kept. Returns how many went.
func (h *Hub) Sweep() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	removed := 0
	for id, e := range h.sessions {
		if now.Sub(e.lastUsed) <= h.idleTimeout {
			continue
		}
		if e.manager.Busy() || h.broadcaster.Subscribers(id) > 0 {
			continue
		}
		delete(h.sessions, id)
		removed++
	}
	if removed > 0 {
		h.logger.Debug("swept idle sessions", "removed", removed, "remaining", len(h.sessions))
	}
	return removed
}

func (h *Hub) sweepLoop(ctx context.Context, interval time.Duration) {
	defer close(h.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Sweep()
		}
	}
}

// Close stops the sweep loop and drops every session.
func (h *Hub) Close() {
	h.cancel()
	<-h.done

	h.mu.Lock()
	defer h.mu.Unlock()
	clear(h.sessions)
}
