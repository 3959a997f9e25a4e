// ABOUTME: In-memory fan-out of conversation snapshots to presentation layers
// ABOUTME: Subscribers keyed by session id; slow subscribers keep only the newest states

package conversation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

const subscriberBufferSize = 16

// StateBroadcaster delivers State snapshots to every subscriber of a session.
// One broadcaster can serve many managers.
type StateBroadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]chan State // sessionID -> subID -> ch
	logger      *slog.Logger
}

// NewStateBroadcaster creates a broadcaster. Pass nil logger for default.
func NewStateBroadcaster(logger *slog.Logger) *StateBroadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateBroadcaster{
		subscribers: make(map[string]map[string]chan State),
		logger:      logger.With("component", "broadcaster"),
	}
}

// Subscribe registers for snapshots of one session. The subscription ends,
// and the channel is closed, when ctx is cancelled or Unsubscribe is called.
func (b *StateBroadcaster) Subscribe(ctx context.Context, sessionID string) (<-chan State, string) {
	subID := uuid.New().String()
	ch := make(chan State, subscriberBufferSize)

	b.mu.Lock()
	if _, ok := b.subscribers[sessionID]; !ok {
		b.subscribers[sessionID] = make(map[string]chan State)
	}
	b.subscribers[sessionID][subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "session_id", sessionID, "sub_id", subID)

	go func() {
		<-ctx.Done()
		b.Unsubscribe(sessionID, subID)
	}()

	return ch, subID
}

// Publish hands a snapshot to every subscriber of its session without
// blocking. A full channel loses its oldest snapshot to make room.
func (b *StateBroadcaster) Publish(state State) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers[state.SessionID] {
		select {
		case ch <- state:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- state:
		default:
			b.logger.Debug("dropped snapshot for slow subscriber",
				"session_id", state.SessionID,
				"version", state.Version)
		}
	}
}

// Subscribers reports how many subscriptions a session has.
func (b *StateBroadcaster) Subscribers(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[sessionID])
}

// Unsubscribe removes a subscription and closes its channel.
func (b *StateBroadcaster) Unsubscribe(sessionID, subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subscribers[sessionID]
	if !ok {
		return
	}
	ch, exists := subs[subID]
	if !exists {
		return
	}

	delete(subs, subID)
	close(ch)
	if len(subs) == 0 {
		delete(b.subscribers, sessionID)
	}

	b.logger.Debug("subscriber removed", "session_id", sessionID, "sub_id", subID)
}

// Close ends every subscription.
func (b *StateBroadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sessionID, subs := range b.subscribers {
		for subID, ch := range subs {
			close(ch)
			delete(subs, subID)
		}
		delete(b.subscribers, sessionID)
	}

	b.logger.Debug("broadcaster closed")
}
