// ABOUTME: Tests for the session Hub
// ABOUTME: Covers lookup, creation, removal, and idle sweeping

package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/tutor-chat/internal/chatapi"
)

type stubService struct {
	gate chan struct{}
}

func (s *stubService) GetResponse(context.Context, string) (chatapi.Reply, error) {
	if s.gate != nil {
		<-s.gate
	}
	return chatapi.Reply{Text: "ok"}, nil
}

func (s *stubService) ListCategories(context.Context) ([]chatapi.Category, error) {
	return nil, nil
}

func (s *stubService) ListQuestionsByCategory(context.Context, int) ([]chatapi.Question, error) {
	return nil, nil
}

func (s *stubService) SubmitFeedback(context.Context, chatapi.Feedback) error { return nil }

func (s *stubService) ListSuggestions(context.Context, string) ([]chatapi.Suggestion, error) {
	return nil, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestHub(t *testing.T, svc *stubService) (*Hub, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)}
	h := NewHub(svc, Options{IdleTimeout: 10 * time.Minute, SweepInterval: time.Hour, Now: clock.Now})
	t.Cleanup(h.Close)
	return h, clock
}

func TestHub_GetOrCreateReturnsSameManager(t *testing.T) {
	h, _ := newTestHub(t, &stubService{})

	a := h.GetOrCreate("s1")
	b := h.GetOrCreate("s1")
	c := h.GetOrCreate("s2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "s1", a.SessionID())
	assert.Equal(t, 2, h.Len())
}

func TestHub_SessionsAreIndependent(t *testing.T) {
	h, _ := newTestHub(t, &stubService{})

	require.True(t, h.GetOrCreate("s1").SubmitText(t.Context(), "hola"))

	assert.Len(t, h.GetOrCreate("s1").State().Messages, 4)
	assert.Len(t, h.GetOrCreate("s2").State().Messages, 2)
}

func TestHub_GetAndRemove(t *testing.T) {
	h, _ := newTestHub(t, &stubService{})

	_, ok := h.Get("missing")
	assert.False(t, ok)

	h.GetOrCreate("s1")
	m, ok := h.Get("s1")
	require.True(t, ok)
	assert.Equal(t, "s1", m.SessionID())

	assert.True(t, h.Remove("s1"))
	assert.False(t, h.Remove("s1"))
	assert.Zero(t, h.Len())
}

func TestHub_SweepRemovesIdleSessions(t *testing.T) {
	h, clock := newTestHub(t, &stubService{})

	h.GetOrCreate("old")
	clock.Advance(8 * time.Minute)
	h.GetOrCreate("fresh")
	clock.Advance(5 * time.Minute)

	assert.Equal(t, 1, h.Sweep())
	_, ok := h.Get("old")
	assert.False(t, ok)
	_, ok = h.Get("fresh")
	assert.True(t, ok)
}

func TestHub_GetRefreshesIdleClock(t *testing.T) {
	h, clock := newTestHub(t, &stubService{})

	h.GetOrCreate("s1")
	clock.Advance(9 * time.Minute)
	h.Get("s1")
	clock.Advance(9 * time.Minute)

	assert.Zero(t, h.Sweep())
}

func TestHub_SweepKeepsBusyAndSubscribedSessions(t *testing.T) {
	svc := &stubService{gate: make(chan struct{})}
	h, clock := newTestHub(t, svc)

	busy := h.GetOrCreate("busy")
	done := make(chan bool, 1)
	go func() { done <- busy.SubmitText(context.Background(), "hola") }()
	require.Eventually(t, func() bool { return busy.State().Busy }, time.Second, 5*time.Millisecond)

	watched := h.GetOrCreate("watched")
	_ = watched.Subscribe(t.Context())

	h.GetOrCreate("idle")
	clock.Advance(time.Hour)

	assert.Equal(t, 1, h.Sweep())
	assert.Equal(t, 2, h.Len())

	close(svc.gate)
	assert.True(t, <-done)
}

func TestHub_CloseDropsSessions(t *testing.T) {
	h := NewHub(&stubService{}, Options{SweepInterval: 10 * time.Millisecond})
	h.GetOrCreate("s1")
	h.Close()
	assert.Zero(t, h.Len())
}
