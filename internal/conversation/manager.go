// ABOUTME: Manager owns one conversation: the message log, the busy flag, and dispatch
// ABOUTME: Every service failure becomes a fixed assistant message; nothing escapes to callers

package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/tutor-chat/internal/chatapi"
)

// ChatService is what the manager needs from the remote chat service.
type ChatService interface {
	GetResponse(ctx context.Context, text string) (chatapi.Reply, error)
	ListCategories(ctx context.Context) ([]chatapi.Category, error)
	ListQuestionsByCategory(ctx context.Context, categoryID int) ([]chatapi.Question, error)
	SubmitFeedback(ctx context.Context, fb chatapi.Feedback) error
	ListSuggestions(ctx context.Context, sessionID string) ([]chatapi.Suggestion, error)
}

// Feedback errors. Rating and comment checks are shared with the client.
var (
	ErrInvalidRating   = chatapi.ErrInvalidRating
	ErrCommentTooLong  = chatapi.ErrCommentTooLong
	ErrUnknownMessage  = errors.New("no assistant message with that id")
	ErrNotRateable     = errors.New("message was not stored by the service")
	ErrFeedbackNotSent = errors.New("feedback could not be sent")
)

// Options configures a Manager. Zero values pick sensible defaults.
type Options struct {
	// SessionID names the conversation for suggestions and subscribers.
	// Empty means a fresh UUID.
	SessionID   string
	Broadcaster *StateBroadcaster
	Logger      *slog.Logger
	Now         func() time.Time
}

// Manager mediates every transition of one conversation. It is safe for
// concurrent use; at most one busy-gated service call runs at a time.
type Manager struct {
	svc         ChatService
	sessionID   string
	broadcaster *StateBroadcaster
	logger      *slog.Logger
	now         func() time.Time

	mu                 sync.Mutex
	version            uint64
	messages           []Message
	busy               bool
	categories         []Category
	suggestions        []Suggestion
	suggestionsLoading bool
	suggestionsErr     string
	ratings            map[string]int
}

// NewManager creates a manager seeded with the greeting.
func NewManager(svc ChatService, opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.SessionID == "" {
		opts.SessionID = uuid.New().String()
	}
	if opts.Broadcaster == nil {
		opts.Broadcaster = NewStateBroadcaster(opts.Logger)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	m := &Manager{
		svc:         svc,
		sessionID:   opts.SessionID,
		broadcaster: opts.Broadcaster,
		logger:      opts.Logger.With("component", "conversation", "session_id", opts.SessionID),
		now:         opts.Now,
		ratings:     make(map[string]int),
	}
	m.messages = m.greeting()
	return m
}

// SessionID returns the id this conversation is known by.
func (m *Manager) SessionID() string {
	return m.sessionID
}

// State returns a deep copy of the current conversation.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Busy reports whether a busy-gated call is in flight.
func (m *Manager) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.busy
}

// Subscribe streams a snapshot after every transition until ctx ends.
func (m *Manager) Subscribe(ctx context.Context) <-chan State {
	ch, _ := m.broadcaster.Subscribe(ctx, m.sessionID)
	return ch
}

// SubmitText sends free text to the service. It returns false, and changes
// nothing, when the trimmed text is empty or a call is already in flight.
// The user message is visible to subscribers before the call starts.
func (m *Manager) SubmitText(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	m.mu.Lock()
	if m.busy {
		m.mu.Unlock()
		m.logger.Debug("dropped submission while busy")
		return false
	}
	m.busy = true
	m.messages = append(m.messages, newMessage(OriginUser, text, m.now()))
	m.publishLocked()
	m.mu.Unlock()

	reply, err := m.svc.GetResponse(chatapi.WithSession(ctx, m.sessionID), text)
	if err != nil {
		m.logger.Warn("get response failed", "error", err)
		m.finish(m.assistant(SendErrorText), nil)
		return true
	}

	msg := m.assistant(reply.Text)
	msg.RemoteID = reply.MessageID
	m.finish(msg, nil)
	return true
}

// InvokeQuickAction runs a predefined shortcut according to its kind.
func (m *Manager) InvokeQuickAction(ctx context.Context, action QuickAction) bool {
	switch action.Kind {
	case ActionTopics:
		return m.ListCategories(ctx)
	case ActionHowItWorks:
		m.HowItWorks()
		return true
	case ActionAsk:
		return m.SubmitText(ctx, action.Question)
	default:
		m.logger.Warn("unknown quick action kind", "action", action.ID, "kind", int(action.Kind))
		return false
	}
}

// HowItWorks appends the fixed explanation. It is never gated by busy.
func (m *Manager) HowItWorks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, m.assistant(HowItWorksText))
	m.publishLocked()
}

// ListCategories asks the service for its topics and appends a selectable
// category list, or a fixed message when there are none or the call fails.
// An empty answer forgets the previous listing; a failure keeps it.
func (m *Manager) ListCategories(ctx context.Context) bool {
	if !m.acquire() {
		return false
	}

	cats, err := m.svc.ListCategories(ctx)
	switch {
	case err != nil:
		m.logger.Warn("list categories failed", "error", err)
		m.finish(m.assistant(TopicsErrorText), nil)
	case len(cats) == 0:
		m.finish(m.assistant(NoTopicsText), func() { m.categories = nil })
	default:
		listed := fromServiceCategories(cats)
		msg := m.assistant(TopicsLeadInText)
		msg.Kind = KindCategoryList
		msg.Categories = listed
		m.finish(msg, func() { m.categories = listed })
	}
	return true
}

// SelectCategory lists the frequently asked questions of one category.
func (m *Manager) SelectCategory(ctx context.Context, categoryID int, name string) bool {
	if !m.acquire() {
		return false
	}

	questions, err := m.svc.ListQuestionsByCategory(ctx, categoryID)
	switch {
	case err != nil:
		m.logger.Warn("list questions failed", "category_id", categoryID, "error", err)
		m.finish(m.assistant(QuestionsErrorText(name)), nil)
	case len(questions) == 0:
		m.finish(m.assistant(NoQuestionsText(name)), nil)
	default:
		texts := make([]string, 0, len(questions))
		for _, q := range questions {
			texts = append(texts, q.Question)
		}
		m.finish(m.assistant(QuestionsText(name, texts)), nil)
	}
	return true
}

// Reset replaces the log with the greeting and forgets listed categories.
// The busy flag is left alone.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = m.greeting()
	m.categories = nil
	m.ratings = make(map[string]int)
	m.publishLocked()
}

// SubmitFeedback rates an assistant message the service stored. It is not
// gated by busy.
func (m *Manager) SubmitFeedback(ctx context.Context, messageID string, rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}

	m.mu.Lock()
	msg, ok := m.findLocked(messageID)
	m.mu.Unlock()
	if !ok || msg.Origin != OriginAssistant {
		return ErrUnknownMessage
	}
	if !msg.Rateable() {
		return ErrNotRateable
	}

	fb := chatapi.Feedback{MessageID: msg.RemoteID, Rating: rating, Comment: strings.TrimSpace(comment)}
	if err := fb.Validate(); err != nil {
		return err
	}
	if err := m.svc.SubmitFeedback(ctx, fb); err != nil {
		m.logger.Warn("submit feedback failed", "message_id", messageID, "error", err)
		return fmt.Errorf("%w: %w", ErrFeedbackNotSent, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratings[messageID] = rating
	m.publishLocked()
	return nil
}

// LoadSuggestions refreshes the suggested questions. It has its own loading
// flag and returns false while a refresh is already running.
func (m *Manager) LoadSuggestions(ctx context.Context) bool {
	m.mu.Lock()
	if m.suggestionsLoading {
		m.mu.Unlock()
		return false
	}
	m.suggestionsLoading = true
	m.suggestionsErr = ""
	m.publishLocked()
	m.mu.Unlock()

	got, err := m.svc.ListSuggestions(ctx, m.sessionID)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.suggestionsLoading = false
	if err != nil {
		m.logger.Warn("list suggestions failed", "error", err)
		m.suggestionsErr = SuggestionsErrorText
	} else {
		m.suggestions = fromServiceSuggestions(got)
	}
	m.publishLocked()
	return true
}

func (m *Manager) acquire() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy {
		m.logger.Debug("dropped action while busy")
		return false
	}
	m.busy = true
	m.publishLocked()
	return true
}

// finish appends the outcome of a busy-gated call and clears busy. update,
// when set, runs under the same lock.
func (m *Manager) finish(msg Message, update func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	if update != nil {
		update()
	}
	m.busy = false
	m.publishLocked()
}

func (m *Manager) assistant(body string) Message {
	return newMessage(OriginAssistant, body, m.now())
}

func (m *Manager) greeting() []Message {
	return []Message{m.assistant(WelcomeText), m.assistant(HelpText)}
}

func (m *Manager) findLocked(id string) (Message, bool) {
	for _, msg := range m.messages {
		if msg.ID == id {
			return msg, true
		}
	}
	return Message{}, false
}

func (m *Manager) snapshotLocked() State {
	s := State{
		SessionID:          m.sessionID,
		Version:            m.version,
		Messages:           cloneMessages(m.messages),
		Busy:               m.busy,
		SuggestionsLoading: m.suggestionsLoading,
		SuggestionsError:   m.suggestionsErr,
	}
	if m.categories != nil {
		s.Categories = append([]Category(nil), m.categories...)
	}
	if m.suggestions != nil {
		s.Suggestions = append([]Suggestion(nil), m.suggestions...)
	}
	if len(m.ratings) > 0 {
		s.Ratings = make(map[string]int, len(m.ratings))
		for k, v := range m.ratings {
			s.Ratings[k] = v
		}
	}
	return s
}

// publishLocked bumps the version and fans out a snapshot. Publish never
// blocks, so holding the lock keeps subscribers' snapshots in order.
func (m *Manager) publishLocked() {
	m.version++
	m.broadcaster.Publish(m.snapshotLocked())
}
