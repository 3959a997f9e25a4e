// ABOUTME: Tests for the conversation Manager against a scripted chat service
// ABOUTME: Covers dispatch, busy gating, fixed failure messages, reset, feedback, suggestions

package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/tutor-chat/internal/chatapi"
)

var errBoom = errors.New("boom")

// fakeService records calls and, when gate is set, holds each call until the
// test releases it.
type fakeService struct {
	mu    sync.Mutex
	calls []string

	reply          chatapi.Reply
	replyErr       error
	categories     []chatapi.Category
	categoriesErr  error
	questions      []chatapi.Question
	questionsErr   error
	feedback       []chatapi.Feedback
	feedbackErr    error
	suggestions    []chatapi.Suggestion
	suggestionsErr error

	gate    chan struct{}
	started chan string
}

func (f *fakeService) enter(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	gate, started := f.gate, f.started
	f.mu.Unlock()

	if started != nil {
		started <- call
	}
	if gate != nil {
		<-gate
	}
}

func (f *fakeService) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeService) GetResponse(_ context.Context, text string) (chatapi.Reply, error) {
	f.enter("get_response:" + text)
	return f.reply, f.replyErr
}

func (f *fakeService) ListCategories(context.Context) ([]chatapi.Category, error) {
	f.enter("categories")
	return f.categories, f.categoriesErr
}

func (f *fakeService) ListQuestionsByCategory(_ context.Context, id int) ([]chatapi.Question, error) {
	f.enter(fmt.Sprintf("questions:%d", id))
	return f.questions, f.questionsErr
}

func (f *fakeService) SubmitFeedback(_ context.Context, fb chatapi.Feedback) error {
	f.enter("feedback")
	f.mu.Lock()
	f.feedback = append(f.feedback, fb)
	f.mu.Unlock()
	return f.feedbackErr
}

func (f *fakeService) ListSuggestions(_ context.Context, sessionID string) ([]chatapi.Suggestion, error) {
	f.enter("suggestions:" + sessionID)
	return f.suggestions, f.suggestionsErr
}

// gated makes every call block until release is called.
func gated(f *fakeService) (release func()) {
	f.gate = make(chan struct{})
	f.started = make(chan string, 8)
	var once sync.Once
	return func() { once.Do(func() { close(f.gate) }) }
}

func waitStarted(t *testing.T, f *fakeService) string {
	t.Helper()
	select {
	case call := <-f.started:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for service call")
		return ""
	}
}

func waitResult(t *testing.T, done <-chan bool) bool {
	t.Helper()
	select {
	case ok := <-done:
		return ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for operation")
		return false
	}
}

func newTestManager(svc ChatService) *Manager {
	return NewManager(svc, Options{SessionID: "sess-test"})
}

func bodies(s State) []string {
	out := make([]string, len(s.Messages))
	for i, m := range s.Messages {
		out[i] = m.Body
	}
	return out
}

func TestNewManager_SeedsGreeting(t *testing.T) {
	m := newTestManager(&fakeService{})

	s := m.State()
	assert.Equal(t, "sess-test", s.SessionID)
	assert.False(t, s.Busy)
	require.Len(t, s.Messages, 2)
	assert.Equal(t, []string{WelcomeText, HelpText}, bodies(s))
	for _, msg := range s.Messages {
		assert.Equal(t, OriginAssistant, msg.Origin)
		assert.Equal(t, KindText, msg.Kind)
		assert.NotEmpty(t, msg.ID)
	}
}

func TestNewManager_GeneratesSessionID(t *testing.T) {
	a := NewManager(&fakeService{}, Options{})
	b := NewManager(&fakeService{}, Options{})
	assert.NotEmpty(t, a.SessionID())
	assert.NotEqual(t, a.SessionID(), b.SessionID())
}

func TestSubmitText_Success(t *testing.T) {
	svc := &fakeService{reply: chatapi.Reply{Text: "Una base de datos es...", MessageID: 7}}
	m := newTestManager(svc)

	ok := m.SubmitText(t.Context(), "  ¿Qué es una base de datos?  ")
	require.True(t, ok)

	s := m.State()
	assert.False(t, s.Busy)
	require.Len(t, s.Messages, 4)
	assert.Equal(t, OriginUser, s.Messages[2].Origin)
	assert.Equal(t, "¿Qué es una base de datos?", s.Messages[2].Body)
	assert.Equal(t, OriginAssistant, s.Messages[3].Origin)
	assert.Equal(t, "Una base de datos es...", s.Messages[3].Body)
	assert.Equal(t, int64(7), s.Messages[3].RemoteID)
	assert.Equal(t, []string{"get_response:¿Qué es una base de datos?"}, svc.Calls())
}

func TestSubmitText_UserMessageVisibleBeforeReply(t *testing.T) {
	svc := &fakeService{reply: chatapi.Reply{Text: "respuesta"}}
	release := gated(svc)
	defer release()
	m := newTestManager(svc)

	done := make(chan bool, 1)
	go func() { done <- m.SubmitText(context.Background(), "hola") }()
	waitStarted(t, svc)

	s := m.State()
	assert.True(t, s.Busy)
	require.Len(t, s.Messages, 3)
	assert.Equal(t, OriginUser, s.Messages[2].Origin)
	assert.Equal(t, "hola", s.Messages[2].Body)

	release()
	require.True(t, waitResult(t, done))

	s = m.State()
	assert.False(t, s.Busy)
	require.Len(t, s.Messages, 4)
	assert.Equal(t, "respuesta", s.Messages[3].Body)
}

func TestSubmitText_EmptyIsNoop(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		svc := &fakeService{}
		m := newTestManager(svc)
		before := m.State()

		assert.False(t, m.SubmitText(t.Context(), text))

		after := m.State()
		assert.Len(t, after.Messages, 2)
		assert.Equal(t, before.Version, after.Version)
		assert.Empty(t, svc.Calls())
	}
}

func TestSubmitText_DroppedWhileBusy(t *testing.T) {
	svc := &fakeService{reply: chatapi.Reply{Text: "primera"}}
	release := gated(svc)
	defer release()
	m := newTestManager(svc)

	done := make(chan bool, 1)
	go func() { done <- m.SubmitText(context.Background(), "uno") }()
	waitStarted(t, svc)

	assert.False(t, m.SubmitText(t.Context(), "dos"))
	assert.Len(t, m.State().Messages, 3)

	release()
	require.True(t, waitResult(t, done))

	s := m.State()
	assert.Equal(t, []string{WelcomeText, HelpText, "uno", "primera"}, bodies(s))
	assert.Equal(t, []string{"get_response:uno"}, svc.Calls())
}

func TestSubmitText_ConcurrentCallersGetOneDispatch(t *testing.T) {
	svc := &fakeService{reply: chatapi.Reply{Text: "ok"}}
	release := gated(svc)
	m := newTestManager(svc)

	const callers = 20
	var accepted, returned atomic.Int32
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.SubmitText(context.Background(), fmt.Sprintf("pregunta %d", i)) {
				accepted.Add(1)
			}
			returned.Add(1)
		}()
	}

	waitStarted(t, svc)
	require.Eventually(t, func() bool { return returned.Load() == callers-1 },
		2*time.Second, 5*time.Millisecond)
	release()
	wg.Wait()

	assert.Equal(t, int32(1), accepted.Load())
	assert.Len(t, svc.Calls(), 1)
	assert.Len(t, m.State().Messages, 4)
	assert.False(t, m.State().Busy)
}

func TestSubmitText_FailureAppendsFixedMessage(t *testing.T) {
	svc := &fakeService{replyErr: errBoom}
	m := newTestManager(svc)

	require.True(t, m.SubmitText(t.Context(), "hola"))
	require.True(t, m.SubmitText(t.Context(), "otra vez"))

	s := m.State()
	assert.False(t, s.Busy)
	assert.Equal(t, []string{WelcomeText, HelpText, "hola", SendErrorText, "otra vez", SendErrorText}, bodies(s))
	assert.Zero(t, s.Messages[3].RemoteID)
}

func TestListCategories_Empty(t *testing.T) {
	svc := &fakeService{categories: []chatapi.Category{}}
	m := newTestManager(svc)

	require.True(t, m.ListCategories(t.Context()))

	s := m.State()
	last := s.Messages[len(s.Messages)-1]
	assert.Equal(t, NoTopicsText, last.Body)
	for _, msg := range s.Messages {
		assert.NotEqual(t, KindCategoryList, msg.Kind)
	}
	assert.False(t, s.Busy)
}

func TestListCategories_EmptyAnswerForgetsPreviousListing(t *testing.T) {
	svc := &fakeService{categories: []chatapi.Category{{ID: 1, Name: "Math"}}}
	m := newTestManager(svc)

	require.True(t, m.ListCategories(t.Context()))
	require.Equal(t, []Category{{ID: 1, Name: "Math"}}, m.State().Categories)

	svc.categories = []chatapi.Category{}
	require.True(t, m.ListCategories(t.Context()))

	s := m.State()
	assert.Equal(t, NoTopicsText, s.Messages[len(s.Messages)-1].Body)
	assert.Empty(t, s.Categories)
}

func TestListCategories_FailureKeepsPreviousListing(t *testing.T) {
	svc := &fakeService{categories: []chatapi.Category{{ID: 1, Name: "Math"}}}
	m := newTestManager(svc)

	require.True(t, m.ListCategories(t.Context()))

	svc.categoriesErr = errors.New("connection refused")
	require.True(t, m.ListCategories(t.Context()))

	s := m.State()
	assert.Equal(t, TopicsErrorText, s.Messages[len(s.Messages)-1].Body)
	assert.Equal(t, []Category{{ID: 1, Name: "Math"}}, s.Categories)
}

func TestBusy_TracksInFlightCall(t *testing.T) {
	svc := &fakeService{reply: chatapi.Reply{Text: "ok"}}
	release := gated(svc)
	m := newTestManager(svc)
	assert.False(t, m.Busy())

	done := make(chan bool, 1)
	go func() { done <- m.SubmitText(context.Background(), "hola") }()
	<-svc.started
	assert.True(t, m.Busy())

	release()
	require.True(t, <-done)
	assert.False(t, m.Busy())
}

func TestListCategories_ThenSelectCategory(t *testing.T) {
	svc := &fakeService{
		categories: []chatapi.Category{{ID: 1, Name: "Math", Description: "ignored"}},
		questions:  []chatapi.Question{{ID: 5, Question: "2+2?"}},
	}
	m := newTestManager(svc)

	require.True(t, m.ListCategories(t.Context()))

	s := m.State()
	last := s.Messages[len(s.Messages)-1]
	assert.Equal(t, KindCategoryList, last.Kind)
	assert.Equal(t, TopicsLeadInText, last.Body)
	assert.Equal(t, []Category{{ID: 1, Name: "Math"}}, last.Categories)
	assert.Equal(t, []Category{{ID: 1, Name: "Math"}}, s.Categories)

	require.True(t, m.SelectCategory(t.Context(), 1, "Math"))

	s = m.State()
	last = s.Messages[len(s.Messages)-1]
	assert.Equal(t, "Preguntas frecuentes de \"Math\":\n• 2+2?", last.Body)
	assert.Equal(t, KindText, last.Kind)
	assert.False(t, s.Busy)
	assert.Equal(t, []string{"categories", "questions:1"}, svc.Calls())
}

func TestListCategories_Failure(t *testing.T) {
	m := newTestManager(&fakeService{categoriesErr: errBoom})

	require.True(t, m.ListCategories(t.Context()))

	s := m.State()
	assert.Equal(t, TopicsErrorText, s.Messages[len(s.Messages)-1].Body)
	assert.Empty(t, s.Categories)
	assert.False(t, s.Busy)
}

func TestSelectCategory_ManyQuestions(t *testing.T) {
	svc := &fakeService{questions: []chatapi.Question{{Question: "¿Qué es un vector?"}, {Question: "¿Qué es una matriz?"}}}
	m := newTestManager(svc)

	require.True(t, m.SelectCategory(t.Context(), 3, "Álgebra"))

	s := m.State()
	assert.Equal(t,
		"Preguntas frecuentes de \"Álgebra\":\n• ¿Qué es un vector?\n• ¿Qué es una matriz?",
		s.Messages[len(s.Messages)-1].Body)
}

func TestSelectCategory_EmptyAndFailure(t *testing.T) {
	m := newTestManager(&fakeService{questions: nil})
	require.True(t, m.SelectCategory(t.Context(), 2, "Física"))
	s := m.State()
	assert.Equal(t, "No hay preguntas frecuentes de \"Física\" en este momento.", s.Messages[len(s.Messages)-1].Body)

	m = newTestManager(&fakeService{questionsErr: errBoom})
	require.True(t, m.SelectCategory(t.Context(), 2, "Física"))
	s = m.State()
	assert.Equal(t, "No se pudieron obtener las preguntas de \"Física\".", s.Messages[len(s.Messages)-1].Body)
	assert.False(t, s.Busy)
}

func TestGatedOperations_DroppedWhileBusy(t *testing.T) {
	svc := &fakeService{reply: chatapi.Reply{Text: "ok"}}
	release := gated(svc)
	defer release()
	m := newTestManager(svc)

	done := make(chan bool, 1)
	go func() { done <- m.SubmitText(context.Background(), "hola") }()
	waitStarted(t, svc)

	assert.False(t, m.ListCategories(t.Context()))
	assert.False(t, m.SelectCategory(t.Context(), 1, "Math"))
	assert.False(t, m.InvokeQuickAction(t.Context(), QuickAction{Kind: ActionTopics}))
	assert.False(t, m.InvokeQuickAction(t.Context(), QuickAction{Kind: ActionAsk, Question: "x"}))

	release()
	require.True(t, waitResult(t, done))
	assert.Equal(t, []string{"get_response:hola"}, svc.Calls())
}

func TestReset_RestoresGreeting(t *testing.T) {
	svc := &fakeService{
		reply:      chatapi.Reply{Text: "respuesta"},
		categories: []chatapi.Category{{ID: 1, Name: "Math"}},
	}
	m := newTestManager(svc)
	for i := range 5 {
		m.SubmitText(t.Context(), fmt.Sprintf("pregunta %d", i))
	}
	m.ListCategories(t.Context())
	require.Greater(t, len(m.State().Messages), 2)

	m.Reset()

	s := m.State()
	assert.Equal(t, []string{WelcomeText, HelpText}, bodies(s))
	assert.Nil(t, s.Categories)
	assert.False(t, s.Busy)

	m.Reset()
	assert.Len(t, m.State().Messages, 2)
}

func TestReset_LeavesBusyAlone(t *testing.T) {
	svc := &fakeService{reply: chatapi.Reply{Text: "tarde"}}
	release := gated(svc)
	defer release()
	m := newTestManager(svc)

	done := make(chan bool, 1)
	go func() { done <- m.SubmitText(context.Background(), "hola") }()
	waitStarted(t, svc)

	m.Reset()
	s := m.State()
	assert.True(t, s.Busy)
	assert.Len(t, s.Messages, 2)

	release()
	require.True(t, waitResult(t, done))
	s = m.State()
	assert.False(t, s.Busy)
	assert.Equal(t, []string{WelcomeText, HelpText, "tarde"}, bodies(s))
}

func TestInvokeQuickAction(t *testing.T) {
	svc := &fakeService{
		reply:      chatapi.Reply{Text: "Claro"},
		categories: []chatapi.Category{{ID: 4, Name: "Ciencia"}},
	}
	m := newTestManager(svc)
	actions := DefaultQuickActions()

	topics, ok := LookupQuickAction(actions, "topics")
	require.True(t, ok)
	require.True(t, m.InvokeQuickAction(t.Context(), topics))

	how, ok := LookupQuickAction(actions, "how-it-works")
	require.True(t, ok)
	require.True(t, m.InvokeQuickAction(t.Context(), how))

	math, ok := LookupQuickAction(actions, "math")
	require.True(t, ok)
	require.True(t, m.InvokeQuickAction(t.Context(), math))

	assert.Equal(t, []string{"categories", "get_response:¿Puedes ayudarme con matemáticas?"}, svc.Calls())

	s := m.State()
	assert.Equal(t, []string{
		WelcomeText, HelpText,
		TopicsLeadInText,
		HowItWorksText,
		"¿Puedes ayudarme con matemáticas?", "Claro",
	}, bodies(s))
}

func TestInvokeQuickAction_DispatchIgnoresLabel(t *testing.T) {
	svc := &fakeService{reply: chatapi.Reply{Text: "ok"}}
	m := newTestManager(svc)

	action := QuickAction{ID: "x", Label: "Temas disponibles", Question: "¿Cuáles son los temas disponibles?", Kind: ActionAsk}
	require.True(t, m.InvokeQuickAction(t.Context(), action))

	assert.Equal(t, []string{"get_response:¿Cuáles son los temas disponibles?"}, svc.Calls())
}

func TestInvokeQuickAction_UnknownKind(t *testing.T) {
	svc := &fakeService{}
	m := newTestManager(svc)
	assert.False(t, m.InvokeQuickAction(t.Context(), QuickAction{ID: "odd", Kind: ActionKind(42)}))
	assert.Empty(t, svc.Calls())
	assert.Len(t, m.State().Messages, 2)
}

func TestHowItWorks_NotGatedByBusy(t *testing.T) {
	svc := &fakeService{reply: chatapi.Reply{Text: "ok"}}
	release := gated(svc)
	defer release()
	m := newTestManager(svc)

	done := make(chan bool, 1)
	go func() { done <- m.SubmitText(context.Background(), "hola") }()
	waitStarted(t, svc)

	require.True(t, m.InvokeQuickAction(t.Context(), QuickAction{Kind: ActionHowItWorks}))
	s := m.State()
	assert.True(t, s.Busy)
	assert.Equal(t, HowItWorksText, s.Messages[len(s.Messages)-1].Body)

	release()
	require.True(t, waitResult(t, done))
	assert.Equal(t, []string{WelcomeText, HelpText, "hola", HowItWorksText, "ok"}, bodies(m.State()))
}

func answeredManager(t *testing.T, svc *fakeService) (*Manager, Message) {
	t.Helper()
	m := newTestManager(svc)
	require.True(t, m.SubmitText(t.Context(), "¿Qué es la IA?"))
	last, ok := m.State().LastAssistant()
	require.True(t, ok)
	return m, last
}

func TestSubmitFeedback_Success(t *testing.T) {
	svc := &fakeService{reply: chatapi.Reply{Text: "La IA es...", MessageID: 31}}
	m, answer := answeredManager(t, svc)

	err := m.SubmitFeedback(t.Context(), answer.ID, 5, "  excelente  ")
	require.NoError(t, err)

	require.Len(t, svc.feedback, 1)
	assert.Equal(t, chatapi.Feedback{MessageID: 31, Rating: 5, Comment: "excelente"}, svc.feedback[0])
	assert.Equal(t, map[string]int{answer.ID: 5}, m.State().Ratings)
}

func TestSubmitFeedback_Rejections(t *testing.T) {
	svc := &fakeService{reply: chatapi.Reply{Text: "La IA es...", MessageID: 31}}
	m, answer := answeredManager(t, svc)
	s := m.State()
	greeting := s.Messages[0]
	question := s.Messages[2]

	assert.ErrorIs(t, m.SubmitFeedback(t.Context(), answer.ID, 0, ""), ErrInvalidRating)
	assert.ErrorIs(t, m.SubmitFeedback(t.Context(), answer.ID, 6, ""), ErrInvalidRating)
	assert.ErrorIs(t, m.SubmitFeedback(t.Context(), answer.ID, 3, strings.Repeat("x", 501)), ErrCommentTooLong)
	assert.ErrorIs(t, m.SubmitFeedback(t.Context(), "missing", 3, ""), ErrUnknownMessage)
	assert.ErrorIs(t, m.SubmitFeedback(t.Context(), question.ID, 3, ""), ErrUnknownMessage)
	assert.ErrorIs(t, m.SubmitFeedback(t.Context(), greeting.ID, 3, ""), ErrNotRateable)

	assert.Empty(t, svc.feedback)
	assert.Empty(t, m.State().Ratings)
}

func TestSubmitFeedback_ServiceFailure(t *testing.T) {
	svc := &fakeService{reply: chatapi.Reply{Text: "ok", MessageID: 2}, feedbackErr: errBoom}
	m, answer := answeredManager(t, svc)

	err := m.SubmitFeedback(t.Context(), answer.ID, 4, "")
	assert.ErrorIs(t, err, ErrFeedbackNotSent)
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, m.State().Ratings)
	assert.Len(t, m.State().Messages, 4)
}

func TestReset_ClearsRatings(t *testing.T) {
	svc := &fakeService{reply: chatapi.Reply{Text: "ok", MessageID: 2}}
	m, answer := answeredManager(t, svc)
	require.NoError(t, m.SubmitFeedback(t.Context(), answer.ID, 4, ""))

	m.Reset()
	assert.Empty(t, m.State().Ratings)
}

func TestLoadSuggestions(t *testing.T) {
	svc := &fakeService{suggestions: []chatapi.Suggestion{
		{ID: 1, Question: "¿Qué es la IA?", Type: chatapi.SuggestionPopular, UsageCount: 10},
		{ID: 2, Question: "¿Qué es SQL?", Type: chatapi.SuggestionRelated, Category: "Bases de datos"},
	}}
	m := newTestManager(svc)

	require.True(t, m.LoadSuggestions(t.Context()))

	s := m.State()
	assert.False(t, s.SuggestionsLoading)
	assert.Empty(t, s.SuggestionsError)
	require.Len(t, s.Suggestions, 2)
	assert.Equal(t, Suggestion{Question: "¿Qué es la IA?", Type: "popular", UsageCount: 10}, s.Suggestions[0])
	assert.Equal(t, "Bases de datos", s.Suggestions[1].Category)
	assert.Equal(t, []string{"suggestions:sess-test"}, svc.Calls())
	assert.Len(t, s.Messages, 2)
}

func TestLoadSuggestions_FailureKeepsPreviousList(t *testing.T) {
	svc := &fakeService{suggestions: []chatapi.Suggestion{{ID: 1, Question: "q", Type: "popular"}}}
	m := newTestManager(svc)
	require.True(t, m.LoadSuggestions(t.Context()))

	svc.suggestionsErr = errBoom
	require.True(t, m.LoadSuggestions(t.Context()))

	s := m.State()
	assert.Equal(t, SuggestionsErrorText, s.SuggestionsError)
	assert.Len(t, s.Suggestions, 1)
	assert.False(t, s.SuggestionsLoading)
}

func TestLoadSuggestions_IndependentOfBusy(t *testing.T) {
	svc := &fakeService{reply: chatapi.Reply{Text: "ok"}}
	release := gated(svc)
	defer release()
	m := newTestManager(svc)

	done := make(chan bool, 1)
	go func() { done <- m.SubmitText(context.Background(), "hola") }()
	waitStarted(t, svc)

	sugg := make(chan bool, 1)
	go func() { sugg <- m.LoadSuggestions(context.Background()) }()
	assert.Equal(t, "suggestions:sess-test", waitStarted(t, svc))

	assert.True(t, m.State().SuggestionsLoading)
	assert.False(t, m.LoadSuggestions(t.Context()))

	release()
	assert.True(t, waitResult(t, done))
	assert.True(t, waitResult(t, sugg))
}

func TestSubscribe_ReceivesTransitions(t *testing.T) {
	svc := &fakeService{reply: chatapi.Reply{Text: "respuesta"}}
	m := newTestManager(svc)

	ch := m.Subscribe(t.Context())
	require.True(t, m.SubmitText(t.Context(), "hola"))

	var got []State
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case s := <-ch:
			got = append(got, s)
		case <-timeout:
			t.Fatalf("received %d snapshots, want 2", len(got))
		}
	}

	assert.True(t, got[0].Busy)
	assert.Len(t, got[0].Messages, 3)
	assert.False(t, got[1].Busy)
	assert.Len(t, got[1].Messages, 4)
	assert.Greater(t, got[1].Version, got[0].Version)
}

func TestState_IsDeepCopy(t *testing.T) {
	svc := &fakeService{categories: []chatapi.Category{{ID: 1, Name: "Math"}}}
	m := newTestManager(svc)
	require.True(t, m.ListCategories(t.Context()))

	s := m.State()
	s.Messages[2].Categories[0].Name = "changed"
	s.Categories[0].Name = "changed"
	s.Messages[0].Body = "changed"

	fresh := m.State()
	assert.Equal(t, "Math", fresh.Messages[2].Categories[0].Name)
	assert.Equal(t, "Math", fresh.Categories[0].Name)
	assert.Equal(t, WelcomeText, fresh.Messages[0].Body)
}
