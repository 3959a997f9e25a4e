// ABOUTME: Bubble Tea model for the tutor terminal client
// ABOUTME: Renders manager snapshots and turns input lines into manager calls

package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/2389/tutor-chat/internal/conversation"
)

var (
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	indexStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	categoryStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	ratingStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// stateMsg carries a snapshot from the manager's subscription.
type stateMsg conversation.State

type updatesClosedMsg struct{}

// opDoneMsg reports whether a busy-gated operation was accepted.
type opDoneMsg struct{ accepted bool }

type feedbackMsg struct {
	index int
	err   error
}

type model struct {
	ctx     context.Context
	manager *conversation.Manager
	actions []conversation.QuickAction
	updates <-chan conversation.State

	state    conversation.State
	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model
	status   string
	failed   bool
	ready    bool
	width    int
}

func newModel(ctx context.Context, manager *conversation.Manager, actions []conversation.QuickAction) model {
	in := textinput.New()
	in.Placeholder = "Escribe tu pregunta o /ayuda"
	in.Prompt = "› "
	in.CharLimit = 1000
	in.Width = 60
	in.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	return model{
		ctx:     ctx,
		manager: manager,
		actions: actions,
		updates: manager.Subscribe(ctx),
		state:   manager.State(),
		input:   in,
		spin:    s,
		width:   80,
	}
}

func waitForState(ch <-chan conversation.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return updatesClosedMsg{}
		}
		return stateMsg(st)
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, waitForState(m.updates))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		height := max(msg.Height-3, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		m.input.Width = max(msg.Width-4, 10)
		m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			line := m.input.Value()
			m.input.Reset()
			cmd, quit := m.handleLine(line)
			if quit {
				return m, tea.Quit
			}
			m.refresh()
			return m, cmd
		case tea.KeyPgUp:
			m.viewport.ViewUp()
			return m, nil
		case tea.KeyPgDown:
			m.viewport.ViewDown()
			return m, nil
		}

	case stateMsg:
		m.state = conversation.State(msg)
		m.refresh()
		return m, waitForState(m.updates)

	case updatesClosedMsg:
		return m, nil

	case opDoneMsg:
		if !msg.accepted {
			m.setStatus("Espera a que termine la respuesta anterior.", true)
		}

	case feedbackMsg:
		if msg.err != nil {
			m.setStatus(feedbackErrorText(msg.err), true)
		} else {
			m.setStatus(fmt.Sprintf("¡Gracias! Valoración enviada para el mensaje %d.", msg.index), false)
		}
		m.refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleLine runs one input line. quit is true for /salir.
func (m *model) handleLine(line string) (cmd tea.Cmd, quit bool) {
	c, err := parseCommand(line)
	if errors.Is(err, errEmptyInput) {
		return nil, false
	}
	if err != nil {
		m.setStatus(err.Error(), true)
		return nil, false
	}
	m.setStatus("", false)

	switch c.kind {
	case cmdAsk:
		return m.run(func(ctx context.Context) bool { return m.manager.SubmitText(ctx, c.text) }), false
	case cmdTopics:
		return m.run(m.manager.ListCategories), false
	case cmdHowItWorks:
		m.manager.HowItWorks()
	case cmdQuick:
		action, ok := conversation.LookupQuickAction(m.actions, c.quickID)
		if !ok {
			m.setStatus("Acción no disponible.", true)
			return nil, false
		}
		return m.run(func(ctx context.Context) bool { return m.manager.InvokeQuickAction(ctx, action) }), false
	case cmdTopic:
		if c.index > len(m.state.Categories) {
			m.setStatus("No hay tema con ese número; usa /temas primero.", true)
			return nil, false
		}
		cat := m.state.Categories[c.index-1]
		return m.run(func(ctx context.Context) bool { return m.manager.SelectCategory(ctx, cat.ID, cat.Name) }), false
	case cmdSuggestions:
		return m.run(m.manager.LoadSuggestions), false
	case cmdAskSuggestion:
		if c.index > len(m.state.Suggestions) {
			m.setStatus("No hay sugerencia con ese número; usa /sugerencias primero.", true)
			return nil, false
		}
		question := m.state.Suggestions[c.index-1].Question
		return m.run(func(ctx context.Context) bool { return m.manager.SubmitText(ctx, question) }), false
	case cmdRate:
		if c.index > len(m.state.Messages) {
			m.setStatus("No hay mensaje con ese número.", true)
			return nil, false
		}
		id := m.state.Messages[c.index-1].ID
		ctx, manager := m.ctx, m.manager
		return func() tea.Msg {
			return feedbackMsg{index: c.index, err: manager.SubmitFeedback(ctx, id, c.rating, c.comment)}
		}, false
	case cmdClear:
		m.manager.Reset()
	case cmdHelp:
		m.setStatus(helpText, false)
	case cmdQuit:
		return nil, true
	}
	return nil, false
}

func (m *model) run(op func(ctx context.Context) bool) tea.Cmd {
	ctx := context.WithoutCancel(m.ctx)
	return func() tea.Msg {
		return opDoneMsg{accepted: op(ctx)}
	}
}

func (m *model) setStatus(text string, failed bool) {
	m.status = text
	m.failed = failed
}

func (m *model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(renderConversation(m.state, m.width))
	m.viewport.GotoBottom()
}

func (m model) View() string {
	if !m.ready {
		return "Cargando…"
	}

	var status string
	switch {
	case m.state.Busy:
		status = m.spin.View() + statusStyle.Render(" Pensando…")
	case m.state.SuggestionsLoading:
		status = m.spin.View() + statusStyle.Render(" Cargando sugerencias…")
	case m.status != "" && m.failed:
		status = errorStyle.Render(m.status)
	case m.status != "":
		status = statusStyle.Render(m.status)
	}
	return m.viewport.View() + "\n" + status + "\n" + m.input.View()
}

// renderConversation lays out the log, numbered from 1, followed by the
// suggestions panel when it has content.
func renderConversation(st conversation.State, width int) string {
	body := lipgloss.NewStyle().Width(max(width-2, 20))

	var b strings.Builder
	for i, msg := range st.Messages {
		b.WriteString(indexStyle.Render(fmt.Sprintf("[%d] ", i+1)))
		if msg.Origin == conversation.OriginUser {
			b.WriteString(userStyle.Render("Tú"))
		} else {
			b.WriteString(assistantStyle.Render("Asistente"))
		}
		if r, ok := st.Ratings[msg.ID]; ok {
			b.WriteString(" " + ratingStyle.Render(strings.Repeat("★", r)+strings.Repeat("☆", 5-r)))
		}
		b.WriteString("\n")
		b.WriteString(body.Render(msg.Body))
		b.WriteString("\n")
		for n, cat := range msg.Categories {
			b.WriteString(categoryStyle.Render(fmt.Sprintf("  %d. %s", n+1, cat.Name)))
			b.WriteString("\n")
		}
		if msg.Kind == conversation.KindCategoryList {
			b.WriteString(indexStyle.Render("  /tema <n> para ver sus preguntas"))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if st.SuggestionsError != "" {
		b.WriteString(errorStyle.Render(st.SuggestionsError))
		b.WriteString("\n")
	}
	if len(st.Suggestions) > 0 {
		b.WriteString(assistantStyle.Render("Preguntas sugeridas"))
		b.WriteString("\n")
		for n, s := range st.Suggestions {
			b.WriteString(categoryStyle.Render(fmt.Sprintf("  %d. %s", n+1, s.Question)))
			b.WriteString(indexStyle.Render(" (" + s.Type + ")"))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func feedbackErrorText(err error) string {
	switch {
	case errors.Is(err, conversation.ErrInvalidRating):
		return "La valoración debe estar entre 1 y 5."
	case errors.Is(err, conversation.ErrCommentTooLong):
		return "El comentario no puede superar 500 caracteres."
	case errors.Is(err, conversation.ErrUnknownMessage):
		return "Solo se pueden valorar respuestas del asistente."
	case errors.Is(err, conversation.ErrNotRateable):
		return "Esta respuesta no se puede valorar."
	default:
		return "No se pudo enviar la valoración."
	}
}
