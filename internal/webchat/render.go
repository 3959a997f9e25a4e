// ABOUTME: Template loading and view models for the chat page
// ABOUTME: Assistant bodies are Markdown rendered with goldmark

package webchat

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/2389/tutor-chat/internal/conversation"
)

const pageTitle = "Asistente Académico"

var markdown = goldmark.New(goldmark.WithRendererOptions(html.WithHardWraps()))

var templateFuncs = template.FuncMap{
	"markdown": renderMarkdown,
	"stars":    func() []int { return []int{1, 2, 3, 4, 5} },
}

var pageTemplate = template.Must(template.New("base.html").Funcs(templateFuncs).ParseFS(templateFS,
	"templates/base.html",
	"templates/chat.html",
))

// renderMarkdown converts an assistant body to HTML. Raw HTML in the
// source is dropped by goldmark's default renderer.
func renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML("<p>" + template.HTMLEscapeString(src) + "</p>")
	}
	return template.HTML(buf.String())
}

type messageView struct {
	ID         string
	Origin     string
	Body       string
	Categories []conversation.Category
	Rateable   bool
	Rating     int
}

type pageData struct {
	Title              string
	Refresh            bool
	Version            uint64
	Busy               bool
	Messages           []messageView
	QuickActions       []conversation.QuickAction
	Suggestions        []conversation.Suggestion
	SuggestionsLoading bool
	SuggestionsError   string
}

func newPageData(st conversation.State, actions []conversation.QuickAction) pageData {
	msgs := make([]messageView, 0, len(st.Messages))
	for _, m := range st.Messages {
		msgs = append(msgs, messageView{
			ID:         m.ID,
			Origin:     string(m.Origin),
			Body:       m.Body,
			Categories: m.Categories,
			Rateable:   m.Rateable(),
			Rating:     st.Ratings[m.ID],
		})
	}
	return pageData{
		Title:              pageTitle,
		Refresh:            st.Busy || st.SuggestionsLoading,
		Version:            st.Version,
		Busy:               st.Busy,
		Messages:           msgs,
		QuickActions:       actions,
		Suggestions:        st.Suggestions,
		SuggestionsLoading: st.SuggestionsLoading,
		SuggestionsError:   st.SuggestionsError,
	}
}

func (s *Server) renderPage(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.Error("failed to render chat page", "error", err)
	}
}
