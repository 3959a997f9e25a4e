// ABOUTME: Message and snapshot types owned by the conversation manager
// ABOUTME: Messages are immutable once appended; snapshots are deep copies

package conversation

import (
	"time"

	"github.com/google/uuid"

	"github.com/2389/tutor-chat/internal/chatapi"
)

// Origin says who authored a message.
type Origin string

const (
	OriginUser      Origin = "user"
	OriginAssistant Origin = "assistant"
)

// Kind says how a message should be presented.
type Kind string

const (
	KindText         Kind = "text"
	KindCategoryList Kind = "category-list"
)

// Category is a selectable topic carried by a category-list message.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Message is one entry of the conversation log.
type Message struct {
	ID         string     `json:"id"`
	Origin     Origin     `json:"origin"`
	Body       string     `json:"body"`
	Kind       Kind       `json:"kind"`
	Categories []Category `json:"categories,omitempty"`
	// RemoteID is the service's id for the stored exchange, zero when the
	// message never reached the service or the service did not name it.
	RemoteID  int64     `json:"remote_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Rateable reports whether feedback can be sent for this message.
func (m Message) Rateable() bool {
	return m.Origin == OriginAssistant && m.RemoteID > 0
}

// Suggestion is a question offered next to the conversation.
type Suggestion struct {
	Question   string `json:"question"`
	Type       string `json:"type"`
	UsageCount int    `json:"usage_count,omitempty"`
	Category   string `json:"category,omitempty"`
}

// State is a point-in-time copy of a session's conversation.
type State struct {
	SessionID string `json:"session_id"`
	// Version increases on every transition.
	Version            uint64         `json:"version"`
	Messages           []Message      `json:"messages"`
	Busy               bool           `json:"busy"`
	Categories         []Category     `json:"categories,omitempty"`
	Suggestions        []Suggestion   `json:"suggestions,omitempty"`
	SuggestionsLoading bool           `json:"suggestions_loading"`
	SuggestionsError   string         `json:"suggestions_error,omitempty"`
	Ratings            map[string]int `json:"ratings,omitempty"`
}

// LastAssistant returns the newest assistant message, if any.
func (s State) LastAssistant() (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Origin == OriginAssistant {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

func newMessage(origin Origin, body string, at time.Time) Message {
	return Message{
		ID:        uuid.New().String(),
		Origin:    origin,
		Body:      body,
		Kind:      KindText,
		CreatedAt: at,
	}
}

func fromServiceCategories(in []chatapi.Category) []Category {
	out := make([]Category, 0, len(in))
	for _, c := range in {
		out = append(out, Category{ID: c.ID, Name: c.Name})
	}
	return out
}

func fromServiceSuggestions(in []chatapi.Suggestion) []Suggestion {
	out := make([]Suggestion, 0, len(in))
	for _, s := range in {
		out = append(out, Suggestion{
			Question:   s.Question,
			Type:       s.Type,
			UsageCount: s.UsageCount,
			Category:   s.Category,
		})
	}
	return out
}

func cloneMessages(in []Message) []Message {
	out := make([]Message, len(in))
	for i, m := range in {
		if m.Categories != nil {
			m.Categories = append([]Category(nil), m.Categories...)
		}
		out[i] = m
	}
	return out
}
