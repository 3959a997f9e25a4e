// ABOUTME: Wire types for the remote chat service's JSON payloads
// ABOUTME: Mirrors the shapes returned by /get_response and the /api routes

package chatapi

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// MaxFeedbackComment is the longest free-text comment the service accepts.
const MaxFeedbackComment = 500

// Suggestion provenance tags.
const (
	SuggestionPopular = "popular"
	SuggestionRelated = "related"
)

var (
	// ErrServiceError is returned when a 2xx payload carries an "error" field.
	ErrServiceError = errors.New("chat service reported an error")

	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrCommentTooLong  = fmt.Errorf("comment exceeds %d characters", MaxFeedbackComment)
	ErrMissingMessage  = errors.New("message id is required")
	ErrInvalidCategory = errors.New("category id must be positive")
)

// Reply is the answer to a free-text question. MessageID is zero when the
// service does not expose an id for the stored exchange.
type Reply struct {
	Text      string `json:"response"`
	MessageID int64  `json:"message_id,omitempty"`
}

// Category is a topic the knowledge base groups its questions under.
type Category struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Icon          string `json:"icon,omitempty"`
	Color         string `json:"color,omitempty"`
	QuestionCount int    `json:"question_count,omitempty"`
}

// Question is one frequently asked question of a category.
type Question struct {
	ID         int    `json:"id"`
	Question   string `json:"question"`
	Answer     string `json:"answer,omitempty"`
	Category   string `json:"category,omitempty"`
	Difficulty int    `json:"difficulty,omitempty"`
	UsageCount int    `json:"usage_count,omitempty"`
}

// Suggestion is a question offered to the user, tagged with why it was picked.
type Suggestion struct {
	ID         int    `json:"id"`
	Question   string `json:"question"`
	Type       string `json:"type"`
	UsageCount int    `json:"usage_count,omitempty"`
	Category   string `json:"category,omitempty"`
}

// Feedback rates one assistant answer.
type Feedback struct {
	MessageID int64  `json:"message_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"feedback_text"`
}

// Validate checks the constraints the service enforces before the request
// leaves the process.
func (f Feedback) Validate() error {
	if f.MessageID <= 0 {
		return ErrMissingMessage
	}
	if f.Rating < 1 || f.Rating > 5 {
		return ErrInvalidRating
	}
	if utf8.RuneCountInString(f.Comment) > MaxFeedbackComment {
		return ErrCommentTooLong
	}
	return nil
}

// Stats is the public usage summary served by /api/stats.
type Stats struct {
	TotalQuestions     int             `json:"total_questions"`
	TotalConversations int             `json:"total_conversations"`
	TotalMessages      int             `json:"total_messages"`
	PopularQuestions   []PopularEntry  `json:"popular_questions"`
	CategoryStats      []CategoryCount `json:"category_stats"`
}

type PopularEntry struct {
	Question   string `json:"question"`
	UsageCount int    `json:"usage_count"`
}

type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Color string `json:"color,omitempty"`
}

// Analytics is the admin-only breakdown served by /api/analytics.
type Analytics struct {
	General            GeneralTotals    `json:"general"`
	PopularQuestions   []RatedQuestion  `json:"popular_questions"`
	BestRated          []RatedQuestion  `json:"best_rated"`
	NeedsImprovement   []RatedQuestion  `json:"needs_improvement"`
	IntentDistribution []IntentCount    `json:"intent_distribution"`
	DailyTrends        []DailyTrendItem `json:"daily_trends"`
}

type GeneralTotals struct {
	TotalUsers         int `json:"total_users"`
	ActiveUsers        int `json:"active_users"`
	TotalQuestions     int `json:"total_questions"`
	TotalConversations int `json:"total_conversations"`
	TotalMessages      int `json:"total_messages"`
}

type RatedQuestion struct {
	ID         int     `json:"id"`
	Question   string  `json:"question"`
	UsageCount int     `json:"usage_count,omitempty"`
	Accuracy   float64 `json:"accuracy"`
}

type IntentCount struct {
	Intent string `json:"intent"`
	Count  int    `json:"count"`
}

type DailyTrendItem struct {
	Date          string `json:"date"`
	Conversations int    `json:"conversations"`
	Messages      int    `json:"messages"`
	Users         int    `json:"users"`
}

// Export is a bulk dump of one table, served by /api/export.
type Export struct {
	Type       string           `json:"type"`
	Count      int              `json:"count"`
	ExportedAt string           `json:"exported_at"`
	Data       []map[string]any `json:"data"`
}

// Export kinds accepted by /api/export.
const (
	ExportConversations = "conversations"
	ExportMessages      = "messages"
	ExportQuestions     = "questions"
)

// HistoryEntry is one stored exchange of a session, oldest first.
type HistoryEntry struct {
	UserInput   string  `json:"user_input"`
	BotResponse string  `json:"bot_response"`
	Timestamp   string  `json:"timestamp"`
	Confidence  float64 `json:"confidence"`
}

// NewQuestion adds an entry to the knowledge base.
type NewQuestion struct {
	Question   string `json:"question_text"`
	Answer     string `json:"answer_text"`
	CategoryID int    `json:"category_id,omitempty"`
	Keywords   string `json:"keywords,omitempty"`
}
