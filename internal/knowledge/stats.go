// ABOUTME: Usage statistics, admin analytics, and table exports
// ABOUTME: Read-only aggregate queries over questions, conversations, and messages

package knowledge

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/2389/tutor-chat/internal/chatapi"
)

// ErrUnknownExport is returned for an export kind the store does not know.
var ErrUnknownExport = errors.New("unknown export type")

const (
	statsPopular     = 5
	analyticsTop     = 10
	previewRunes     = 50
	trendDays        = 7
	improvementBelow = 0.5
)

func (s *Store) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting: %w", err)
	}
	return n, nil
}

func (s *Store) totals(ctx context.Context) (questions, conversations, messages int, err error) {
	if questions, err = s.count(ctx, `SELECT COUNT(*) FROM questions WHERE is_active = 1`); err != nil {
		return
	}
	if conversations, err = s.count(ctx, `SELECT COUNT(*) FROM conversations`); err != nil {
		return
	}
	messages, err = s.count(ctx, `SELECT COUNT(*) FROM messages`)
	return
}

func preview(s string) string {
	if utf8.RuneCountInString(s) <= previewRunes {
		return s
	}
	return string([]rune(s)[:previewRunes]) + "..."
}

// Stats returns the public usage summary.
func (s *Store) Stats(ctx context.Context) (chatapi.Stats, error) {
	var st chatapi.Stats
	var err error
	if st.TotalQuestions, st.TotalConversations, st.TotalMessages, err = s.totals(ctx); err != nil {
		return chatapi.Stats{}, err
	}

	rated, err := s.ratedQuestions(ctx, `
		SELECT id, question_text, usage_count, accuracy_score FROM questions
		WHERE is_active = 1 ORDER BY usage_count DESC, id LIMIT ?`, statsPopular)
	if err != nil {
		return chatapi.Stats{}, err
	}
	st.PopularQuestions = make([]chatapi.PopularEntry, 0, len(rated))
	for _, q := range rated {
		st.PopularQuestions = append(st.PopularQuestions, chatapi.PopularEntry{
			Question:   preview(q.Question),
			UsageCount: q.UsageCount,
		})
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.name, c.color, COUNT(q.id)
		FROM categories c
		LEFT JOIN questions q ON q.category_id = c.id AND q.is_active = 1
		WHERE c.is_active = 1
		GROUP BY c.id
		ORDER BY c.id`)
	if err != nil {
		return chatapi.Stats{}, fmt.Errorf("querying category stats: %w", err)
	}
	defer rows.Close()

	st.CategoryStats = []chatapi.CategoryCount{}
	for rows.Next() {
		var cc chatapi.CategoryCount
		if err := rows.Scan(&cc.Name, &cc.Color, &cc.Count); err != nil {
			return chatapi.Stats{}, fmt.Errorf("scanning category stats: %w", err)
		}
		st.CategoryStats = append(st.CategoryStats, cc)
	}
	return st, rows.Err()
}

// Analytics returns the admin breakdown. Questions that were never rated
// are left out of the best rated and needs improvement lists.
func (s *Store) Analytics(ctx context.Context) (chatapi.Analytics, error) {
	var a chatapi.Analytics
	var err error

	g := &a.General
	if g.TotalUsers, err = s.count(ctx, `SELECT COUNT(*) FROM admins`); err != nil {
		return a, err
	}
	if g.ActiveUsers, err = s.count(ctx, `SELECT COUNT(*) FROM admins WHERE is_active = 1`); err != nil {
		return a, err
	}
	if g.TotalQuestions, g.TotalConversations, g.TotalMessages, err = s.totals(ctx); err != nil {
		return a, err
	}

	if a.PopularQuestions, err = s.ratedQuestions(ctx, `
		SELECT id, question_text, usage_count, accuracy_score FROM questions
		WHERE is_active = 1 ORDER BY usage_count DESC, id LIMIT ?`, analyticsTop); err != nil {
		return a, err
	}
	if a.BestRated, err = s.ratedQuestions(ctx, `
		SELECT id, question_text, usage_count, accuracy_score FROM questions
		WHERE is_active = 1 AND rating_count > 0 AND accuracy_score > 0
		ORDER BY accuracy_score DESC, id LIMIT ?`, analyticsTop); err != nil {
		return a, err
	}
	if a.NeedsImprovement, err = s.ratedQuestions(ctx, `
		SELECT id, question_text, usage_count, accuracy_score FROM questions
		WHERE is_active = 1 AND rating_count > 0 AND accuracy_score < ?
		ORDER BY accuracy_score, id LIMIT ?`, improvementBelow, analyticsTop); err != nil {
		return a, err
	}
	if a.IntentDistribution, err = s.intentDistribution(ctx); err != nil {
		return a, err
	}
	if a.DailyTrends, err = s.dailyTrends(ctx); err != nil {
		return a, err
	}
	return a, nil
}

func (s *Store) ratedQuestions(ctx context.Context, query string, args ...any) ([]chatapi.RatedQuestion, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying questions: %w", err)
	}
	defer rows.Close()

	out := []chatapi.RatedQuestion{}
	for rows.Next() {
		var q chatapi.RatedQuestion
		if err := rows.Scan(&q.ID, &q.Question, &q.UsageCount, &q.Accuracy); err != nil {
			return nil, fmt.Errorf("scanning question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) intentDistribution(ctx context.Context) ([]chatapi.IntentCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT intent, COUNT(*) AS n FROM messages
		GROUP BY intent ORDER BY n DESC, intent`)
	if err != nil {
		return nil, fmt.Errorf("querying intents: %w", err)
	}
	defer rows.Close()

	out := []chatapi.IntentCount{}
	for rows.Next() {
		var ic chatapi.IntentCount
		if err := rows.Scan(&ic.Intent, &ic.Count); err != nil {
			return nil, fmt.Errorf("scanning intent: %w", err)
		}
		out = append(out, ic)
	}
	return out, rows.Err()
}

// dailyTrends covers today and the six days before it, skipping days
// without messages.
func (s *Store) dailyTrends(ctx context.Context) ([]chatapi.DailyTrendItem, error) {
	since := s.now().UTC().AddDate(0, 0, -(trendDays - 1)).Format(time.DateOnly)
	rows, err := s.db.QueryContext(ctx, `
		SELECT substr(m.created_at, 1, 10) AS day,
		       COUNT(DISTINCT m.conversation_id),
		       COUNT(*),
		       COUNT(DISTINCT c.session_id)
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE substr(m.created_at, 1, 10) >= ?
		GROUP BY day
		ORDER BY day`, since)
	if err != nil {
		return nil, fmt.Errorf("querying daily trends: %w", err)
	}
	defer rows.Close()

	out := []chatapi.DailyTrendItem{}
	for rows.Next() {
		var d chatapi.DailyTrendItem
		if err := rows.Scan(&d.Date, &d.Conversations, &d.Messages, &d.Users); err != nil {
			return nil, fmt.Errorf("scanning daily trend: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

var exportQueries = map[string]string{
	chatapi.ExportConversations: `
		SELECT id, session_id, started_at, total_messages, language
		FROM conversations ORDER BY id`,
	chatapi.ExportMessages: `
		SELECT id, conversation_id, question_id, user_input, bot_response, intent,
		       confidence, keywords, response_ms, user_rating, user_feedback, created_at
		FROM messages ORDER BY id`,
	chatapi.ExportQuestions: `
		SELECT q.id, COALESCE(c.name, '') AS category, q.question_text AS question,
		       q.answer_text AS answer, q.keywords, q.difficulty, q.usage_count,
		       q.accuracy_score, q.rating_count, q.is_active, q.created_at
		FROM questions q LEFT JOIN categories c ON c.id = q.category_id ORDER BY q.id`,
}

// Export dumps every row of one table as column name to value maps.
func (s *Store) Export(ctx context.Context, kind string) (chatapi.Export, error) {
	query, ok := exportQueries[kind]
	if !ok {
		return chatapi.Export{}, fmt.Errorf("%q: %w", kind, ErrUnknownExport)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return chatapi.Export{}, fmt.Errorf("exporting %s: %w", kind, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return chatapi.Export{}, fmt.Errorf("reading columns: %w", err)
	}

	data := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return chatapi.Export{}, fmt.Errorf("scanning %s: %w", kind, err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				values[i] = string(b)
			}
			row[col] = values[i]
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return chatapi.Export{}, err
	}

	return chatapi.Export{
		Type:       kind,
		Count:      len(data),
		ExportedAt: s.timestamp(),
		Data:       data,
	}, nil
}
