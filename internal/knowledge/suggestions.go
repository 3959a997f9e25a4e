// ABOUTME: Follow-up question suggestions for a chat session
// ABOUTME: Mixes globally popular questions with ones related to the session's last topic

package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/2389/tutor-chat/internal/chatapi"
)

const (
	maxSuggestions     = 5
	popularSuggestions = 3
	relatedSuggestions = 2
	recentMessages     = 10
)

// Suggestions returns up to five questions worth asking next. Sessions with
// no id get nothing.
func (s *Store) Suggestions(ctx context.Context, sessionID string) ([]chatapi.Suggestion, error) {
	out := []chatapi.Suggestion{}
	if sessionID == "" {
		return out, nil
	}

	popular, err := s.popularSuggestions(ctx)
	if err != nil {
		return nil, err
	}
	out = append(out, popular...)

	keyword, err := s.lastTopic(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if keyword != "" {
		related, err := s.relatedSuggestions(ctx, keyword)
		if err != nil {
			return nil, err
		}
		seen := make(map[int]bool, len(out))
		for _, sg := range out {
			seen[sg.ID] = true
		}
		added := 0
		for _, sg := range related {
			if added == relatedSuggestions {
				break
			}
			if !seen[sg.ID] {
				out = append(out, sg)
				added++
			}
		}
	}

	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out, nil
}

func (s *Store) popularSuggestions(ctx context.Context) ([]chatapi.Suggestion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question_text, usage_count
		FROM questions
		WHERE is_active = 1
		ORDER BY usage_count DESC, id
		LIMIT ?`, popularSuggestions)
	if err != nil {
		return nil, fmt.Errorf("querying popular questions: %w", err)
	}
	defer rows.Close()

	var out []chatapi.Suggestion
	for rows.Next() {
		sg := chatapi.Suggestion{Type: chatapi.SuggestionPopular}
		if err := rows.Scan(&sg.ID, &sg.Question, &sg.UsageCount); err != nil {
			return nil, fmt.Errorf("scanning popular question: %w", err)
		}
		out = append(out, sg)
	}
	return out, rows.Err()
}

// lastTopic is the first keyword of the most recent session message that
// had any.
func (s *Store) lastTopic(ctx context.Context, sessionID string) (string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.keywords
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.session_id = ?
		ORDER BY m.id DESC
		LIMIT ?`, sessionID, recentMessages)
	if err != nil {
		return "", fmt.Errorf("querying recent messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var keywords string
		if err := rows.Scan(&keywords); err != nil {
			return "", fmt.Errorf("scanning recent message: %w", err)
		}
		first, _, _ := strings.Cut(keywords, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first, nil
		}
	}
	return "", rows.Err()
}

func (s *Store) relatedSuggestions(ctx context.Context, keyword string) ([]chatapi.Suggestion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT q.id, q.question_text, COALESCE(c.name, '')
		FROM questions q
		LEFT JOIN categories c ON c.id = q.category_id
		WHERE q.is_active = 1 AND q.keywords LIKE ?
		ORDER BY q.usage_count DESC, q.id
		LIMIT ?`, "%"+keyword+"%", relatedSuggestions+popularSuggestions)
	if err != nil {
		return nil, fmt.Errorf("querying related questions: %w", err)
	}
	defer rows.Close()

	var out []chatapi.Suggestion
	for rows.Next() {
		sg := chatapi.Suggestion{Type: chatapi.SuggestionRelated}
		if err := rows.Scan(&sg.ID, &sg.Question, &sg.Category); err != nil {
			return nil, fmt.Errorf("scanning related question: %w", err)
		}
		if sg.Category == "" {
			sg.Category = uncategorized
		}
		out = append(out, sg)
	}
	return out, rows.Err()
}
