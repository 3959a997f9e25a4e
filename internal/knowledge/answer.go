// ABOUTME: Answers free-text questions and records every exchange
// ABOUTME: Also stores user feedback and serves a session's history

package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/2389/tutor-chat/internal/chatapi"
)

const (
	GreetingReply = "¡Hola! Soy tu asistente académico. ¿En qué puedo ayudarte hoy?"
	FarewellReply = "¡Hasta luego! ¡Mucho éxito en tus estudios!"
	ThanksReply   = "¡De nada! Estoy aquí para ayudarte."
	FallbackReply = "Lo siento, no tengo una respuesta específica para esa pregunta. " +
		"¿Podrías reformularla o preguntar sobre otro tema?"
	RephraseHint = "\n\n💡 **Sugerencia**: Intenta reformular tu pregunta o usar palabras más específicas."

	// MatchThreshold is the lowest similarity accepted as an answer.
	MatchThreshold = 0.3
)

// Answer is the outcome of one question.
type Answer struct {
	Text       string
	MessageID  int64
	Confidence float64
	Intent     Intent
	QuestionID int
}

// Answer replies to input and records the exchange under sessionID.
func (s *Store) Answer(ctx context.Context, sessionID, input string) (Answer, error) {
	start := s.now()
	ans := Answer{Intent: DetectIntent(input)}

	switch ans.Intent {
	case IntentGreeting:
		ans.Text, ans.Confidence = GreetingReply, 1
	case IntentFarewell:
		ans.Text, ans.Confidence = FarewellReply, 1
	case IntentThanks:
		ans.Text, ans.Confidence = ThanksReply, 1
	default:
		best, score, err := s.bestMatch(ctx, input)
		if err != nil {
			return Answer{}, err
		}
		if best != nil {
			ans.Text, ans.Confidence, ans.QuestionID = best.answer, score, best.id
		} else {
			ans.Text = FallbackReply
		}
	}
	if ans.Intent == IntentQuestion && ans.Confidence < MatchThreshold {
		ans.Text += RephraseHint
	}

	id, err := s.recordExchange(ctx, sessionID, input, ans, s.now().Sub(start).Milliseconds())
	if err != nil {
		return Answer{}, err
	}
	ans.MessageID = id

	s.logger.Info("answered",
		"session_id", sessionID,
		"intent", ans.Intent,
		"confidence", ans.Confidence,
		"question_id", ans.QuestionID)
	return ans, nil
}

func (s *Store) bestMatch(ctx context.Context, input string) (*candidate, float64, error) {
	candidates, err := s.activeQuestions(ctx)
	if err != nil {
		return nil, 0, err
	}
	var best *candidate
	bestScore := 0.0
	for i := range candidates {
		score := Similarity(input, candidates[i].question, candidates[i].keywords)
		if score >= MatchThreshold && score > bestScore {
			best, bestScore = &candidates[i], score
		}
	}
	return best, bestScore, nil
}

func (s *Store) recordExchange(ctx context.Context, sessionID, input string, ans Answer, elapsedMS int64) (int64, error) {
	if sessionID == "" {
		sessionID = fmt.Sprintf("anon_%d", s.now().Unix())
	}
	now := s.timestamp()

	var messageID int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO conversations (session_id, started_at) VALUES (?, ?) ON CONFLICT(session_id) DO NOTHING`,
			sessionID, now); err != nil {
			return fmt.Errorf("ensuring conversation: %w", err)
		}
		var conversationID int64
		if err := tx.QueryRowContext(ctx,
			`SELECT id FROM conversations WHERE session_id = ?`, sessionID).Scan(&conversationID); err != nil {
			return fmt.Errorf("looking up conversation: %w", err)
		}

		var questionID any
		if ans.QuestionID != 0 {
			questionID = ans.QuestionID
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO messages (conversation_id, question_id, user_input, bot_response, intent,
			                      confidence, keywords, response_ms, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			conversationID, questionID, input, ans.Text, string(ans.Intent),
			ans.Confidence, strings.Join(Keywords(input), ", "), elapsedMS, now)
		if err != nil {
			return fmt.Errorf("inserting message: %w", err)
		}
		if messageID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("reading message id: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE conversations SET total_messages = total_messages + 1 WHERE id = ?`, conversationID); err != nil {
			return fmt.Errorf("counting message: %w", err)
		}
		if ans.QuestionID != 0 {
			if _, err := tx.ExecContext(ctx,
				`UPDATE questions SET usage_count = usage_count + 1 WHERE id = ?`, ans.QuestionID); err != nil {
				return fmt.Errorf("counting usage: %w", err)
			}
		}
		return nil
	})
	return messageID, err
}

// SetFeedback stores a 1-5 rating on a message and, when the message was
// answered from the knowledge base, folds rating/5 into that question's
// accuracy.
func (s *Store) SetFeedback(ctx context.Context, messageID int64, rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return chatapi.ErrInvalidRating
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var questionID sql.NullInt64
		err := tx.QueryRowContext(ctx, `SELECT question_id FROM messages WHERE id = ?`, messageID).Scan(&questionID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("message %d: %w", messageID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("looking up message: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE messages SET user_rating = ?, user_feedback = ? WHERE id = ?`,
			rating, comment, messageID); err != nil {
			return fmt.Errorf("saving feedback: %w", err)
		}
		if questionID.Valid {
			return updateAccuracy(ctx, tx, int(questionID.Int64), float64(rating)/5)
		}
		return nil
	})
}

// History returns up to limit exchanges of a session, oldest first.
func (s *Store) History(ctx context.Context, sessionID string, limit int) ([]chatapi.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_input, bot_response, created_at, confidence FROM (
			SELECT m.id, m.user_input, m.bot_response, m.created_at, m.confidence
			FROM messages m
			JOIN conversations c ON c.id = m.conversation_id
			WHERE c.session_id = ?
			ORDER BY m.id DESC
			LIMIT ?
		) ORDER BY id`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	entries := []chatapi.HistoryEntry{}
	for rows.Next() {
		var e chatapi.HistoryEntry
		if err := rows.Scan(&e.UserInput, &e.BotResponse, &e.Timestamp, &e.Confidence); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
