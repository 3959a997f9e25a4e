// ABOUTME: Category and question queries of the knowledge base
// ABOUTME: Results use the chat service's wire types directly

package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/2389/tutor-chat/internal/chatapi"
)

const uncategorized = "Sin categoría"

// ErrInvalidQuestion is returned when question or answer text is empty.
var ErrInvalidQuestion = errors.New("question and answer are required")

// CategoryInput describes a new category.
type CategoryInput struct {
	Name        string
	Description string
	Icon        string
	Color       string
}

// AddCategory stores a category and returns its id.
func (s *Store) AddCategory(ctx context.Context, in CategoryInput) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (name, description, icon, color) VALUES (?, ?, ?, ?)`,
		in.Name, in.Description, in.Icon, in.Color)
	if err != nil {
		if isConstraintViolation(err) {
			return 0, fmt.Errorf("category %q: %w", in.Name, ErrDuplicate)
		}
		return 0, fmt.Errorf("inserting category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading category id: %w", err)
	}
	return int(id), nil
}

// ListCategories returns active categories in creation order with the
// number of active questions each holds.
func (s *Store) ListCategories(ctx context.Context) ([]chatapi.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.description, c.icon, c.color,
		       (SELECT COUNT(*) FROM questions q WHERE q.category_id = c.id AND q.is_active = 1)
		FROM categories c
		WHERE c.is_active = 1
		ORDER BY c.id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	categories := []chatapi.Category{}
	for rows.Next() {
		var c chatapi.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Icon, &c.Color, &c.QuestionCount); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// ListQuestions returns the active questions of a category, or of every
// category when categoryID is zero.
func (s *Store) ListQuestions(ctx context.Context, categoryID int) ([]chatapi.Question, error) {
	query := `
		SELECT q.id, q.question_text, q.answer_text, COALESCE(c.name, ''), q.difficulty, q.usage_count
		FROM questions q
		LEFT JOIN categories c ON c.id = q.category_id
		WHERE q.is_active = 1`
	var args []any
	if categoryID != 0 {
		query += ` AND q.category_id = ?`
		args = append(args, categoryID)
	}
	query += ` ORDER BY q.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying questions: %w", err)
	}
	defer rows.Close()

	questions := []chatapi.Question{}
	for rows.Next() {
		var q chatapi.Question
		if err := rows.Scan(&q.ID, &q.Question, &q.Answer, &q.Category, &q.Difficulty, &q.UsageCount); err != nil {
			return nil, fmt.Errorf("scanning question: %w", err)
		}
		if q.Category == "" {
			q.Category = uncategorized
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// AddQuestion stores a question and returns its id. A non-zero category must
// exist.
func (s *Store) AddQuestion(ctx context.Context, in chatapi.NewQuestion) (int, error) {
	in.Question = strings.TrimSpace(in.Question)
	in.Answer = strings.TrimSpace(in.Answer)
	if in.Question == "" || in.Answer == "" {
		return 0, ErrInvalidQuestion
	}

	var category any
	if in.CategoryID != 0 {
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM categories WHERE id = ?`, in.CategoryID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("category %d: %w", in.CategoryID, ErrNotFound)
		}
		if err != nil {
			return 0, fmt.Errorf("checking category: %w", err)
		}
		category = in.CategoryID
	}

	keywords := NormalizeKeywords(in.Keywords)
	if keywords == "" {
		keywords = strings.Join(Keywords(in.Question), ", ")
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO questions (category_id, question_text, answer_text, keywords, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		category, in.Question, in.Answer, keywords, s.timestamp())
	if err != nil {
		return 0, fmt.Errorf("inserting question: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading question id: %w", err)
	}
	s.logger.Debug("added question", "id", id, "category_id", in.CategoryID)
	return int(id), nil
}

// UpdateAccuracy folds a score in [0, 1] into the question's running mean.
func (s *Store) UpdateAccuracy(ctx context.Context, questionID int, score float64) error {
	return updateAccuracy(ctx, s.db, questionID, score)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func updateAccuracy(ctx context.Context, ex execer, questionID int, score float64) error {
	res, err := ex.ExecContext(ctx, `
		UPDATE questions
		SET accuracy_score = (accuracy_score * rating_count + ?) / (rating_count + 1),
		    rating_count = rating_count + 1
		WHERE id = ?`, score, questionID)
	if err != nil {
		return fmt.Errorf("updating accuracy: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("question %d: %w", questionID, ErrNotFound)
	}
	return nil
}

type candidate struct {
	id       int
	question string
	answer   string
	keywords string
}

func (s *Store) activeQuestions(ctx context.Context) ([]candidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, question_text, answer_text, keywords FROM questions WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying questions: %w", err)
	}
	defer rows.Close()

	var out []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.id, &c.question, &c.answer, &c.keywords); err != nil {
			return nil, fmt.Errorf("scanning question: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
