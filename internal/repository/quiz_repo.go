package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mataluis2k/quizMgr/internal/models"
)

type QuizRepo struct {
	pool *pgxpool.Pool
}

func NewQuizRepo(pool *pgxpool.Pool) *QuizRepo {
	return &QuizRepo{pool: pool}
}

func (r *QuizRepo) Create(ctx context.Context, q *models.Quiz) error {
	q.QuizID = uuid.New()
	stylingBytes, _ := json.Marshal(q.Styling)
	questionsBytes, _ := json.Marshal(q.Questions)
	if questionsBytes == nil || string(questionsBytes) == "null" {
		questionsBytes = []byte("[]")
	}

	query := `INSERT INTO quizzes (id, user_id, name, description, styling_json, questions_json, question_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		q.QuizID, q.UserID, q.QuizName, q.Description, stylingBytes, questionsBytes, len(q.Questions),
	).Scan(&q.CreatedAt, &q.UpdatedAt)
}

func (r *QuizRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	q := &models.Quiz{}
	var stylingBytes, questionsBytes []byte
	query := `SELECT id, user_id, name, description, styling_json, questions_json, question_count, created_at, updated_at
		FROM quizzes WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&q.QuizID, &q.UserID, &q.QuizName, &q.Description, &stylingBytes, &questionsBytes,
		&q.QuestionCount, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(stylingBytes, &q.Styling); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questionsBytes, &q.Questions); err != nil {
		return nil, err
	}
	return q, nil
}

// ListByUser returns a page of quizzes owned by userID plus the total
// match count. search filters on quiz name, case insensitive; empty
// search matches everything.
func (r *QuizRepo) ListByUser(ctx context.Context, userID uuid.UUID, search string, limit, offset int) ([]models.QuizListItem, int, error) {
	query := `SELECT count(*) OVER(), id, name, updated_at
		FROM quizzes
		WHERE user_id = $1 AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		ORDER BY updated_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, userID, search, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	total := 0
	items := []models.QuizListItem{}
	for rows.Next() {
		var it models.QuizListItem
		if err := rows.Scan(&total, &it.QuizID, &it.QuizName, &it.UpdatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	return items, total, rows.Err()
}

func (r *QuizRepo) Update(ctx context.Context, q *models.Quiz) error {
	stylingBytes, _ := json.Marshal(q.Styling)
	questionsBytes, _ := json.Marshal(q.Questions)
	if questionsBytes == nil || string(questionsBytes) == "null" {
		questionsBytes = []byte("[]")
	}

	query := `UPDATE quizzes SET name = $1, description = $2, styling_json = $3, questions_json = $4,
		question_count = $5, updated_at = now() WHERE id = $6 RETURNING updated_at`

	return r.pool.QueryRow(ctx, query,
		q.QuizName, q.Description, stylingBytes, questionsBytes, len(q.Questions), q.QuizID,
	).Scan(&q.UpdatedAt)
}

func (r *QuizRepo) UpdateQuestions(ctx context.Context, id uuid.UUID, questions json.RawMessage, count int) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE quizzes SET questions_json = $1, question_count = $2, updated_at = now() WHERE id = $3",
		questions, count, id,
	)
	return err
}

func (r *QuizRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM quizzes WHERE id = $1", id)
	return err
}
