package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mataluis2k/quizMgr/internal/models"
)

type SubmissionRepo struct {
	pool *pgxpool.Pool
}

func NewSubmissionRepo(pool *pgxpool.Pool) *SubmissionRepo {
	return &SubmissionRepo{pool: pool}
}

func (r *SubmissionRepo) Create(ctx context.Context, s *models.Submission) error {
	s.SubmissionID = uuid.New()
	query := `INSERT INTO submissions (id, quiz_id, responses_json)
		VALUES ($1, $2, $3) RETURNING submitted_at`

	return r.pool.QueryRow(ctx, query, s.SubmissionID, s.QuizID, s.ResponsesJSON).Scan(&s.SubmittedAt)
}

func (r *SubmissionRepo) ListByQuiz(ctx context.Context, quizID uuid.UUID, limit, offset int) ([]*models.Submission, int, error) {
	query := `SELECT count(*) OVER(), id, quiz_id, responses_json, submitted_at
		FROM submissions WHERE quiz_id = $1
		ORDER BY submitted_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, quizID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	total := 0
	var subs []*models.Submission
	for rows.Next() {
		s := &models.Submission{}
		if err := rows.Scan(&total, &s.SubmissionID, &s.QuizID, &s.ResponsesJSON, &s.SubmittedAt); err != nil {
			return nil, 0, err
		}
		subs = append(subs, s)
	}
	return subs, total, rows.Err()
}
