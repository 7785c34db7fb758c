package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/sarthakganguly/social-media-aggregator/internal/models"
)

type PublishAttemptRepository interface {
	Create(ctx context.Context, attempt *models.PublishAttempt) (int64, error)
	ListByPostID(ctx context.Context, postID int64) ([]*models.PublishAttempt, error)
}

type publishAttemptRepository struct {
	db *sql.DB
}

func NewPublishAttemptRepository(db *sql.DB) PublishAttemptRepository {
	return &publishAttemptRepository{db: db}
}

func (r *publishAttemptRepository) Create(ctx context.Context, attempt *models.PublishAttempt) (int64, error) {
	query := `
		INSERT INTO publish_attempts (user_id, post_id, provider, outcome, error_message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		attempt.UserID, attempt.PostID, attempt.Provider, attempt.Outcome, attempt.ErrorMessage).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *publishAttemptRepository) ListByPostID(ctx context.Context, postID int64) ([]*models.PublishAttempt, error) {
	query := `SELECT id, user_id, post_id, provider, outcome, error_message, created_at FROM publish_attempts WHERE post_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var attempts []*models.PublishAttempt
	for rows.Next() {
		var a models.PublishAttempt
		err := rows.Scan(&a.ID, &a.UserID, &a.PostID, &a.Provider, &a.Outcome, &a.ErrorMessage, &a.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		attempts = append(attempts, &a)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return attempts, nil
}
