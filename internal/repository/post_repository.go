package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/sarthakganguly/social-media-aggregator/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.Post, error)
	ListByStatus(ctx context.Context, userID int64, status string) ([]*models.Post, error)
	MarkPublished(ctx context.Context, postID int64, publishedAt time.Time) error
	MarkFailed(ctx context.Context, postID int64) error
	UpdateStatus(ctx context.Context, status string, postID int64) error
	CheckByUserID(ctx context.Context, postID, userID int64) (bool, error)
	Remove(ctx context.Context, id int64) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (user_id, content, status, scheduled_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	var err error

	scheduledAt := sql.NullTime{Time: post.ScheduledAt, Valid: !post.ScheduledAt.IsZero()}

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, post.UserID, post.Content, post.Status, scheduledAt).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, post.UserID, post.Content, post.Status, scheduledAt).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT id, user_id, content, status, scheduled_at, published_at, created_at, updated_at FROM posts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	post, err := scanPost(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *postRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Post, error) {
	query := `SELECT id, user_id, content, status, scheduled_at, published_at, created_at, updated_at FROM posts WHERE user_id = $1 ORDER BY created_at DESC`
	return r.queryPosts(ctx, query, userID)
}

func (r *postRepository) ListByStatus(ctx context.Context, userID int64, status string) ([]*models.Post, error) {
	query := `SELECT id, user_id, content, status, scheduled_at, published_at, created_at, updated_at FROM posts WHERE user_id = $1 AND status = $2 ORDER BY created_at DESC`
	return r.queryPosts(ctx, query, userID, status)
}

func (r *postRepository) queryPosts(ctx context.Context, query string, args ...interface{}) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	var scheduledAt, publishedAt sql.NullTime

	err := row.Scan(&post.ID, &post.UserID, &post.Content, &post.Status,
		&scheduledAt, &publishedAt, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}

	post.ScheduledAt = scheduledAt.Time
	post.PublishedAt = publishedAt.Time
	return &post, nil
}

// MarkPublished sets the post status to published. published_at is set
// only on the first success so later provider outcomes never move it.
func (r *postRepository) MarkPublished(ctx context.Context, postID int64, publishedAt time.Time) error {
	query := `
		UPDATE posts
		SET status = $1,
			published_at = COALESCE(published_at, $2),
			updated_at = $3
		WHERE id = $4
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusPublished, publishedAt, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// MarkFailed flags the post as failed unless another provider already
// published it.
func (r *postRepository) MarkFailed(ctx context.Context, postID int64) error {
	query := `
		UPDATE posts
		SET status = $1,
			updated_at = $2
		WHERE id = $3 AND status <> $4
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusFailed, time.Now(), postID, models.PostStatusPublished)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) UpdateStatus(ctx context.Context, status string, postID int64) error {
	query := `
		UPDATE posts
		SET status = $1,
			updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), postID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) CheckByUserID(ctx context.Context, postID, userID int64) (bool, error) {
	query := `SELECT 1 FROM posts WHERE id = $1 AND user_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, postID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *postRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
