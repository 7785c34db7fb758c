package models

import "time"

type Post struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Content     string    `db:"content" json:"content"`
	Status      string    `db:"status" json:"status"` // draft, scheduled, published, failed
	ScheduledAt time.Time `db:"scheduled_at" json:"scheduled_at"`
	PublishedAt time.Time `db:"published_at" json:"published_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusDraft     = "draft"
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
	PostStatusFailed    = "failed"
)
