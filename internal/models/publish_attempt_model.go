package models

import "time"

// PublishAttempt records the outcome of one publish attempt for one
// (post, provider) pair. The post status is a coarse summary; this is
// the authoritative per-provider record.
type PublishAttempt struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	PostID       int64     `db:"post_id" json:"post_id"`
	Provider     string    `db:"provider" json:"provider"`
	Outcome      string    `db:"outcome" json:"outcome"`
	ErrorMessage string    `db:"error_message" json:"error_message"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

const (
	AttemptOutcomePublished        = "published"
	AttemptOutcomeRetryableFailure = "retryable_failure"
	AttemptOutcomePermanentFailure = "permanent_failure"
)
