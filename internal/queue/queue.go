package queue

import "time"

const TaskTypePublishPost = "publish:post"

// PublishPostPayload identifies one (post, provider) publish task. Each
// targeted provider gets its own task; their retries are independent.
type PublishPostPayload struct {
	PostID   int64  `json:"post_id"`
	Provider string `json:"provider"`
}

// Defaults for the retry policy; overridable through configuration.
const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 5 * time.Minute
)
