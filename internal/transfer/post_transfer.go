package transfer

import "github.com/golang-jwt/jwt/v5"

const (
	PostActionNow   = "post_now"
	PostActionDraft = "save_draft"
)

type PostCreation struct {
	Content       string   `json:"content"`
	Action        string   `json:"action"` // post_now or save_draft
	ScheduledTime string   `json:"scheduled_time,omitempty"`
	Providers     []string `json:"providers"`
}

type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
