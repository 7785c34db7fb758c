package models

import "time"

// SocialCredential links one user to one account on one provider.
// AccessToken and RefreshToken are stored encrypted; a zero ExpiresAt
// means the token does not expire.
type SocialCredential struct {
	ID                int64     `db:"id" json:"id"`
	UserID            int64     `db:"user_id" json:"user_id"`
	Provider          string    `db:"provider" json:"provider"`
	ProviderAccountID string    `db:"provider_account_id" json:"provider_account_id"`
	AccountName       string    `db:"account_name" json:"account_name"`
	AccessToken       string    `db:"access_token" json:"-"`
	RefreshToken      string    `db:"refresh_token" json:"-"`
	ExpiresAt         time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}
