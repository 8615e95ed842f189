package models

import "time"

// RefreshToken is the server-side record of a session. Its ID doubles as the
// jti of the signed refresh token; deleting the row revokes the session.
type RefreshToken struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// TableName returns the table name for the RefreshToken model
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// NewRefreshToken creates a session record for userID that expires one
// calendar year after now.
func NewRefreshToken(userID int64, now time.Time) *RefreshToken {
	return &RefreshToken{
		UserID:    userID,
		ExpiresAt: now.AddDate(1, 0, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsExpired reports whether the record is past its expiry at t
func (r *RefreshToken) IsExpired(t time.Time) bool {
	return !t.Before(r.ExpiresAt)
}
