package models

import "time"

const ProviderGoogle = "google"

// EmailAuth stores the OAuth credentials for a user's mail provider.
// At most one row exists per (user, provider) pair.
type EmailAuth struct {
	ID           string
	UserID       string
	Provider     string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Expired reports whether the stored access token is past its expiry.
func (a *EmailAuth) Expired(now time.Time) bool {
	return !a.ExpiresAt.After(now)
}
