package models

import "time"

type User struct {
	ID        string
	Email     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile carries per-user dashboard settings. EmailScanPermission gates
// the bill-detection pipeline: it is set when the user completes the
// Gmail consent flow and cleared when the grant is revoked.
type Profile struct {
	UserID              string
	EmailScanPermission bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
