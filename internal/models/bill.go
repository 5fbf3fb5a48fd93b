package models

import "time"

// DetectedBill is produced only by the email scan pipeline, never by a
// user directly. It stays pending (Approved == false) until the user
// either approves it, which converts it into a Payment and removes the
// row, or dismisses it.
type DetectedBill struct {
	ID         string
	UserID     string
	Title      string
	Amount     float64
	DueDate    time.Time
	Category   string
	Confidence float64
	Source     string
	Approved   bool
	CreatedAt  time.Time
}
