package models

import "time"

type Payment struct {
	ID        string
	UserID    string
	Title     string
	Amount    float64
	DueDate   time.Time
	Recurring bool
	Category  string
	Paid      bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
