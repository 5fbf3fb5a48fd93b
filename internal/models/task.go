package models

import "time"

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type Task struct {
	ID            string
	UserID        string
	Title         string
	Completed     bool
	DueDate       *time.Time
	Priority      string
	Category      string
	EstimatedTime string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
