package models

import "time"

type FinancialGoal struct {
	ID            string
	UserID        string
	Title         string
	TargetAmount  float64
	CurrentAmount float64
	TargetDate    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
