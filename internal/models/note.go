package models

import "time"

type Note struct {
	ID        string
	UserID    string
	Title     string
	Content   string
	Category  string
	Tags      []string
	Pinned    bool
	Archived  bool
	WordCount int
	CreatedAt time.Time
	UpdatedAt time.Time
}
