package domain

import "time"

// Task is a single todo item owned by an account. Tasks are removed with
// their account via the schema's cascade rule.
type Task struct {
	ID          string
	AccountID   string
	Title       string
	Description string
	DueDate     *time.Time
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
