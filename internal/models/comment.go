package models

import "time"

// Comment is a discussion entry attached to a problem
type Comment struct {
	ID        string    `json:"id"`
	ProblemID string    `json:"problem_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewComment carries the caller-supplied fields of a comment
type NewComment struct {
	ProblemID string `json:"problem_id" validate:"required"`
	UserID    string `json:"user_id" validate:"required"`
	UserName  string `json:"user_name" validate:"required,max=200"`
	Content   string `json:"content" validate:"required,max=5000"`
}
