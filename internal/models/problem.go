package models

import "time"

// ProblemPriority ranks how pressing a problem is
type ProblemPriority string

// Problem priorities
const (
	PriorityLow    ProblemPriority = "low"
	PriorityMedium ProblemPriority = "medium"
	PriorityHigh   ProblemPriority = "high"
	PriorityUrgent ProblemPriority = "urgent"
)

// IsValid reports whether p is a known priority
func (p ProblemPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ProblemStatus tracks where a problem is in its life
type ProblemStatus string

// Problem statuses
const (
	ProblemStatusOpen       ProblemStatus = "open"
	ProblemStatusInProgress ProblemStatus = "in-progress"
	ProblemStatusSolved     ProblemStatus = "solved"
	ProblemStatusClosed     ProblemStatus = "closed"
)

// IsValid reports whether s is a known problem status
func (s ProblemStatus) IsValid() bool {
	switch s {
	case ProblemStatusOpen, ProblemStatusInProgress, ProblemStatusSolved, ProblemStatusClosed:
		return true
	}
	return false
}

// Problem is a challenge statement open for solutions
type Problem struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	FullDescription string          `json:"full_description,omitempty"`
	Category        string          `json:"category"`
	Priority        ProblemPriority `json:"priority"`
	Status          ProblemStatus   `json:"status"`
	Tags            []string        `json:"tags"`
	SubmittedBy     string          `json:"submitted_by"`
	SubmittedByName string          `json:"submitted_by_name"`
	Department      string          `json:"department,omitempty"`
	ViewsCount      int             `json:"views_count"`
	IdeasCount      int             `json:"ideas_count"`
	CommentsCount   int             `json:"comments_count"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// IsClosed reports whether the problem no longer accepts changes
func (p *Problem) IsClosed() bool {
	return p.Status == ProblemStatusClosed
}

// NewProblem carries the caller-supplied fields of a problem
type NewProblem struct {
	Title           string          `json:"title" validate:"required,max=200"`
	Description     string          `json:"description" validate:"required,max=2000"`
	FullDescription string          `json:"full_description,omitempty" validate:"max=20000"`
	Category        string          `json:"category" validate:"required,max=100"`
	Priority        ProblemPriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Tags            []string        `json:"tags,omitempty" validate:"max=20,dive,max=50"`
	SubmittedBy     string          `json:"submitted_by" validate:"required"`
	SubmittedByName string          `json:"submitted_by_name" validate:"required,max=200"`
	Department      string          `json:"department,omitempty" validate:"max=200"`
}

// ProblemFilter narrows ListProblems. Empty fields and "all" match everything.
type ProblemFilter struct {
	Category    string `form:"category" json:"category,omitempty"`
	Priority    string `form:"priority" json:"priority,omitempty"`
	Search      string `form:"search" json:"search,omitempty"`
	SubmittedBy string `form:"submitted_by" json:"submitted_by,omitempty"`
}

// ProblemStats summarises the whole problem collection
type ProblemStats struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	Urgent     int `json:"urgent"`
	InProgress int `json:"in_progress"`
}
