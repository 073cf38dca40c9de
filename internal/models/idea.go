package models

import "time"

// IdeaStatus is the lifecycle state of an idea
type IdeaStatus string

// Idea statuses
const (
	IdeaStatusPending     IdeaStatus = "pending"
	IdeaStatusUnderReview IdeaStatus = "under-review"
	IdeaStatusApproved    IdeaStatus = "approved"
	IdeaStatusRejected    IdeaStatus = "rejected"
)

// IsValid reports whether s is a known idea status
func (s IdeaStatus) IsValid() bool {
	switch s {
	case IdeaStatusPending, IdeaStatusUnderReview, IdeaStatusApproved, IdeaStatusRejected:
		return true
	}
	return false
}

// IsDecided reports whether the status carries a score
func (s IdeaStatus) IsDecided() bool {
	return s == IdeaStatusApproved || s == IdeaStatusRejected
}

// Idea is a proposed solution to a problem
type Idea struct {
	ID               string     `json:"id"`
	ProblemID        string     `json:"problem_id"`
	ProblemTitle     string     `json:"problem_title,omitempty"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Solution         string     `json:"solution"`
	Implementation   string     `json:"implementation,omitempty"`
	Resources        string     `json:"resources,omitempty"`
	Timeline         string     `json:"timeline,omitempty"`
	SubmittedBy      string     `json:"submitted_by"`
	SubmittedByName  string     `json:"submitted_by_name"`
	SubmittedByEmail string     `json:"submitted_by_email,omitempty"`
	Status           IdeaStatus `json:"status"`
	Score            *float64   `json:"score"`
	Version          int        `json:"version"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Clone returns a copy that shares no pointers with i
func (i *Idea) Clone() *Idea {
	c := *i
	if i.Score != nil {
		s := *i.Score
		c.Score = &s
	}
	return &c
}

// NewIdea carries the caller-supplied fields of an idea
type NewIdea struct {
	ProblemID        string `json:"problem_id" validate:"required"`
	Title            string `json:"title" validate:"required,max=200"`
	Description      string `json:"description" validate:"required,max=2000"`
	Solution         string `json:"solution" validate:"required,max=10000"`
	Implementation   string `json:"implementation,omitempty" validate:"max=10000"`
	Resources        string `json:"resources,omitempty" validate:"max=5000"`
	Timeline         string `json:"timeline,omitempty" validate:"max=1000"`
	SubmittedBy      string `json:"submitted_by" validate:"required"`
	SubmittedByName  string `json:"submitted_by_name" validate:"required,max=200"`
	SubmittedByEmail string `json:"submitted_by_email,omitempty" validate:"omitempty,email"`
}

// IdeaFilter narrows ListIdeas
type IdeaFilter struct {
	ProblemID   string     `form:"problem_id" json:"problem_id,omitempty"`
	Status      IdeaStatus `form:"status" json:"status,omitempty"`
	SubmittedBy string     `form:"submitted_by" json:"submitted_by,omitempty"`
}
