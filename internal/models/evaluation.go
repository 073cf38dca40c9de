package models

import "time"

// Evaluation is a scored review that decided an idea
type Evaluation struct {
	ID               string     `json:"id"`
	IdeaID           string     `json:"idea_id"`
	EvaluatorID      string     `json:"evaluator_id"`
	EvaluatorName    string     `json:"evaluator_name"`
	InnovationScore  int        `json:"innovation_score"`
	FeasibilityScore int        `json:"feasibility_score"`
	ImpactScore      int        `json:"impact_score"`
	OverallScore     float64    `json:"overall_score"`
	Comments         string     `json:"comments,omitempty"`
	Status           IdeaStatus `json:"status"`
	IdempotencyKey   string     `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// EvaluationView is an evaluation joined with the idea and evaluator it refers to
type EvaluationView struct {
	Evaluation
	IdeaTitle         string `json:"idea_title"`
	IdeaDescription   string `json:"idea_description"`
	SubmittedByName   string `json:"submitted_by_name"`
	EvaluatorFullName string `json:"evaluator_full_name"`
}

// NewEvaluation carries the fields of an evaluation before it is stored
type NewEvaluation struct {
	IdeaID           string     `json:"idea_id" validate:"required"`
	EvaluatorID      string     `json:"evaluator_id" validate:"required"`
	EvaluatorName    string     `json:"evaluator_name"`
	InnovationScore  int        `json:"innovation_score" validate:"min=1,max=10"`
	FeasibilityScore int        `json:"feasibility_score" validate:"min=1,max=10"`
	ImpactScore      int        `json:"impact_score" validate:"min=1,max=10"`
	Comments         string     `json:"comments,omitempty" validate:"max=5000"`
	Status           IdeaStatus `json:"status" validate:"oneof=approved rejected"`
	IdempotencyKey   string     `json:"-"`
}

// EvaluationFilter narrows ListEvaluations
type EvaluationFilter struct {
	IdeaID      string `form:"idea_id" json:"idea_id,omitempty"`
	EvaluatorID string `form:"evaluator_id" json:"evaluator_id,omitempty"`
}
