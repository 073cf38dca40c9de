// Package store persists problems, ideas, evaluations, comments and users behind a single
// interface with an in-memory and a postgres implementation.
package store

import (
	"context"
	"time"

	"ideascentral/internal/models"

	"github.com/google/uuid"
)

// Counter names one of the denormalised problem counters
type Counter string

// Problem counters
const (
	CounterViews    Counter = "views_count"
	CounterIdeas    Counter = "ideas_count"
	CounterComments Counter = "comments_count"
)

func (c Counter) valid() bool {
	switch c {
	case CounterViews, CounterIdeas, CounterComments:
		return true
	}
	return false
}

// AnyVersion disables the optimistic version check on an idea update
const AnyVersion = 0

// IdeaDecision is the status/score pair written to an idea as one update
type IdeaDecision struct {
	Status models.IdeaStatus
	Score  *float64
	// ExpectedVersion guards the write. AnyVersion means last write wins.
	ExpectedVersion int
	UpdatedAt       time.Time
}

// Store is the persistence backend consumed by the record facade.
//
// Lookups of a missing record return an error carrying contextutils.ErrorCodeRecordNotFound.
// A failed optimistic version check returns contextutils.ErrorCodeConflict.
// Inserting an evaluation whose idempotency key already exists returns
// contextutils.ErrorCodeRecordExists. Backend failures carry a database error code.
type Store interface {
	ListProblems(ctx context.Context, filter models.ProblemFilter) ([]*models.Problem, error)
	GetProblem(ctx context.Context, id string) (*models.Problem, error)
	InsertProblem(ctx context.Context, problem *models.Problem) error
	UpdateProblemStatus(ctx context.Context, id string, status models.ProblemStatus, updatedAt time.Time) error
	IncrementProblemCounter(ctx context.Context, id string, counter Counter) error
	ProblemStats(ctx context.Context) (*models.ProblemStats, error)

	ListIdeas(ctx context.Context, filter models.IdeaFilter) ([]*models.Idea, error)
	GetIdea(ctx context.Context, id string) (*models.Idea, error)
	InsertIdea(ctx context.Context, idea *models.Idea) error
	// UpdateIdeaDecision writes status and score together and bumps the version.
	UpdateIdeaDecision(ctx context.Context, id string, decision IdeaDecision) (*models.Idea, error)

	ListEvaluations(ctx context.Context, filter models.EvaluationFilter) ([]*models.EvaluationView, error)
	GetEvaluationByKey(ctx context.Context, key string) (*models.Evaluation, error)
	InsertEvaluation(ctx context.Context, evaluation *models.Evaluation) error

	ListComments(ctx context.Context, problemID string) ([]*models.Comment, error)
	InsertComment(ctx context.Context, comment *models.Comment) error

	InsertUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error
	ListUsers(ctx context.Context) ([]*models.User, error)

	// WithTx runs fn against a store whose writes commit together or not at all.
	// Calling WithTx on the store handed to fn joins the running transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	// Backend names the implementation, e.g. "memory" or "postgres".
	Backend() string
	Close() error
}

// NewID returns a fresh record identifier
func NewID() string {
	return uuid.NewString()
}
