package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"ideascentral/internal/config"
	"ideascentral/internal/models"
	"ideascentral/internal/observability"
	"ideascentral/internal/store"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockMailer is a mock implementation of the Mailer interface for testing
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendEmail(ctx context.Context, to, subject, templateName string, data map[string]interface{}) error {
	args := m.Called(ctx, to, subject, templateName, data)
	return args.Error(0)
}

func (m *MockMailer) IsEnabled() bool {
	args := m.Called()
	return args.Bool(0)
}

// recordingHook captures every decision event it sees
type recordingHook struct {
	name string
	err  error

	mu     sync.Mutex
	events []DecisionEvent
}

func (h *recordingHook) Name() string { return h.name }

func (h *recordingHook) OnDecision(_ context.Context, event DecisionEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return h.err
}

func (h *recordingHook) Events() []DecisionEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]DecisionEvent(nil), h.events...)
}

// createTestLogger creates a logger for testing
func createTestLogger() *observability.Logger {
	return observability.NewNopLogger()
}

var fixedNow = time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC)

func newTestRecordService(t *testing.T, hooks ...DecisionHook) (*RecordService, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	svc := NewRecordService(st, createTestLogger(), nil, hooks...)
	svc.now = func() time.Time { return fixedNow }
	return svc, st
}

func createProblem(t *testing.T, svc *RecordService) *models.Problem {
	t.Helper()
	p, err := svc.CreateProblem(context.Background(), models.NewProblem{
		Title:           "Overcrowded library at exam time",
		Description:     "Students cannot find seats during finals",
		Category:        "education",
		Tags:            []string{"library", "exams"},
		SubmittedBy:     "student-1",
		SubmittedByName: "Sam Student",
	})
	require.NoError(t, err)
	return p
}

func createIdea(t *testing.T, svc *RecordService, problemID string) *models.Idea {
	t.Helper()
	i, err := svc.CreateIdea(context.Background(), models.NewIdea{
		ProblemID:        problemID,
		Title:            "Seat booking app",
		Description:      "Let students reserve seats",
		Solution:         "A small web app backed by the campus SSO",
		SubmittedBy:      "student-2",
		SubmittedByName:  "Riley Reyes",
		SubmittedByEmail: "riley@uni.edu",
	})
	require.NoError(t, err)
	return i
}

func testEvaluationConfig(allowReevaluation bool) config.EvaluationConfig {
	return config.EvaluationConfig{AllowReevaluation: allowReevaluation, IdempotencyWindow: time.Minute}
}
