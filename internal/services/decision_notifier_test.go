package services

import (
	"context"
	"errors"
	"testing"

	"ideascentral/internal/config"
	"ideascentral/internal/models"
	"ideascentral/internal/services/mailer"
	"ideascentral/internal/store"
	contextutils "ideascentral/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func decidedIdea(status models.IdeaStatus, score float64) *models.Idea {
	return &models.Idea{
		ID:               "idea-1",
		ProblemID:        "problem-1",
		ProblemTitle:     "Overcrowded library",
		Title:            "Seat booking app",
		SubmittedBy:      "student-2",
		SubmittedByName:  "Riley Reyes",
		SubmittedByEmail: "riley@uni.edu",
		Status:           status,
		Score:            &score,
	}
}

func TestDecisionNotifier_ApprovedEmail(t *testing.T) {
	m := &MockMailer{}
	m.On("IsEnabled").Return(true)
	m.On("SendEmail", mock.Anything, "riley@uni.edu", `Your Idea "Seat booking app" has been approved!`,
		mailer.TemplateIdeaDecision, mock.MatchedBy(func(data map[string]interface{}) bool {
			return data["Score"] == "8.3" &&
				data["StatusUpper"] == "APPROVED" &&
				data["Approved"] == true &&
				data["MentorContactEmail"] == config.DefaultMentorContactEmail
		})).Return(nil)

	n := NewDecisionNotifier(m, nil, &config.Config{}, createTestLogger())
	err := n.OnDecision(context.Background(), DecisionEvent{Idea: decidedIdea(models.IdeaStatusApproved, 8.3)})
	require.NoError(t, err)
	m.AssertExpectations(t)
}

func TestDecisionNotifier_RejectedUsesConfiguredMentor(t *testing.T) {
	m := &MockMailer{}
	m.On("IsEnabled").Return(true)
	m.On("SendEmail", mock.Anything, "riley@uni.edu", `Your Idea "Seat booking app" has been rejected!`,
		mailer.TemplateIdeaDecision, mock.MatchedBy(func(data map[string]interface{}) bool {
			return data["Approved"] == false && data["MentorContactEmail"] == "mentors@uni.edu"
		})).Return(nil)

	cfg := &config.Config{Notifications: config.NotificationsConfig{MentorContactEmail: "mentors@uni.edu"}}
	n := NewDecisionNotifier(m, nil, cfg, createTestLogger())
	require.NoError(t, n.OnDecision(context.Background(), DecisionEvent{Idea: decidedIdea(models.IdeaStatusRejected, 2.0)}))
	m.AssertExpectations(t)
}

func TestDecisionNotifier_FallsBackToSubmitterAccount(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.InsertUser(context.Background(), &models.User{ID: "student-2", Email: "Riley.R@Uni.edu", Role: models.RoleStudent}))

	m := &MockMailer{}
	m.On("IsEnabled").Return(true)
	m.On("SendEmail", mock.Anything, "riley.r@uni.edu", mock.Anything, mailer.TemplateIdeaDecision, mock.Anything).Return(nil)

	idea := decidedIdea(models.IdeaStatusApproved, 9.0)
	idea.SubmittedByEmail = ""
	n := NewDecisionNotifier(m, st, &config.Config{}, createTestLogger())
	require.NoError(t, n.OnDecision(context.Background(), DecisionEvent{Idea: idea}))
	m.AssertExpectations(t)
}

func TestDecisionNotifier_NoRecipientIsSkipped(t *testing.T) {
	m := &MockMailer{}
	m.On("IsEnabled").Return(true)

	idea := decidedIdea(models.IdeaStatusApproved, 9.0)
	idea.SubmittedByEmail = ""
	n := NewDecisionNotifier(m, store.NewMemoryStore(), &config.Config{}, createTestLogger())
	require.NoError(t, n.OnDecision(context.Background(), DecisionEvent{Idea: idea}))
	m.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDecisionNotifier_SendFailureIsNotificationError(t *testing.T) {
	m := &MockMailer{}
	m.On("IsEnabled").Return(true)
	m.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	n := NewDecisionNotifier(m, nil, &config.Config{}, createTestLogger())
	err := n.OnDecision(context.Background(), DecisionEvent{Idea: decidedIdea(models.IdeaStatusApproved, 9.0)})
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeNotificationFailed, contextutils.GetErrorCode(err))
	assert.True(t, contextutils.IsError(err, contextutils.ErrNotificationFailed))
}

func TestDecisionNotifier_MailerNotificationErrorPassesThrough(t *testing.T) {
	mailerErr := contextutils.NewAppError(contextutils.ErrorCodeNotificationFailed, contextutils.SeverityWarn, "smtp rejected recipient", "550")
	m := &MockMailer{}
	m.On("IsEnabled").Return(true)
	m.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(mailerErr)

	n := NewDecisionNotifier(m, nil, &config.Config{}, createTestLogger())
	err := n.OnDecision(context.Background(), DecisionEvent{Idea: decidedIdea(models.IdeaStatusApproved, 9.0)})
	require.Error(t, err)
	assert.Same(t, mailerErr, err)
}

// End to end through the facade: an approval produces exactly one email whose
// subject names the new status
func TestDecisionNotifier_WiredIntoRecordService(t *testing.T) {
	testMailer := NewTestEmailService(&config.Config{IsTest: true}, createTestLogger())
	records, st := newTestRecordService(t)
	records.AddHook(NewDecisionNotifier(testMailer, st, &config.Config{}, createTestLogger()))
	svc := NewEvaluationService(records, testEvaluationConfig(false), createTestLogger())

	idea := createIdea(t, records, createProblem(t, records).ID)
	_, err := svc.Evaluate(context.Background(), evaluateRequest(idea.ID, "fac-1", true))
	require.NoError(t, err)

	sent := testMailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "riley@uni.edu", sent[0].To)
	assert.Contains(t, sent[0].Subject, "approved")
	assert.Contains(t, sent[0].Body, "Overall Score: 8.0")
	assert.Contains(t, sent[0].Body, "<strong>APPROVED</strong>")
	assert.Contains(t, sent[0].Body, config.DefaultMentorContactEmail)
	assert.Contains(t, sent[0].Body, "Overcrowded library at exam time")
}
