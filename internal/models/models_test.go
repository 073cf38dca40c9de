package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole(t *testing.T) {
	assert.True(t, RoleStudent.IsValid())
	assert.False(t, Role("dean").IsValid())

	assert.False(t, RoleStudent.CanEvaluate())
	assert.True(t, RoleFaculty.CanEvaluate())
	assert.True(t, RoleAdmin.CanEvaluate())
}

func TestUser_FullName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", (&User{FirstName: "Ada", LastName: "Lovelace"}).FullName())
	assert.Equal(t, "Ada", (&User{FirstName: "Ada"}).FullName())
	assert.Equal(t, "Lovelace", (&User{LastName: "Lovelace"}).FullName())
}

func TestUser_PasswordHashNotSerialized(t *testing.T) {
	data, err := json.Marshal(User{ID: "u1", Email: "a@b.edu", PasswordHash: "$2a$10$secret"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
}

func TestIdeaStatus(t *testing.T) {
	for _, s := range []IdeaStatus{IdeaStatusPending, IdeaStatusUnderReview} {
		assert.True(t, s.IsValid())
		assert.False(t, s.IsDecided())
	}
	for _, s := range []IdeaStatus{IdeaStatusApproved, IdeaStatusRejected} {
		assert.True(t, s.IsValid())
		assert.True(t, s.IsDecided())
	}
	assert.False(t, IdeaStatus("archived").IsValid())
}

func TestIdea_CloneDetachesScore(t *testing.T) {
	score := 8.0
	idea := &Idea{ID: "i1", Status: IdeaStatusApproved, Score: &score}

	clone := idea.Clone()
	*clone.Score = 3.0

	assert.Equal(t, 8.0, *idea.Score)
	assert.Equal(t, "i1", clone.ID)
}

func TestIdea_PendingScoreSerializesAsNull(t *testing.T) {
	data, err := json.Marshal(Idea{ID: "i1", Status: IdeaStatusPending})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"score":null`)
}

func TestProblemEnums(t *testing.T) {
	assert.True(t, PriorityUrgent.IsValid())
	assert.False(t, ProblemPriority("critical").IsValid())
	assert.True(t, ProblemStatusInProgress.IsValid())
	assert.False(t, ProblemStatus("archived").IsValid())
	assert.True(t, (&Problem{Status: ProblemStatusClosed}).IsClosed())
}

func TestMatchesAllFilter(t *testing.T) {
	assert.True(t, MatchesAllFilter(""))
	assert.True(t, MatchesAllFilter("all"))
	assert.False(t, MatchesAllFilter("technology"))
}

func TestEvaluationView_FlattensEmbeddedFields(t *testing.T) {
	view := EvaluationView{
		Evaluation:        Evaluation{ID: "e1", OverallScore: 7.0, Status: IdeaStatusApproved},
		IdeaTitle:         "Solar benches",
		EvaluatorFullName: "Grace Hopper",
	}
	data, err := json.Marshal(view)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "e1", decoded["id"])
	assert.Equal(t, 7.0, decoded["overall_score"])
	assert.Equal(t, "Solar benches", decoded["idea_title"])
	assert.Equal(t, "Grace Hopper", decoded["evaluator_full_name"])
	assert.NotContains(t, decoded, "IdempotencyKey")
}
