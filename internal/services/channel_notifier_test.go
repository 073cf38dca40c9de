package services

import (
	"context"
	"testing"
	"time"

	"ideascentral/internal/models"
	contextutils "ideascentral/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChannelNotifier_RequiresURLs(t *testing.T) {
	_, err := NewChannelNotifier(nil, time.Second, createTestLogger())
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeInvalidInput, contextutils.GetErrorCode(err))
}

func TestNewChannelNotifier_InvalidURLIsMasked(t *testing.T) {
	_, err := NewChannelNotifier([]string{"nosuchservice://secret-token@host"}, time.Second, createTestLogger())
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeInvalidInput, contextutils.GetErrorCode(err))
	assert.NotContains(t, err.Error(), "secret-token")
}

func TestChannelNotifier_SendsThroughLogger(t *testing.T) {
	n, err := NewChannelNotifier([]string{"logger://"}, time.Second, createTestLogger())
	require.NoError(t, err)
	assert.Equal(t, "channel", n.Name())

	err = n.OnDecision(context.Background(), DecisionEvent{Idea: decidedIdea(models.IdeaStatusApproved, 7.7)})
	assert.NoError(t, err)
}

func TestChannelMessage(t *testing.T) {
	idea := decidedIdea(models.IdeaStatusRejected, 2.3)
	assert.Equal(t, `Idea "Seat booking app" by Riley Reyes is now rejected (score 2.3)`,
		ChannelMessage(DecisionEvent{Idea: idea}))

	msg := ChannelMessage(DecisionEvent{Idea: idea, Evaluation: &models.Evaluation{EvaluatorName: "Prof Quinn"}})
	assert.Equal(t, `Idea "Seat booking app" by Riley Reyes is now rejected (score 2.3) - reviewed by Prof Quinn`, msg)
}
