package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// recordingMailer implements Mailer for testing
type recordingMailer struct {
	sent    []string
	enabled bool
}

func (m *recordingMailer) SendEmail(_ context.Context, to, _, templateName string, _ map[string]interface{}) error {
	m.sent = append(m.sent, to+"|"+templateName)
	return nil
}

func (m *recordingMailer) IsEnabled() bool {
	return m.enabled
}

func TestMailerInterface_Polymorphic(t *testing.T) {
	var mailers []Mailer
	rec := &recordingMailer{enabled: true}
	mailers = append(mailers, rec)

	for _, m := range mailers {
		assert.True(t, m.IsEnabled())
		assert.NoError(t, m.SendEmail(context.Background(), "student@uni.edu", "Subject", TemplateIdeaDecision, nil))
	}
	assert.Equal(t, []string{"student@uni.edu|idea_decision"}, rec.sent)
}
