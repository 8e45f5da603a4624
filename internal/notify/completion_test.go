package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/survey"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/pkg/logging"
)

type recordingSender struct {
	sent []EmailMessage
	err  error
}

func (r *recordingSender) Send(_ context.Context, msg EmailMessage) error {
	r.sent = append(r.sent, msg)
	return r.err
}

func TestCompletionMailerNotifyCompleted(t *testing.T) {
	sender := &recordingSender{}
	mailer := NewCompletionMailer(sender, " ops@example.com ", logging.Discard())
	require.NotNil(t, mailer)

	err := mailer.NotifyCompleted(context.Background(), survey.Completion{
		RecipientID: "8951865655",
		Category:    "CAT2",
		Center:      "PALAKKAD",
		Questions:   3,
		CompletedAt: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "ops@example.com", msg.To)
	assert.Equal(t, "Survey completed: 8951865655 (CAT2)", msg.Subject)
	assert.Contains(t, msg.Body, "Center: PALAKKAD")
	assert.Contains(t, msg.Body, "Questions answered: 3")
	assert.Contains(t, msg.Body, "Completed at: 2024-05-01 09:30:00")
	assert.Contains(t, msg.HTML, "<li>Category: CAT2</li>")
}

func TestCompletionMailerEscapesHTML(t *testing.T) {
	msg := completionEmail("ops@example.com", survey.Completion{RecipientID: "<b>", Center: "A&B"})
	assert.Contains(t, msg.HTML, "&lt;b&gt;")
	assert.Contains(t, msg.HTML, "A&amp;B")
}

func TestCompletionMailerWrapsSendError(t *testing.T) {
	mailer := NewCompletionMailer(&recordingSender{err: errors.New("bounced")}, "ops@example.com", nil)
	err := mailer.NotifyCompleted(context.Background(), survey.Completion{RecipientID: "555"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bounced")
}

func TestNewCompletionMailerDisabled(t *testing.T) {
	assert.Nil(t, NewCompletionMailer(nil, "ops@example.com", nil))
	assert.Nil(t, NewCompletionMailer(&recordingSender{}, " ", nil))

	var mailer *CompletionMailer
	assert.Error(t, mailer.NotifyCompleted(context.Background(), survey.Completion{}))
}
