package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/survey"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/pkg/logging"
)

const completionTimeLayout = "2006-01-02 15:04:05"

// CompletionMailer emails the operator mailbox when a recipient finishes.
type CompletionMailer struct {
	email  EmailSender
	to     string
	logger *logging.Logger
}

// NewCompletionMailer returns nil when email or to is missing, which callers
// treat as notifications being disabled.
func NewCompletionMailer(email EmailSender, to string, logger *logging.Logger) *CompletionMailer {
	if email == nil || strings.TrimSpace(to) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CompletionMailer{email: email, to: strings.TrimSpace(to), logger: logger}
}

var _ survey.CompletionNotifier = (*CompletionMailer)(nil)

// NotifyCompleted sends one completion email.
func (m *CompletionMailer) NotifyCompleted(ctx context.Context, c survey.Completion) error {
	if m == nil {
		return errors.New("notify: completion mailer not configured")
	}
	msg := completionEmail(m.to, c)
	if err := m.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: completion for %s: %w", c.RecipientID, err)
	}
	m.logger.Debug("completion notice sent", "recipient", c.RecipientID, "category", c.Category)
	return nil
}

func completionEmail(to string, c survey.Completion) EmailMessage {
	lines := []string{
		"Recipient: " + c.RecipientID,
		"Center: " + c.Center,
		"Category: " + c.Category,
		fmt.Sprintf("Questions answered: %d", c.Questions),
		"Completed at: " + c.CompletedAt.Format(completionTimeLayout),
	}

	var b strings.Builder
	b.WriteString("<p>A survey was completed.</p><ul>")
	for _, line := range lines {
		b.WriteString("<li>")
		b.WriteString(html.EscapeString(line))
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")

	return EmailMessage{
		To:      to,
		Subject: fmt.Sprintf("Survey completed: %s (%s)", c.RecipientID, c.Category),
		Body:    "A survey was completed.\n\n" + strings.Join(lines, "\n"),
		HTML:    b.String(),
	}
}
