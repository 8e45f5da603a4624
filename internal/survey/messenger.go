package survey

import (
	"context"
	"time"
)

// OutboundMessage is one message handed to the channel.
type OutboundMessage struct {
	To          string
	Body        string
	RecipientID string
	Kind        Outcome
}

// Messenger delivers a single outbound message and returns the provider id.
type Messenger interface {
	Send(ctx context.Context, msg OutboundMessage) (string, error)
}

// Completion describes a recipient reaching the end of their questions.
type Completion struct {
	RecipientID string
	Category    string
	Center      string
	Questions   int
	CompletedAt time.Time
}

// CompletionNotifier is told when a recipient first reaches the closing message.
type CompletionNotifier interface {
	NotifyCompleted(ctx context.Context, c Completion) error
}
