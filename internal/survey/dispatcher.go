package survey

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/observability/metrics"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/pkg/logging"
)

const defaultSendTimeout = 15 * time.Second

// DispatcherConfig wires the Dispatcher collaborators.
type DispatcherConfig struct {
	State      *State
	Roster     *RosterStore
	Questions  *QuestionStore
	Categories Categories
	Messenger  Messenger
	Messages   *Messages
	Addresser  Addresser
	Centers    CenterDirectory
	// Notifier is optional.
	Notifier    CompletionNotifier
	Metrics     *metrics.SurveyMetrics
	Logger      *logging.Logger
	SendTimeout time.Duration
	Clock       func() time.Time
}

// Dispatcher turns state transitions into outbound messages.
type Dispatcher struct {
	state       *State
	roster      *RosterStore
	questions   *QuestionStore
	categories  Categories
	messenger   Messenger
	messages    *Messages
	addresser   Addresser
	centers     CenterDirectory
	notifier    CompletionNotifier
	metrics     *metrics.SurveyMetrics
	logger      *logging.Logger
	sendTimeout time.Duration
	clock       func() time.Time
}

// NewDispatcher validates cfg and builds a Dispatcher.
func NewDispatcher(cfg DispatcherConfig) (*Dispatcher, error) {
	switch {
	case cfg.State == nil:
		return nil, errors.New("survey: dispatcher requires state")
	case cfg.Roster == nil:
		return nil, errors.New("survey: dispatcher requires a roster store")
	case cfg.Questions == nil:
		return nil, errors.New("survey: dispatcher requires a question store")
	case cfg.Messenger == nil:
		return nil, errors.New("survey: dispatcher requires a messenger")
	case cfg.Messages == nil:
		return nil, errors.New("survey: dispatcher requires messages")
	case len(cfg.Categories) == 0:
		return nil, errors.New("survey: dispatcher requires at least one category")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Centers.centers == nil {
		cfg.Centers = NewCenterDirectory(nil, "")
	}
	return &Dispatcher{
		state:       cfg.State,
		roster:      cfg.Roster,
		questions:   cfg.Questions,
		categories:  cfg.Categories,
		messenger:   cfg.Messenger,
		messages:    cfg.Messages,
		addresser:   cfg.Addresser,
		centers:     cfg.Centers,
		notifier:    cfg.Notifier,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		sendTimeout: cfg.SendTimeout,
		clock:       cfg.Clock,
	}, nil
}

// Delivery records one Advance and the send that followed it.
type Delivery struct {
	Step Step   `json:"-"`
	Kind string `json:"kind"`
	SID  string `json:"sid,omitempty"`
	Err  error  `json:"-"`
}

// BroadcastReport summarizes one broadcast run.
type BroadcastReport struct {
	RunID        string        `json:"run_id"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration_ns"`
	Recipients   int           `json:"recipients"`
	Greetings    int           `json:"greetings"`
	Questions    int           `json:"questions"`
	Closings     int           `json:"closings"`
	Skipped      int           `json:"skipped"`
	SendFailures int           `json:"send_failures"`
	Interrupted  bool          `json:"interrupted,omitempty"`
}

func (r *BroadcastReport) add(deliveries []Delivery) {
	for _, d := range deliveries {
		switch d.Step.Outcome {
		case OutcomeGreeting:
			r.Greetings++
		case OutcomeQuestion:
			r.Questions++
		case OutcomeClosing:
			r.Closings++
		default:
			r.Skipped++
		}
		if d.Err != nil {
			r.SendFailures++
		}
	}
}

// Broadcast reads the roster and questions and advances every rostered
// recipient once, category by category in configured order and in roster row
// order within a category. A canceled ctx stops the run early; the partial
// report is still logged and observed.
func (d *Dispatcher) Broadcast(ctx context.Context) BroadcastReport {
	report := BroadcastReport{RunID: uuid.NewString(), StartedAt: d.clock()}
	logger := d.logger.With("run_id", report.RunID)

	roster := d.roster.Load(ctx)
	questions := d.questions.Load(ctx)

categories:
	for _, cat := range d.categories {
		seq := questions.For(cat.Tag)
		for _, id := range roster.Members(cat.Tag) {
			if err := ctx.Err(); err != nil {
				logger.Warn("broadcast interrupted", "error", err)
				report.Interrupted = true
				break categories
			}
			unlock := d.state.Lock(id)
			deliveries := d.Continue(ctx, id, cat.Tag, seq)
			unlock()
			report.Recipients++
			report.add(deliveries)
		}
	}

	report.Duration = d.clock().Sub(report.StartedAt)
	d.metrics.ObserveBroadcast(report.Duration.Seconds())
	logger.Info("broadcast complete",
		"recipients", report.Recipients,
		"greetings", report.Greetings,
		"questions", report.Questions,
		"closings", report.Closings,
		"send_failures", report.SendFailures,
		"interrupted", report.Interrupted,
	)
	return report
}

// Continue advances recipientID once and sends the resulting message. A
// greeting is followed by a second advance so the first question goes out in
// the same run. The caller must hold the recipient lock.
func (d *Dispatcher) Continue(ctx context.Context, recipientID, category string, questions []string) []Delivery {
	step := d.state.Advance(recipientID, len(questions))
	out := []Delivery{d.deliver(ctx, recipientID, category, questions, step)}
	if step.Outcome == OutcomeGreeting {
		next := d.state.Advance(recipientID, len(questions))
		out = append(out, d.deliver(ctx, recipientID, category, questions, next))
	}
	return out
}

func (d *Dispatcher) deliver(ctx context.Context, recipientID, category string, questions []string, step Step) Delivery {
	delivery := Delivery{Step: step, Kind: step.Outcome.String()}
	if step.Outcome == OutcomeNone {
		return delivery
	}
	logger := d.logger.With("recipient", recipientID, "category", category, "kind", delivery.Kind)

	body, err := d.body(step, questions)
	if err != nil {
		delivery.Err = err
		d.metrics.ObserveOutbound(delivery.Kind, "render_failed")
		logger.Error("failed to render message", "error", err)
		return delivery
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	sid, err := d.messenger.Send(sendCtx, OutboundMessage{
		To:          d.addresser.Address(recipientID),
		Body:        body,
		RecipientID: recipientID,
		Kind:        step.Outcome,
	})
	cancel()
	if err != nil {
		delivery.Err = err
		d.metrics.ObserveOutbound(delivery.Kind, "failed")
		logger.Error("failed to send message", "index", step.Index, "error", err)
	} else {
		delivery.SID = sid
		d.metrics.ObserveOutbound(delivery.Kind, "sent")
		logger.Info("message sent", "index", step.Index, "sid", sid)
	}

	if step.FirstClose {
		d.notifyCompleted(ctx, recipientID, category, len(questions))
	}
	return delivery
}

func (d *Dispatcher) body(step Step, questions []string) (string, error) {
	switch step.Outcome {
	case OutcomeGreeting:
		return d.messages.Greeting()
	case OutcomeQuestion:
		if step.Index < 0 || step.Index >= len(questions) {
			return "", fmt.Errorf("survey: question index %d out of range", step.Index)
		}
		return questions[step.Index], nil
	case OutcomeClosing:
		return d.messages.Closing(), nil
	default:
		return "", fmt.Errorf("survey: nothing to send for %s", step.Outcome)
	}
}

func (d *Dispatcher) notifyCompleted(ctx context.Context, recipientID, category string, n int) {
	if d.notifier == nil {
		return
	}
	notifyCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()
	err := d.notifier.NotifyCompleted(notifyCtx, Completion{
		RecipientID: recipientID,
		Category:    category,
		Center:      d.centers.Label(recipientID),
		Questions:   n,
		CompletedAt: d.clock(),
	})
	if err != nil {
		d.logger.Warn("completion notice failed", "recipient", recipientID, "error", err)
	}
}
