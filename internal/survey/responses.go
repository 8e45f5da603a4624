package survey

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/observability/metrics"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/sheets"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/pkg/logging"
)

// InboundReply is a reply as delivered by the channel webhook.
type InboundReply struct {
	From string
	Body string
}

// ReplyStatus classifies how an inbound reply was handled.
type ReplyStatus string

const (
	ReplyMalformed     ReplyStatus = "malformed"
	ReplyUnknownSender ReplyStatus = "unknown_sender"
	ReplyDiscarded     ReplyStatus = "discarded"
	ReplyAccepted      ReplyStatus = "accepted"
)

// ReplyResult reports what HandleReply did.
type ReplyResult struct {
	Status      ReplyStatus
	RecipientID string
	Category    string
	Index       int
	Question    string
	Saved       bool
	Deliveries  []Delivery
}

// ResponseHandlerConfig wires the ResponseHandler collaborators.
type ResponseHandlerConfig struct {
	State      *State
	Roster     *RosterStore
	Questions  *QuestionStore
	Categories Categories
	Responses  sheets.Writer
	Dispatcher *Dispatcher
	Addresser  Addresser
	Centers    CenterDirectory
	Metrics    *metrics.SurveyMetrics
	Logger     *logging.Logger
	Clock      func() time.Time
}

// ResponseHandler records replies and moves the sender to their next message.
type ResponseHandler struct {
	state      *State
	roster     *RosterStore
	questions  *QuestionStore
	categories Categories
	responses  sheets.Writer
	dispatcher *Dispatcher
	addresser  Addresser
	centers    CenterDirectory
	metrics    *metrics.SurveyMetrics
	logger     *logging.Logger
	clock      func() time.Time
}

// NewResponseHandler validates cfg and builds a ResponseHandler.
func NewResponseHandler(cfg ResponseHandlerConfig) (*ResponseHandler, error) {
	switch {
	case cfg.State == nil:
		return nil, errors.New("survey: response handler requires state")
	case cfg.Roster == nil:
		return nil, errors.New("survey: response handler requires a roster store")
	case cfg.Questions == nil:
		return nil, errors.New("survey: response handler requires a question store")
	case cfg.Responses == nil:
		return nil, errors.New("survey: response handler requires a response writer")
	case cfg.Dispatcher == nil:
		return nil, errors.New("survey: response handler requires a dispatcher")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Centers.centers == nil {
		cfg.Centers = NewCenterDirectory(nil, "")
	}
	return &ResponseHandler{
		state:      cfg.State,
		roster:     cfg.Roster,
		questions:  cfg.Questions,
		categories: cfg.Categories,
		responses:  cfg.Responses,
		dispatcher: cfg.Dispatcher,
		addresser:  cfg.Addresser,
		centers:    cfg.Centers,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		clock:      cfg.Clock,
	}, nil
}

// HandleReply records in as the answer to the question its sender was sent
// last, then sends the next message. Replies from unknown senders, or that
// arrive before the first question or after the closing message, are not
// saved. A reply after the closing message still sends the next question when
// the sequence has grown since. A failed save is returned as an error after the sender has still
// been advanced.
func (h *ResponseHandler) HandleReply(ctx context.Context, in InboundReply) (ReplyResult, error) {
	if strings.TrimSpace(in.From) == "" || in.Body == "" {
		h.logger.Warn("malformed reply", "from", in.From)
		return ReplyResult{Status: ReplyMalformed, Index: -1}, nil
	}

	id := h.addresser.Normalize(in.From)
	result := ReplyResult{RecipientID: id, Index: -1}
	logger := h.logger.With("recipient", id)

	roster := h.roster.Load(ctx)
	category, ok := roster.CategoryOf(id)
	if !ok {
		logger.Warn("reply from unknown sender", "from", in.From)
		result.Status = ReplyUnknownSender
		return result, nil
	}
	result.Category = category
	logger = logger.With("category", category)

	cat, err := h.categories.Find(category)
	if err != nil {
		logger.Error("roster category not configured", "error", err)
		result.Status = ReplyUnknownSender
		return result, nil
	}
	seq := h.questions.Load(ctx).For(cat.Tag)

	unlock := h.state.Lock(id)
	defer unlock()

	index, valid := h.state.ResolveAnswerSlot(id, len(seq))
	if !valid {
		logger.Info("reply discarded", "index", index, "questions", len(seq))
		result.Status = ReplyDiscarded
		if e, seen := h.state.Get(id); seen && e.Closed && e.NextIndex < len(seq) {
			logger.Info("questions added after closing, resuming", "next_index", e.NextIndex)
			result.Deliveries = h.dispatcher.Continue(ctx, id, cat.Tag, seq)
		}
		return result, nil
	}
	result.Status = ReplyAccepted
	result.Index = index
	result.Question = seq[index]

	row := []string{
		in.From,
		h.centers.Label(id),
		seq[index],
		in.Body,
		h.clock().Format(TimestampLayout),
	}
	saveErr := h.responses.AppendRow(ctx, cat.ResponsesWorksheet, row)
	h.metrics.ObserveResponseSaved(cat.Tag, saveErr == nil)
	if saveErr != nil {
		logger.Error("failed to save response", "worksheet", cat.ResponsesWorksheet, "index", index, "error", saveErr)
		saveErr = fmt.Errorf("survey: save response: %w", saveErr)
	} else {
		result.Saved = true
		logger.Info("response saved", "worksheet", cat.ResponsesWorksheet, "index", index)
	}

	result.Deliveries = h.dispatcher.Continue(ctx, id, cat.Tag, seq)
	return result, saveErr
}
