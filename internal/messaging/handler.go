package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/observability/metrics"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/survey"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/pkg/logging"
)

var twilioTracer = otel.Tracer("survey.internal.messaging.twilio")

type replyHandler interface {
	HandleReply(ctx context.Context, in survey.InboundReply) (survey.ReplyResult, error)
}

// HandlerConfig wires the webhook handler.
type HandlerConfig struct {
	// WebhookSecret enables Twilio signature checks when set.
	WebhookSecret string
	// PublicBaseURL overrides the scheme and host used to rebuild the signed URL.
	PublicBaseURL string
	Replies       replyHandler
	Metrics       *metrics.SurveyMetrics
	Logger        *logging.Logger
	ReplyTimeout  time.Duration
}

// Handler handles messaging webhook requests.
type Handler struct {
	webhookSecret string
	publicBaseURL string
	replies       replyHandler
	metrics       *metrics.SurveyMetrics
	logger        *logging.Logger
	replyTimeout  time.Duration
}

// NewHandler creates a new messaging handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Replies == nil {
		panic("messaging: reply handler cannot be nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.ReplyTimeout <= 0 {
		cfg.ReplyTimeout = 30 * time.Second
	}
	return &Handler{
		webhookSecret: cfg.WebhookSecret,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		replies:       cfg.Replies,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
		replyTimeout:  cfg.ReplyTimeout,
	}
}

// ReceiveResponse handles POST /receive_response. Every reply, accepted or
// not, is acknowledged with an empty TwiML document.
func (h *Handler) ReceiveResponse(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := twilioTracer.Start(r.Context(), "messaging.twilio.receive_response")
	defer span.End()

	if h.webhookSecret != "" {
		if !ValidateTwilioSignature(r, h.webhookSecret, h.webhookURL(r)) {
			h.logger.Warn("invalid twilio signature")
			h.observe("unauthorized", start)
			span.RecordError(errors.New("invalid twilio signature"))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	webhook, err := ParseTwilioWebhook(r)
	if err != nil {
		h.logger.Error("failed to parse twilio webhook", "error", err)
		h.observe(string(survey.ReplyMalformed), start)
		span.RecordError(err)
		writeTwiML(w, EmptyTwiML)
		return
	}
	span.SetAttributes(
		attribute.String("survey.twilio.message_sid", webhook.MessageSid),
		attribute.String("survey.twilio.from", webhook.From),
		attribute.Bool("survey.twilio.whatsapp", webhook.IsWhatsApp()),
	)

	replyCtx, cancel := context.WithTimeout(ctx, h.replyTimeout)
	defer cancel()
	result, err := h.replies.HandleReply(replyCtx, survey.InboundReply{From: webhook.From, Body: webhook.Body})
	if err != nil {
		h.logger.Error("reply handled with errors", "error", err, "message_sid", webhook.MessageSid, "recipient", result.RecipientID)
		span.RecordError(err)
	}
	span.SetAttributes(attribute.String("survey.reply.status", string(result.Status)))
	h.logger.Info("reply received",
		"status", result.Status,
		"recipient", result.RecipientID,
		"category", result.Category,
		"profile_name", webhook.ProfileName,
		"message_sid", webhook.MessageSid,
	)
	h.observe(string(result.Status), start)
	writeTwiML(w, EmptyTwiML)
}

// Home handles GET / with a plain liveness text.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(LivenessText))
}

// HealthCheck returns a simple health check response.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"status": "ok",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

func (h *Handler) observe(status string, start time.Time) {
	h.metrics.ObserveInbound(status)
	h.metrics.ObserveWebhookLatency(status, time.Since(start).Seconds())
}

func (h *Handler) webhookURL(r *http.Request) string {
	if h.publicBaseURL != "" && r.URL != nil {
		return h.publicBaseURL + r.URL.RequestURI()
	}
	return buildAbsoluteURL(r)
}

func buildAbsoluteURL(r *http.Request) string {
	if r.URL == nil {
		return ""
	}
	if r.URL.Scheme != "" {
		return r.URL.String()
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "https"
		if r.TLS == nil {
			scheme = "http"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, r.URL.RequestURI())
}
