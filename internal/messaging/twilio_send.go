package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/survey"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/pkg/logging"
)

var twilioSendTracer = otel.Tracer("survey.internal.messaging.twilio_send")

const defaultTwilioBaseURL = "https://api.twilio.com"

// TwilioSender posts WhatsApp messages using Twilio's REST API.
type TwilioSender struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	attempts   int
	backoff    func() time.Duration
	httpClient *http.Client
	logger     *logging.Logger
}

// TwilioOption customizes a TwilioSender.
type TwilioOption func(*TwilioSender)

// WithTwilioBaseURL points the sender at another API host.
func WithTwilioBaseURL(base string) TwilioOption {
	return func(s *TwilioSender) { s.baseURL = strings.TrimRight(base, "/") }
}

// WithTwilioAttempts bounds the number of tries for transient failures.
func WithTwilioAttempts(n int) TwilioOption {
	return func(s *TwilioSender) {
		if n > 0 {
			s.attempts = n
		}
	}
}

// WithTwilioHTTPClient replaces the HTTP client.
func WithTwilioHTTPClient(c *http.Client) TwilioOption {
	return func(s *TwilioSender) {
		if c != nil {
			s.httpClient = c
		}
	}
}

func withTwilioBackoff(f func() time.Duration) TwilioOption {
	return func(s *TwilioSender) { s.backoff = f }
}

// NewTwilioSender builds a sender with sane defaults.
func NewTwilioSender(accountSID, authToken, defaultFrom string, logger *logging.Logger, opts ...TwilioOption) *TwilioSender {
	if logger == nil {
		logger = logging.Default()
	}
	s := &TwilioSender{
		accountSID: accountSID,
		authToken:  authToken,
		from:       defaultFrom,
		baseURL:    defaultTwilioBaseURL,
		attempts:   3,
		backoff: func() time.Duration {
			return time.Duration(200+rand.Intn(300)) * time.Millisecond
		},
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ survey.Messenger = (*TwilioSender)(nil)

// Send dispatches a single message, retrying transient failures, and returns
// the Twilio message SID.
func (s *TwilioSender) Send(ctx context.Context, msg survey.OutboundMessage) (string, error) {
	if s.accountSID == "" || s.authToken == "" {
		return "", errors.New("messaging: twilio credentials missing")
	}
	if msg.To == "" {
		return "", errors.New("messaging: to required")
	}
	if s.from == "" {
		return "", errors.New("messaging: from required")
	}
	if strings.TrimSpace(msg.Body) == "" {
		return "", errors.New("messaging: body required")
	}

	ctx, span := twilioSendTracer.Start(ctx, "messaging.twilio.send")
	defer span.End()
	span.SetAttributes(
		attribute.String("survey.recipient", msg.RecipientID),
		attribute.String("survey.kind", msg.Kind.String()),
		attribute.String("survey.to", msg.To),
	)

	payload := url.Values{}
	payload.Set("To", msg.To)
	payload.Set("From", s.from)
	payload.Set("Body", msg.Body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)

	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		sid, retry, err := s.post(ctx, endpoint, payload)
		if err == nil {
			s.logger.Info("twilio message sent", "recipient", msg.RecipientID, "to", msg.To, "sid", sid, "attempt", attempt)
			return sid, nil
		}
		lastErr = err
		if !retry || attempt == s.attempts {
			break
		}
		select {
		case <-ctx.Done():
			span.RecordError(ctx.Err())
			return "", fmt.Errorf("messaging: twilio send: %w", ctx.Err())
		case <-time.After(s.backoff()):
		}
	}

	span.RecordError(lastErr)
	return "", lastErr
}

func (s *TwilioSender) post(ctx context.Context, endpoint string, payload url.Values) (sid string, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
	if err != nil {
		return "", false, err
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", ctx.Err() == nil, err
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var parsed struct {
			SID    string `json:"sid"`
			Status string `json:"status"`
		}
		if len(body) > 0 {
			_ = json.Unmarshal(body, &parsed)
		}
		return parsed.SID, false, nil
	}

	err = fmt.Errorf("messaging: twilio send failed: %s", formatTwilioError(resp.StatusCode, body))
	// Non-rate-limit 4xx errors are final.
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return "", false, err
	}
	return "", true, err
}

type twilioAPIError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

func formatTwilioError(status int, body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return fmt.Sprintf("status %d", status)
	}
	var parsed twilioAPIError
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil && parsed.Message != "" {
		if parsed.Code != 0 {
			return fmt.Sprintf("status %d code %d: %s", status, parsed.Code, parsed.Message)
		}
		return fmt.Sprintf("status %d: %s", status, parsed.Message)
	}
	return fmt.Sprintf("status %d: %s", status, trimmed)
}
