package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/http/handlers"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/messaging"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/observability/metrics"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/survey"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/pkg/logging"
)

const adminSecret = "admin-secret"

type noopReplies struct{}

func (noopReplies) HandleReply(context.Context, survey.InboundReply) (survey.ReplyResult, error) {
	return survey.ReplyResult{Status: survey.ReplyUnknownSender}, nil
}

type noopBroadcaster struct{}

func (noopBroadcaster) Broadcast(context.Context) survey.BroadcastReport {
	return survey.BroadcastReport{RunID: "run"}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.Discard()
	reg := prometheus.NewRegistry()
	m := metrics.NewSurveyMetrics(reg)
	state := survey.NewState()
	state.Advance("555", 2)

	return New(&Config{
		Logger: logger,
		MessagingHandler: messaging.NewHandler(messaging.HandlerConfig{
			Replies: noopReplies{},
			Metrics: m,
			Logger:  logger,
		}),
		AdminSurvey:     handlers.NewAdminSurveyHandler(noopBroadcaster{}, state, nil, nil, logger),
		AdminAuthSecret: adminSecret,
		MetricsHandler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
}

func adminToken(t *testing.T) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "ops",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte(adminSecret))
	require.NoError(t, err)
	return signed
}

func TestRouterHome(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "WhatsApp bot is running!", rr.Body.String())
}

func TestRouterHealthEndpoint(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestRouterReceiveResponse(t *testing.T) {
	form := url.Values{"From": {"whatsapp:+919999999999"}, "Body": {"hi"}}
	req := httptest.NewRequest(http.MethodPost, "/receive_response", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, messaging.EmptyTwiML, rr.Body.String())
}

func TestRouterMetrics(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/receive_response", strings.NewReader("From=x&Body=y"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(httptest.NewRecorder(), req)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `survey_messaging_inbound_replies_total{status="unknown_sender"} 1`)
}

func TestRouterAdminRequiresToken(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/conversations", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouterAdminConversations(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin/conversations/555", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rr := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"recipient_id":"555","greeted":true,"next_index":0,"closed":false}`, rr.Body.String())
}

func TestRouterAdminBroadcast(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/admin/broadcast", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rr := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"run_id":"run"`)
}

func TestRouterAdminDisabledWithoutSecret(t *testing.T) {
	logger := logging.Discard()
	router := New(&Config{
		Logger:           logger,
		MessagingHandler: messaging.NewHandler(messaging.HandlerConfig{Replies: noopReplies{}, Logger: logger}),
		AdminSurvey:      handlers.NewAdminSurveyHandler(noopBroadcaster{}, survey.NewState(), nil, nil, logger),
	})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/broadcast", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
