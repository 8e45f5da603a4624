package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/survey"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/pkg/logging"
)

func newTestSender(url string, opts ...TwilioOption) *TwilioSender {
	opts = append([]TwilioOption{WithTwilioBaseURL(url), withTwilioBackoff(func() time.Duration { return 0 })}, opts...)
	return NewTwilioSender("AC123", "secret", "whatsapp:+14155238886", logging.Discard(), opts...)
}

func TestTwilioSenderSend(t *testing.T) {
	var got struct {
		path, user, pass, to, from, body string
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.user, got.pass, _ = r.BasicAuth()
		require.NoError(t, r.ParseForm())
		got.to = r.PostForm.Get("To")
		got.from = r.PostForm.Get("From")
		got.body = r.PostForm.Get("Body")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM999","status":"queued"}`))
	}))
	defer srv.Close()

	sid, err := newTestSender(srv.URL).Send(context.Background(), survey.OutboundMessage{
		To:          "whatsapp:+91555",
		Body:        "Q1",
		RecipientID: "555",
		Kind:        survey.OutcomeQuestion,
	})
	require.NoError(t, err)
	assert.Equal(t, "SM999", sid)
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", got.path)
	assert.Equal(t, "AC123", got.user)
	assert.Equal(t, "secret", got.pass)
	assert.Equal(t, "whatsapp:+91555", got.to)
	assert.Equal(t, "whatsapp:+14155238886", got.from)
	assert.Equal(t, "Q1", got.body)
}

func TestTwilioSenderRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"sid":"SM1"}`))
	}))
	defer srv.Close()

	sid, err := newTestSender(srv.URL).Send(context.Background(), survey.OutboundMessage{To: "whatsapp:+91555", Body: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "SM1", sid)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestTwilioSenderStopsOnClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":63016,"message":"outside the allowed window"}`))
	}))
	defer srv.Close()

	_, err := newTestSender(srv.URL).Send(context.Background(), survey.OutboundMessage{To: "whatsapp:+91555", Body: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code 63016")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestTwilioSenderHonorsAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestSender(srv.URL, WithTwilioAttempts(5)).Send(context.Background(), survey.OutboundMessage{To: "whatsapp:+91555", Body: "hi"})
	require.Error(t, err)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}

func TestTwilioSenderValidatesInput(t *testing.T) {
	s := NewTwilioSender("", "", "", nil)
	_, err := s.Send(context.Background(), survey.OutboundMessage{To: "x", Body: "y"})
	assert.Error(t, err)

	s = newTestSender("http://unused")
	_, err = s.Send(context.Background(), survey.OutboundMessage{Body: "y"})
	assert.Error(t, err)
	_, err = s.Send(context.Background(), survey.OutboundMessage{To: "x", Body: "  "})
	assert.Error(t, err)
}

func TestFormatTwilioError(t *testing.T) {
	assert.Equal(t, "status 500", formatTwilioError(500, nil))
	assert.Equal(t, "status 404: Not found", formatTwilioError(404, []byte(`{"message":"Not found"}`)))
	assert.Equal(t, "status 502: bad gateway", formatTwilioError(502, []byte(" bad gateway ")))
}
