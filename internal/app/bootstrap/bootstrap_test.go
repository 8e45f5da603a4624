package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/config"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/notify"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/sheets"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/survey"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/pkg/logging"
)

type memorySheet struct {
	tables   map[string][][]string
	appended map[string][][]string
}

func (m *memorySheet) Fetch(_ context.Context, worksheet string) ([][]string, error) {
	return m.tables[worksheet], nil
}

func (m *memorySheet) AppendRow(_ context.Context, worksheet string, row []string) error {
	m.appended[worksheet] = append(m.appended[worksheet], row)
	return nil
}

type countingMessenger struct{ sent int }

func (c *countingMessenger) Send(context.Context, survey.OutboundMessage) (string, error) {
	c.sent++
	return "SM", nil
}

func TestBuildRedisClientDisabled(t *testing.T) {
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{}, logging.Discard(), true))
	assert.Nil(t, BuildRedisClient(context.Background(), nil, logging.Discard(), true))
}

func TestBuildRedisClientVerifies(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: addr}, logging.Discard(), true)
	require.NotNil(t, client)
	defer client.Close()

	mr.Close()
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: addr}, logging.Discard(), true))
}

type noAPI struct{}

func (noAPI) WorksheetTitles(context.Context, string) ([]string, error) { return nil, nil }
func (noAPI) GetValues(context.Context, string, string) ([][]interface{}, error) {
	return nil, nil
}
func (noAPI) AppendValues(context.Context, string, string, [][]interface{}) error { return nil }

func TestBuildTableReader(t *testing.T) {
	client := sheets.NewClient(noAPI{}, "sheet-1", logging.Discard())
	mr := miniredis.RunT(t)
	redisClient := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: mr.Addr()}, logging.Discard(), false)

	reader := BuildTableReader(client, redisClient, &appconfig.Config{TableCacheTTL: time.Minute}, logging.Discard())
	assert.True(t, reader.Enabled())

	reader = BuildTableReader(client, nil, &appconfig.Config{TableCacheTTL: time.Minute}, logging.Discard())
	assert.False(t, reader.Enabled())
}

func TestBuildOutboundMessengerReportsMissingConfig(t *testing.T) {
	sender, reason := BuildOutboundMessenger(&appconfig.Config{TwilioAccountSID: "AC1"}, logging.Discard())
	assert.NotNil(t, sender)
	assert.Equal(t, "missing TWILIO_AUTH_TOKEN, TWILIO_FROM_NUMBER", reason)

	_, reason = BuildOutboundMessenger(&appconfig.Config{
		TwilioAccountSID: "AC1",
		TwilioAuthToken:  "tok",
		TwilioFromNumber: "whatsapp:+14155238886",
	}, logging.Discard())
	assert.Empty(t, reason)
}

func TestBuildCompletionNotifier(t *testing.T) {
	assert.Nil(t, BuildCompletionNotifier(context.Background(), &appconfig.Config{}, logging.Discard()))

	n := BuildCompletionNotifier(context.Background(), &appconfig.Config{NotifyEmail: "ops@example.com"}, logging.Discard())
	require.NotNil(t, n)
	assert.IsType(t, &notify.CompletionMailer{}, n)
}

func TestBuildEmailSenderPrefersSendGrid(t *testing.T) {
	sender, provider := BuildEmailSender(context.Background(), &appconfig.Config{SendGridAPIKey: "key", SendGridFromEmail: "bot@example.com"}, logging.Discard())
	assert.Equal(t, "sendgrid", provider)
	assert.IsType(t, &notify.SendGridSender{}, sender)

	_, provider = BuildEmailSender(context.Background(), &appconfig.Config{}, logging.Discard())
	assert.Equal(t, "stub", provider)
}

func TestBuildSurveyWiresBroadcastAndReplies(t *testing.T) {
	sheet := &memorySheet{
		tables: map[string][][]string{
			"Bot Entries": {{"n", "c", "CAT1", "555"}},
			"Questions":   {{"Q1", "CAT1"}},
		},
		appended: map[string][][]string{},
	}
	messenger := &countingMessenger{}
	cfg := &appconfig.Config{ChannelPrefix: "whatsapp", CountryCode: "91", CloseOnce: true}

	s, err := BuildSurvey(cfg, appconfig.DefaultSurvey(), SurveyDeps{
		Reader:    sheet,
		Writer:    sheet,
		Messenger: messenger,
		Logger:    logging.Discard(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bot Entries", "Questions"}, s.Worksheets)

	report := s.Dispatcher.Broadcast(context.Background())
	assert.Equal(t, 1, report.Recipients)
	assert.Equal(t, 2, messenger.sent)

	res, err := s.Replies.HandleReply(context.Background(), survey.InboundReply{From: "whatsapp:+91555", Body: "ok"})
	require.NoError(t, err)
	assert.Equal(t, survey.ReplyAccepted, res.Status)
	assert.Len(t, sheet.appended["CAT1_Responses"], 1)

	s.Dispatcher.Broadcast(context.Background())
	assert.Equal(t, 3, messenger.sent, "close-once suppresses the repeated closing")
}

func TestBuildSurveyRequiresDeps(t *testing.T) {
	_, err := BuildSurvey(nil, appconfig.DefaultSurvey(), SurveyDeps{})
	assert.Error(t, err)
	_, err = BuildSurvey(&appconfig.Config{}, appconfig.DefaultSurvey(), SurveyDeps{})
	assert.Error(t, err)
}
