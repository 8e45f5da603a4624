package bootstrap

import (
	"strings"

	appconfig "github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/config"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/messaging"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/pkg/logging"
)

// BuildOutboundMessenger creates the Twilio sender. The returned reason is
// non-empty when the sender is missing configuration; every send will fail
// until it is fixed.
func BuildOutboundMessenger(cfg *appconfig.Config, logger *logging.Logger) (*messaging.TwilioSender, string) {
	if cfg == nil {
		return nil, "missing config"
	}
	sender := messaging.NewTwilioSender(
		cfg.TwilioAccountSID,
		cfg.TwilioAuthToken,
		cfg.TwilioFromNumber,
		logger,
		messaging.WithTwilioAttempts(cfg.TwilioSendAttempts),
	)

	var missing []string
	if strings.TrimSpace(cfg.TwilioAccountSID) == "" {
		missing = append(missing, "TWILIO_ACCOUNT_SID")
	}
	if strings.TrimSpace(cfg.TwilioAuthToken) == "" {
		missing = append(missing, "TWILIO_AUTH_TOKEN")
	}
	if strings.TrimSpace(cfg.TwilioFromNumber) == "" {
		missing = append(missing, "TWILIO_FROM_NUMBER")
	}
	if len(missing) > 0 {
		return sender, "missing " + strings.Join(missing, ", ")
	}
	return sender, ""
}
