package bootstrap

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/cmd/mainconfig"
	appconfig "github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/config"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/notify"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/survey"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/pkg/logging"
)

// BuildEmailSender picks SendGrid, then SES, then the logging stub.
func BuildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (notify.EmailSender, string) {
	if sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sender != nil {
		return sender, "sendgrid"
	}

	if strings.TrimSpace(cfg.SESFromEmail) != "" {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Warn("failed to load AWS config; SES disabled", "error", err)
		} else if sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			return sender, "ses"
		}
	}

	return notify.NewStubEmailSender(logger), "stub"
}

// BuildCompletionNotifier returns nil when NOTIFY_EMAIL is unset.
func BuildCompletionNotifier(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) survey.CompletionNotifier {
	if cfg == nil || strings.TrimSpace(cfg.NotifyEmail) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	sender, provider := BuildEmailSender(ctx, cfg, logger)
	mailer := notify.NewCompletionMailer(sender, cfg.NotifyEmail, logger)
	if mailer == nil {
		return nil
	}
	logger.Info("completion notices enabled", "provider", provider, "to", cfg.NotifyEmail)
	return mailer
}
