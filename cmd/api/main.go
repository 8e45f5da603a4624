package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/api/router"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/app/bootstrap"
	appconfig "github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/config"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/http/handlers"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/messaging"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/observability/metrics"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/sheets"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/survey"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting whatsapp survey bot",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	surveyCfg, err := appconfig.LoadSurvey(cfg.SurveyConfigFile)
	if err != nil {
		logger.Error("failed to load survey config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	googleAPI, err := sheets.NewGoogleAPI(ctx, cfg.GoogleCredentialsFile)
	if err != nil {
		logger.Error("failed to create sheets client", "error", err)
		os.Exit(1)
	}
	sheetClient := sheets.NewClient(googleAPI, cfg.SpreadsheetID, logger)
	sheetClient.SetTimeout(cfg.SheetsTimeout)
	if _, err := sheetClient.Open(ctx); err != nil {
		logger.Error("failed to open spreadsheet", "error", err)
		os.Exit(1)
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	reader := bootstrap.BuildTableReader(sheetClient, redisClient, cfg, logger)

	sender, reason := bootstrap.BuildOutboundMessenger(cfg, logger)
	if reason != "" {
		logger.Warn("twilio sender misconfigured; outbound messages will fail", "reason", reason)
	}

	metricsHandler, surveyMetrics := setupMetrics()

	app, err := bootstrap.BuildSurvey(cfg, surveyCfg, bootstrap.SurveyDeps{
		Reader:    reader,
		Writer:    sheetClient,
		Messenger: sender,
		Notifier:  bootstrap.BuildCompletionNotifier(ctx, cfg, logger),
		Metrics:   surveyMetrics,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("failed to build survey", "error", err)
		os.Exit(1)
	}

	r := router.New(&router.Config{
		Logger: logger,
		MessagingHandler: messaging.NewHandler(messaging.HandlerConfig{
			WebhookSecret: cfg.TwilioWebhookSecret,
			PublicBaseURL: cfg.PublicBaseURL,
			Replies:       app.Replies,
			Metrics:       surveyMetrics,
			Logger:        logger,
		}),
		AdminSurvey:     handlers.NewAdminSurveyHandler(app.Dispatcher, app.State, reader, app.Worksheets, logger),
		AdminAuthSecret: cfg.AdminJWTSecret,
		MetricsHandler:  metricsHandler,
	})

	app.Dispatcher.Broadcast(ctx)
	go runBroadcastLoop(ctx, app.Dispatcher, cfg.BroadcastInterval, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func setupMetrics() (http.Handler, *metrics.SurveyMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewSurveyMetrics(reg)
}

type broadcaster interface {
	Broadcast(ctx context.Context) survey.BroadcastReport
}

// runBroadcastLoop re-broadcasts every interval until ctx ends. A zero
// interval disables it.
func runBroadcastLoop(ctx context.Context, d broadcaster, interval time.Duration, logger *logging.Logger) {
	if interval <= 0 {
		return
	}
	logger.Info("scheduled broadcasts enabled", "interval", interval.String())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Broadcast(ctx)
		}
	}
}
