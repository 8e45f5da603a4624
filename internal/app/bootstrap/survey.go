package bootstrap

import (
	"fmt"

	appconfig "github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/config"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/observability/metrics"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/sheets"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/survey"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/pkg/logging"
)

// SurveyDeps are the collaborators the survey core is built on.
type SurveyDeps struct {
	Reader    sheets.Reader
	Writer    sheets.Writer
	Messenger survey.Messenger
	Notifier  survey.CompletionNotifier
	Metrics   *metrics.SurveyMetrics
	Logger    *logging.Logger
}

// Survey bundles the shared state with the components that drive it.
type Survey struct {
	State      *survey.State
	Dispatcher *survey.Dispatcher
	Replies    *survey.ResponseHandler
	Worksheets []string
}

// BuildSurvey wires the state machine, stores, dispatcher and reply handler.
func BuildSurvey(cfg *appconfig.Config, surveyCfg appconfig.Survey, deps SurveyDeps) (*Survey, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if deps.Reader == nil || deps.Writer == nil {
		return nil, fmt.Errorf("bootstrap: spreadsheet reader and writer are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}

	var opts []survey.StateOption
	if cfg.CloseOnce {
		opts = append(opts, survey.WithCloseOnce())
	}
	state := survey.NewState(opts...)

	categories := survey.CategoriesFromConfig(surveyCfg)
	roster := survey.NewRosterStore(deps.Reader, surveyCfg.RosterWorksheet, categories, logger)
	questions := survey.NewQuestionStore(deps.Reader, surveyCfg.QuestionsWorksheet, categories, logger)
	messages, err := survey.MessagesFromConfig(surveyCfg, nil)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	addresser := survey.Addresser{Prefix: cfg.ChannelPrefix, CountryCode: cfg.CountryCode}
	centers := survey.CenterDirectoryFromConfig(surveyCfg)

	dispatcher, err := survey.NewDispatcher(survey.DispatcherConfig{
		State:      state,
		Roster:     roster,
		Questions:  questions,
		Categories: categories,
		Messenger:  deps.Messenger,
		Messages:   messages,
		Addresser:  addresser,
		Centers:    centers,
		Notifier:   deps.Notifier,
		Metrics:    deps.Metrics,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	replies, err := survey.NewResponseHandler(survey.ResponseHandlerConfig{
		State:      state,
		Roster:     roster,
		Questions:  questions,
		Categories: categories,
		Responses:  deps.Writer,
		Dispatcher: dispatcher,
		Addresser:  addresser,
		Centers:    centers,
		Metrics:    deps.Metrics,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &Survey{
		State:      state,
		Dispatcher: dispatcher,
		Replies:    replies,
		Worksheets: []string{surveyCfg.RosterWorksheet, surveyCfg.QuestionsWorksheet},
	}, nil
}
