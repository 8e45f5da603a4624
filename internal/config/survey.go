package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Survey describes the shape of the spreadsheet and the fixed texts sent to
// recipients. It is read from SURVEY_CONFIG_FILE when set.
type Survey struct {
	RosterWorksheet    string            `yaml:"roster_worksheet"`
	QuestionsWorksheet string            `yaml:"questions_worksheet"`
	Categories         []SurveyCategory  `yaml:"categories"`
	Centers            map[string]string `yaml:"centers,omitempty"`
	UnknownCenter      string            `yaml:"unknown_center,omitempty"`
	Greeting           string            `yaml:"greeting,omitempty"`
	Closing            string            `yaml:"closing,omitempty"`
}

// SurveyCategory binds a category tag to the worksheet its answers go to.
type SurveyCategory struct {
	Tag                string `yaml:"tag"`
	ResponsesWorksheet string `yaml:"responses_worksheet,omitempty"`
}

// DefaultSurvey is the stock two-category deployment.
func DefaultSurvey() Survey {
	return Survey{
		RosterWorksheet:    "Bot Entries",
		QuestionsWorksheet: "Questions",
		Categories: []SurveyCategory{
			{Tag: "CAT1", ResponsesWorksheet: "CAT1_Responses"},
			{Tag: "CAT2", ResponsesWorksheet: "CAT2_Responses"},
		},
		Centers: map[string]string{
			"123456789":  "LONDON",
			"8951865655": "PALAKKAD",
			"1234567890": "NEWYORK",
			"9578765429": "AFRICA",
		},
		UnknownCenter: "Unknown Center",
		Greeting:      "Hi,\n\nToday's date and time is {{.Now}}.\n\nLet's get started with the questions.",
		Closing:       "Thank you for your responses!",
	}
}

// LoadSurvey reads the YAML survey file at path. An empty path yields the defaults.
// Fields missing from the file keep their default values.
func LoadSurvey(path string) (Survey, error) {
	survey := DefaultSurvey()
	if strings.TrimSpace(path) == "" {
		return survey, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Survey{}, fmt.Errorf("config: read survey file: %w", err)
	}
	return ParseSurvey(data)
}

// ParseSurvey decodes YAML bytes on top of DefaultSurvey and validates the result.
func ParseSurvey(data []byte) (Survey, error) {
	survey := DefaultSurvey()
	var file Survey
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Survey{}, fmt.Errorf("config: parse survey file: %w", err)
	}
	if file.RosterWorksheet != "" {
		survey.RosterWorksheet = file.RosterWorksheet
	}
	if file.QuestionsWorksheet != "" {
		survey.QuestionsWorksheet = file.QuestionsWorksheet
	}
	if len(file.Categories) > 0 {
		survey.Categories = file.Categories
	}
	if file.Centers != nil {
		survey.Centers = file.Centers
	}
	if file.UnknownCenter != "" {
		survey.UnknownCenter = file.UnknownCenter
	}
	if file.Greeting != "" {
		survey.Greeting = file.Greeting
	}
	if file.Closing != "" {
		survey.Closing = file.Closing
	}
	if err := survey.Validate(); err != nil {
		return Survey{}, err
	}
	return survey, nil
}

// Validate checks category tags are present and unique, filling in default
// response worksheet names.
func (s *Survey) Validate() error {
	if len(s.Categories) == 0 {
		return errors.New("config: survey needs at least one category")
	}
	seen := make(map[string]struct{}, len(s.Categories))
	for i := range s.Categories {
		tag := strings.TrimSpace(s.Categories[i].Tag)
		if tag == "" {
			return fmt.Errorf("config: category %d has no tag", i)
		}
		key := strings.ToUpper(tag)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("config: duplicate category %q", tag)
		}
		seen[key] = struct{}{}
		s.Categories[i].Tag = tag
		if strings.TrimSpace(s.Categories[i].ResponsesWorksheet) == "" {
			s.Categories[i].ResponsesWorksheet = tag + "_Responses"
		}
	}
	return nil
}
