package survey

import (
	"fmt"
	"time"

	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/config"
	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/internal/messaging/templates"
)

// TimestampLayout formats the greeting clock and response record timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

type greetingData struct {
	Now string
}

// Messages renders the fixed greeting and closing texts.
type Messages struct {
	greeting *templates.Template
	closing  string
	clock    func() time.Time
}

// NewMessages compiles the greeting template. A nil clock uses time.Now.
func NewMessages(greeting, closing string, clock func() time.Time) (*Messages, error) {
	tmpl, err := templates.Renderer{}.Compile("greeting", greeting)
	if err != nil {
		return nil, fmt.Errorf("survey: greeting: %w", err)
	}
	if _, err := tmpl.Execute(greetingData{}); err != nil {
		return nil, fmt.Errorf("survey: greeting: %w", err)
	}
	if closing == "" {
		return nil, fmt.Errorf("survey: closing text required")
	}
	if clock == nil {
		clock = time.Now
	}
	return &Messages{greeting: tmpl, closing: closing, clock: clock}, nil
}

// MessagesFromConfig builds Messages from the survey file texts.
func MessagesFromConfig(s config.Survey, clock func() time.Time) (*Messages, error) {
	return NewMessages(s.Greeting, s.Closing, clock)
}

// Greeting renders the greeting with the current date and time.
func (m *Messages) Greeting() (string, error) {
	return m.greeting.Execute(greetingData{Now: m.clock().Format(TimestampLayout)})
}

// Closing returns the closing text.
func (m *Messages) Closing() string {
	return m.closing
}
