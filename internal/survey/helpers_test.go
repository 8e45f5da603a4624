package survey

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nikhiljosht4u/Whatsapp-bot-Automation/pkg/logging"
)

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type fakeSheet struct {
	mu        sync.Mutex
	tables    map[string][][]string
	appended  map[string][][]string
	fetchErr  error
	appendErr error
}

func newFakeSheet() *fakeSheet {
	return &fakeSheet{tables: map[string][][]string{}, appended: map[string][][]string{}}
}

func (f *fakeSheet) Fetch(_ context.Context, worksheet string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.tables[worksheet], nil
}

func (f *fakeSheet) AppendRow(_ context.Context, worksheet string, row []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended[worksheet] = append(f.appended[worksheet], row)
	return nil
}

func (f *fakeSheet) rows(worksheet string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appended[worksheet]
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []OutboundMessage
	err  error
}

func (f *fakeMessenger) Send(_ context.Context, msg OutboundMessage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	if f.err != nil {
		return "", f.err
	}
	return "SM" + msg.RecipientID, nil
}

func (f *fakeMessenger) bodies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.Body)
	}
	return out
}

func (f *fakeMessenger) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
}

type fakeNotifier struct {
	mu          sync.Mutex
	completions []Completion
}

func (f *fakeNotifier) NotifyCompleted(_ context.Context, c Completion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completions = append(f.completions, c)
	return errors.New("mailbox unavailable")
}

var testCategories = Categories{
	{Tag: "CAT1", ResponsesWorksheet: "CAT1_Responses"},
	{Tag: "CAT2", ResponsesWorksheet: "CAT2_Responses"},
}

type harness struct {
	sheet      *fakeSheet
	messenger  *fakeMessenger
	notifier   *fakeNotifier
	state      *State
	dispatcher *Dispatcher
	handler    *ResponseHandler
}

const testGreeting = "Hi,\n\nToday's date and time is 2024-05-01 09:30:00.\n\nLet's get started with the questions."

func newHarness(t *testing.T, opts ...StateOption) *harness {
	t.Helper()
	h := &harness{
		sheet:     newFakeSheet(),
		messenger: &fakeMessenger{},
		notifier:  &fakeNotifier{},
		state:     NewState(opts...),
	}
	h.sheet.tables["Bot Entries"] = [][]string{
		{"Name", "Center", "Category", "Number"},
		{"Asha", "LONDON", "CAT1", "555"},
		{"Ravi", "PALAKKAD", "cat2 ", "8951865655"},
	}
	h.sheet.tables["Questions"] = [][]string{
		{"Q1", "CAT1"},
		{"Q2", "CAT1"},
		{"Rate the visit", "CAT2"},
	}

	logger := logging.Discard()
	roster := NewRosterStore(h.sheet, "Bot Entries", testCategories, logger)
	questions := NewQuestionStore(h.sheet, "Questions", testCategories, logger)
	messages, err := NewMessages(
		"Hi,\n\nToday's date and time is {{.Now}}.\n\nLet's get started with the questions.",
		"Thank you for your responses!",
		fixedClock,
	)
	require.NoError(t, err)
	addresser := Addresser{Prefix: "whatsapp", CountryCode: "91"}
	centers := NewCenterDirectory(map[string]string{"8951865655": "PALAKKAD"}, "")

	h.dispatcher, err = NewDispatcher(DispatcherConfig{
		State:      h.state,
		Roster:     roster,
		Questions:  questions,
		Categories: testCategories,
		Messenger:  h.messenger,
		Messages:   messages,
		Addresser:  addresser,
		Centers:    centers,
		Notifier:   h.notifier,
		Logger:     logger,
		Clock:      fixedClock,
	})
	require.NoError(t, err)

	h.handler, err = NewResponseHandler(ResponseHandlerConfig{
		State:      h.state,
		Roster:     roster,
		Questions:  questions,
		Categories: testCategories,
		Responses:  h.sheet,
		Dispatcher: h.dispatcher,
		Addresser:  addresser,
		Centers:    centers,
		Logger:     logger,
		Clock:      fixedClock,
	})
	require.NoError(t, err)
	return h
}
