package survey

import (
	"sort"
	"sync"
)

// Outcome is the class of message an Advance call asks the caller to send.
type Outcome int

const (
	// OutcomeNone means nothing is sent (close-once mode, already closed).
	OutcomeNone Outcome = iota
	// OutcomeGreeting is the first contact; no question slot is consumed.
	OutcomeGreeting
	// OutcomeQuestion carries the index of the question to send.
	OutcomeQuestion
	// OutcomeClosing is the fixed thank-you message.
	OutcomeClosing
)

func (o Outcome) String() string {
	switch o {
	case OutcomeGreeting:
		return "greeting"
	case OutcomeQuestion:
		return "question"
	case OutcomeClosing:
		return "closing"
	default:
		return "none"
	}
}

// Step is the result of one Advance call.
type Step struct {
	Outcome Outcome
	// Index is the question index for OutcomeQuestion and -1 otherwise.
	Index int
	// FirstClose is set on the closing step that first crosses into DONE.
	FirstClose bool
}

// Entry is the cursor kept for one recipient.
type Entry struct {
	Greeted   bool `json:"greeted"`
	NextIndex int  `json:"next_index"`
	Closed    bool `json:"closed"`
}

// State holds every recipient's position in their question sequence for the
// lifetime of the process. It is safe for concurrent use.
type State struct {
	mu        sync.Mutex
	entries   map[string]*Entry
	locks     map[string]*sync.Mutex
	closeOnce bool
}

// StateOption tweaks a State at construction.
type StateOption func(*State)

// WithCloseOnce makes repeated Advance calls on a finished recipient return
// OutcomeNone instead of resending the closing message.
func WithCloseOnce() StateOption {
	return func(s *State) { s.closeOnce = true }
}

// NewState returns an empty state.
func NewState(opts ...StateOption) *State {
	s := &State{
		entries: make(map[string]*Entry),
		locks:   make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Advance moves recipientID one step through a sequence of n questions.
//
// An unseen recipient is greeted and its index set to 0. A greeted recipient
// with questions left gets the question at its index, and the index is
// incremented before the reply arrives. Otherwise the closing step is
// returned; it may be returned any number of times.
func (s *State) Advance(recipientID string, n int) Step {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[recipientID]
	if e == nil {
		e = &Entry{}
		s.entries[recipientID] = e
	}

	if !e.Greeted {
		e.Greeted = true
		e.NextIndex = 0
		e.Closed = false
		return Step{Outcome: OutcomeGreeting, Index: -1}
	}

	if e.NextIndex < n {
		idx := e.NextIndex
		e.NextIndex++
		e.Closed = false
		return Step{Outcome: OutcomeQuestion, Index: idx}
	}

	if e.Closed && s.closeOnce {
		return Step{Outcome: OutcomeNone, Index: -1}
	}
	first := !e.Closed
	e.Closed = true
	return Step{Outcome: OutcomeClosing, Index: -1, FirstClose: first}
}

// ResolveAnswerSlot returns the index of the question an inbound reply
// answers: the one sent last. ok is false before any question went out, once
// the closing message has been sent, or when the index falls outside a
// sequence of n questions.
func (s *State) ResolveAnswerSlot(recipientID string, n int) (index int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[recipientID]
	if e == nil {
		return -1, false
	}
	index = e.NextIndex - 1
	if e.Closed || index < 0 || index >= n {
		return index, false
	}
	return index, true
}

// Lock serializes work on one recipient and returns the matching unlock.
// The lock is not reentrant.
func (s *State) Lock(recipientID string) (unlock func()) {
	s.mu.Lock()
	l := s.locks[recipientID]
	if l == nil {
		l = &sync.Mutex{}
		s.locks[recipientID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Get returns a copy of the entry for recipientID.
func (s *State) Get(recipientID string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[recipientID]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// RecipientSnapshot pairs a recipient with its entry.
type RecipientSnapshot struct {
	RecipientID string `json:"recipient_id"`
	Entry
}

// Snapshot copies every entry, sorted by recipient.
func (s *State) Snapshot() []RecipientSnapshot {
	s.mu.Lock()
	out := make([]RecipientSnapshot, 0, len(s.entries))
	for id, e := range s.entries {
		out = append(out, RecipientSnapshot{RecipientID: id, Entry: *e})
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].RecipientID < out[j].RecipientID })
	return out
}

// Len returns the number of recipients seen so far.
func (s *State) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
