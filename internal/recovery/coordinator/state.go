package coordinator

import (
	"fmt"
	"time"

	"github.com/vietddude/itinerary/internal/recovery/failure"
)

// State is a step of one recovery flow.
type State string

const (
	StateInitial         State = "INITIAL"
	StateValidating      State = "VALIDATING"
	StateRetryingPrimary State = "RETRYING_PRIMARY"
	StateFallback        State = "FALLBACK"
	StateExhausted       State = "EXHAUSTED"
	StateDone            State = "DONE"
)

var transitions = map[State][]State{
	StateInitial:         {StateValidating, StateRetryingPrimary, StateFallback, StateExhausted},
	StateValidating:      {StateDone, StateRetryingPrimary, StateFallback},
	StateRetryingPrimary: {StateFallback, StateExhausted, StateDone},
	StateFallback:        {StateExhausted, StateDone},
	StateExhausted:       {StateDone},
}

// Transition is one recorded state change.
type Transition struct {
	From State
	To   State
	At   time.Time
}

// AttemptState tracks one logical generation operation. It is owned by a
// single Coordinate call and is not safe for concurrent use.
type AttemptState struct {
	Signature        string
	State            State
	PrimaryAttempts  int
	FallbackAttempts int
	Pathway          Method
	Eager            bool
	LastError        *failure.Info
	FirstOccurrence  time.Time
	LastOccurrence   time.Time
	Transitions      []Transition
}

func newAttemptState(info failure.Info, now time.Time) *AttemptState {
	last := info.Clone()
	return &AttemptState{
		Signature:       info.Signature(),
		State:           StateInitial,
		LastError:       &last,
		FirstOccurrence: now,
		LastOccurrence:  now,
	}
}

// Attempts returns the number of operations invoked so far.
func (s *AttemptState) Attempts() int {
	return s.PrimaryAttempts + s.FallbackAttempts
}

func (s *AttemptState) advance(to State, now time.Time) error {
	for _, allowed := range transitions[s.State] {
		if allowed == to {
			s.Transitions = append(s.Transitions, Transition{From: s.State, To: to, At: now})
			s.State = to
			return nil
		}
	}
	return fmt.Errorf("invalid recovery transition %s -> %s", s.State, to)
}

func (s *AttemptState) fail(info failure.Info, now time.Time) {
	last := info.Clone()
	s.LastError = &last
	s.LastOccurrence = now
}

// Path returns the visited states in order, starting with INITIAL.
func (s *AttemptState) Path() []State {
	out := []State{StateInitial}
	for _, t := range s.Transitions {
		out = append(out, t.To)
	}
	return out
}
