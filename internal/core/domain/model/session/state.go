package session

import (
	"fmt"

	"drivethru/internal/pkg/errs"
)

// State represents where the conversation stands. It is a value object with a
// closed set of values; transitions between them are owned entirely by the
// transition table in this package.
//
// Lifecycle of one lane occupancy:
//
//	Idle ──> Ordering ──> Confirming ──> Closing ──> Idle
//	           │  ▲ ▲         │
//	           │  │ └── Clarifying
//	           ▼  │
//	         Thinking
//
// Ordering accepts free-form order building, Thinking is browsing with no
// order mutation, Clarifying asks exactly one targeted question, Confirming
// presents the summary, Closing freezes the order and hands it off.
type State int

const (
	// Idle means no active occupant: initial before a car arrives and
	// terminal after the order is handed off or the lane is cleared.
	Idle State = iota

	// Ordering is the default state accepting order-building utterances.
	Ordering

	// Thinking is menu browsing; questions are answered, nothing mutates.
	Thinking

	// Clarifying asks one targeted question and accepts one answer.
	Clarifying

	// Confirming presents the order summary and accepts confirm or edits.
	Confirming

	// Closing freezes the order, computes final totals, and hands off.
	Closing
)

func getStateStrings() map[State]string {
	return map[State]string{
		Idle:       "Idle",
		Ordering:   "Ordering",
		Thinking:   "Thinking",
		Clarifying: "Clarifying",
		Confirming: "Confirming",
		Closing:    "Closing",
	}
}

// String returns the human-readable state name. Implements fmt.Stringer and
// is safe on any value.
func (s State) String() string {
	if str, ok := getStateStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// Validate checks that the value is one of the defined states. Used when
// reconstructing sessions from persistence.
func (s State) Validate() error {
	if _, ok := getStateStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("conversation state",
			fmt.Errorf("%d is not a valid state", s))
	}
	return nil
}

// AllowsMutation reports whether a command batch may touch the order in this
// state. Thinking and Idle never mutate; Closing only through the explicit
// add-more transition handled by the orchestrator.
func (s State) AllowsMutation() bool {
	switch s {
	case Ordering, Clarifying, Confirming:
		return true
	case Idle, Thinking, Closing:
		return false
	}
	return false
}
