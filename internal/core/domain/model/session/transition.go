package session

import (
	"errors"
	"fmt"
)

// ErrNoTransition is returned when no table entry matches the state, event,
// and guards. The orchestrator treats it as an unexpected input and keeps the
// conversation in place with a clarifying fallback.
var ErrNoTransition = errors.New("no transition for state and event")

// Action names the follow-up the orchestrator must perform after a
// transition. Actions are declarative; the table never executes anything.
type Action int

const (
	// ActionNone requires no follow-up beyond the normal turn response.
	ActionNone Action = iota
	// ActionGreet welcomes the new occupant.
	ActionGreet
	// ActionAskClarification asks the one question derived from the failure.
	ActionAskClarification
	// ActionPromptToStart nudges an empty-order customer to begin.
	ActionPromptToStart
	// ActionProposeAlternative offers a substitute for an unavailable item.
	ActionProposeAlternative
	// ActionBuildSummary presents the order summary for confirmation.
	ActionBuildSummary
	// ActionResummarize re-presents the summary after an unsafe bulk change.
	ActionResummarize
	// ActionApplyPending applies the clarified pending action.
	ActionApplyPending
	// ActionGenericSuggestion gives a generic hint and stops the loop.
	ActionGenericSuggestion
	// ActionAnswerMenu answers a menu question without mutating the order.
	ActionAnswerMenu
	// ActionApplyDiffs applies the requested edits from the summary.
	ActionApplyDiffs
	// ActionDisambiguate asks the smallest disambiguating question.
	ActionDisambiguate
	// ActionFinalize freezes the order and hands it off.
	ActionFinalize
	// ActionNudge gently re-engages a silent customer.
	ActionNudge
	// ActionRelease tears the session down and frees its resources.
	ActionRelease
)

func getActionStrings() map[Action]string {
	return map[Action]string{
		ActionNone:               "none",
		ActionGreet:              "greet",
		ActionAskClarification:   "ask_clarification",
		ActionPromptToStart:      "prompt_to_start",
		ActionProposeAlternative: "propose_alternative",
		ActionBuildSummary:       "build_summary",
		ActionResummarize:        "resummarize",
		ActionApplyPending:       "apply_pending",
		ActionGenericSuggestion:  "generic_suggestion",
		ActionAnswerMenu:         "answer_menu",
		ActionApplyDiffs:         "apply_diffs",
		ActionDisambiguate:       "disambiguate",
		ActionFinalize:           "finalize",
		ActionNudge:              "nudge",
		ActionRelease:            "release",
	}
}

// String returns the stable action name.
func (a Action) String() string {
	if s, ok := getActionStrings()[a]; ok {
		return s
	}
	return "none"
}

// Guards are the boolean predicates consulted by the table. They are
// evaluated fresh each turn from session and batch state, never cached.
type Guards struct {
	// HasOrder is true when the order ledger is non-empty.
	HasOrder bool
	// LowConfidence is true when a proposed command fell below the
	// configured confidence threshold.
	LowConfidence bool
	// UnsafeChange is true when a single batch would remove or alter more
	// than the configured fraction of existing lines; it forces a re-summary
	// instead of a silent advance.
	UnsafeChange bool
}

type transition struct {
	from   State
	event  Event
	guard  func(Guards) bool
	to     State
	action Action
}

func hasOrder(g Guards) bool     { return g.HasOrder }
func noOrder(g Guards) bool      { return !g.HasOrder }
func unsafeChange(g Guards) bool { return g.UnsafeChange }
func safeChange(g Guards) bool   { return !g.UnsafeChange }

// transitionTable is the full conversation policy. Entries are matched top to
// bottom; the first row whose state, event, and guard all match wins, so
// guard-specific rows sit above their unguarded siblings.
func transitionTable() []transition {
	return []transition{
		// Idle
		{Idle, EventCarArrived, nil, Ordering, ActionGreet},

		// Ordering
		{Ordering, EventUtteranceOK, unsafeChange, Confirming, ActionResummarize},
		{Ordering, EventUtteranceOK, safeChange, Ordering, ActionNone},
		{Ordering, EventUtteranceUnclear, nil, Clarifying, ActionAskClarification},
		{Ordering, EventUserDone, hasOrder, Confirming, ActionBuildSummary},
		{Ordering, EventUserDone, noOrder, Clarifying, ActionPromptToStart},
		{Ordering, EventUserNeedsTime, nil, Thinking, ActionNone},
		{Ordering, EventItemUnavailable, nil, Clarifying, ActionProposeAlternative},
		{Ordering, EventMenuQuestion, nil, Ordering, ActionAnswerMenu},

		// Thinking
		{Thinking, EventUserResumes, nil, Ordering, ActionNone},
		{Thinking, EventUtteranceOK, nil, Ordering, ActionNone},
		{Thinking, EventMenuQuestion, nil, Thinking, ActionAnswerMenu},
		{Thinking, EventUserDone, hasOrder, Confirming, ActionBuildSummary},
		{Thinking, EventUserDone, noOrder, Clarifying, ActionPromptToStart},

		// Clarifying
		{Clarifying, EventClarified, nil, Ordering, ActionApplyPending},
		{Clarifying, EventUtteranceOK, nil, Ordering, ActionNone},
		{Clarifying, EventNeverMind, hasOrder, Ordering, ActionNone},
		{Clarifying, EventNeverMind, noOrder, Thinking, ActionNone},
		{Clarifying, EventStillUnclear, nil, Thinking, ActionGenericSuggestion},
		{Clarifying, EventItemUnavailable, nil, Clarifying, ActionProposeAlternative},
		{Clarifying, EventUserDone, hasOrder, Confirming, ActionBuildSummary},

		// Confirming
		{Confirming, EventUserConfirms, nil, Closing, ActionFinalize},
		{Confirming, EventUserWantsChanges, unsafeChange, Confirming, ActionResummarize},
		{Confirming, EventUserWantsChanges, safeChange, Ordering, ActionApplyDiffs},
		{Confirming, EventNotRight, nil, Clarifying, ActionDisambiguate},
		{Confirming, EventUtteranceUnclear, nil, Clarifying, ActionDisambiguate},

		// Closing
		{Closing, EventFinalizeAck, nil, Idle, ActionRelease},
		{Closing, EventAddMore, nil, Ordering, ActionNone},
	}
}

// Decide resolves the next state and follow-up action for one turn.
//
// Global events are resolved before the table and apply from any state:
// barge-in keeps the state (cancellation is the orchestrator's job),
// silence nudges in place except for Ordering with an empty order, which
// drifts to Thinking, and idle timeout or lane clear force Idle.
//
// Decide is a pure function: replaying the same (state, event, guards)
// sequence always yields the same states.
func Decide(state State, event Event, guards Guards) (State, Action, error) {
	if err := state.Validate(); err != nil {
		return state, ActionNone, err
	}

	switch event {
	case EventBargeIn:
		return state, ActionNone, nil
	case EventSilence:
		if state == Ordering && !guards.HasOrder {
			return Thinking, ActionNudge, nil
		}
		return state, ActionNudge, nil
	case EventIdleTimeout, EventLaneClear:
		return Idle, ActionRelease, nil
	}

	for _, t := range transitionTable() {
		if t.from != state || t.event != event {
			continue
		}
		if t.guard != nil && !t.guard(guards) {
			continue
		}
		return t.to, t.action, nil
	}

	return state, ActionNone, fmt.Errorf("%w: %s on %s", ErrNoTransition, event, state)
}
