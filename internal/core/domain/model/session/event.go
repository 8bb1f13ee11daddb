package session

// Event is a turn-level input to the state machine, derived deterministically
// from the classified intent and the command batch outcome, never from raw
// model output.
type Event int

const (
	// EventUnknown is the zero value and matches no transition.
	EventUnknown Event = iota

	// EventCarArrived signals a new occupant at an idle lane.
	EventCarArrived
	// EventUtteranceOK signals a parsed utterance whose batch executed with
	// a CONTINUE follow-up.
	EventUtteranceOK
	// EventUtteranceUnclear signals a batch needing acknowledgment or a
	// low-confidence proposal (ASK follow-up).
	EventUtteranceUnclear
	// EventUserDone signals the customer saying they are finished.
	EventUserDone
	// EventUserNeedsTime signals the customer asking for a moment.
	EventUserNeedsTime
	// EventItemUnavailable signals an out-of-stock rejection to talk through.
	EventItemUnavailable
	// EventUserResumes signals ordering speech while browsing.
	EventUserResumes
	// EventMenuQuestion signals a menu question with no mutation intent.
	EventMenuQuestion
	// EventClarified signals an answer that resolved the open ambiguity.
	EventClarified
	// EventNeverMind signals the customer abandoning the clarification.
	EventNeverMind
	// EventStillUnclear signals a second consecutive unresolved attempt.
	EventStillUnclear
	// EventUserConfirms signals agreement with the presented summary.
	EventUserConfirms
	// EventUserWantsChanges signals requested edits from the summary.
	EventUserWantsChanges
	// EventNotRight signals a rejection of the summary without specifics.
	EventNotRight
	// EventFinalizeAck signals the handoff acknowledgment after Closing.
	EventFinalizeAck
	// EventAddMore signals a last-second addition before finalize completes.
	EventAddMore

	// EventBargeIn is global: the customer spoke over the response. It never
	// changes conversation state; it only cancels in-flight synthesis.
	EventBargeIn
	// EventSilence is global: the silence timer fired between turns.
	EventSilence
	// EventIdleTimeout is global: the idle deadline passed with no activity.
	EventIdleTimeout
	// EventLaneClear is global: the car left; the session is torn down.
	EventLaneClear
)

func getEventStrings() map[Event]string {
	return map[Event]string{
		EventUnknown:          "UNKNOWN",
		EventCarArrived:       "CAR_ARRIVED",
		EventUtteranceOK:      "UTTERANCE_OK",
		EventUtteranceUnclear: "UTTERANCE_UNCLEAR",
		EventUserDone:         "USER_SAYS_DONE",
		EventUserNeedsTime:    "USER_NEEDS_TIME",
		EventItemUnavailable:  "ITEM_UNAVAILABLE",
		EventUserResumes:      "USER_STARTS_ORDER",
		EventMenuQuestion:     "MENU_QUESTION",
		EventClarified:        "USER_CLARIFIES_OK",
		EventNeverMind:        "USER_SAYS_NEVER_MIND",
		EventStillUnclear:     "STILL_UNCLEAR",
		EventUserConfirms:     "USER_CONFIRMS",
		EventUserWantsChanges: "USER_WANTS_CHANGES",
		EventNotRight:         "USER_SAYS_NOT_RIGHT",
		EventFinalizeAck:      "ORDER_COMPLETE",
		EventAddMore:          "ADD_MORE",
		EventBargeIn:          "BARGE_IN",
		EventSilence:          "SILENCE",
		EventIdleTimeout:      "IDLE_TIMEOUT",
		EventLaneClear:        "LANE_CLEAR",
	}
}

// String returns the stable event name, e.g. "USER_SAYS_DONE".
func (e Event) String() string {
	if s, ok := getEventStrings()[e]; ok {
		return s
	}
	return "UNKNOWN"
}

// IsGlobal reports whether the event applies from any state.
func (e Event) IsGlobal() bool {
	switch e {
	case EventBargeIn, EventSilence, EventIdleTimeout, EventLaneClear:
		return true
	default:
		return false
	}
}
