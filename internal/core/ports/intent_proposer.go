package ports

import (
	"context"

	"drivethru/internal/core/domain/model/command"
	"drivethru/internal/core/domain/model/order"
	"drivethru/internal/core/domain/model/session"
)

// Intent classifies what the customer meant by an utterance.
type Intent int

const (
	// IntentUnknown is the zero value; treated as unclear.
	IntentUnknown Intent = iota
	// IntentOrder proposes one or more order mutations.
	IntentOrder
	// IntentDone signals the customer finished ordering.
	IntentDone
	// IntentNeedTime asks for a moment to decide.
	IntentNeedTime
	// IntentNeverMind abandons the pending clarification.
	IntentNeverMind
	// IntentConfirm accepts the read-back summary.
	IntentConfirm
	// IntentWantsChanges rejects the summary with concrete fixes.
	IntentWantsChanges
	// IntentNotRight rejects the summary without saying what is wrong.
	IntentNotRight
	// IntentMenuQuestion asks about the menu without ordering.
	IntentMenuQuestion
	// IntentResume re-engages after thinking.
	IntentResume
	// IntentUnclear could not be interpreted at all.
	IntentUnclear
)

// Proposal is the proposer's interpretation of one utterance: the detected
// intent, the order mutations it implies, and an overall confidence.
type Proposal struct {
	Intent   Intent
	Commands []command.Command
	// Confidence is the proposer's confidence in the interpretation, in
	// [0, 1]. Low-confidence proposals are not applied; the conversation
	// asks a clarifying question instead.
	Confidence float64
}

// ProposeRequest carries the conversational context the proposer needs.
type ProposeRequest struct {
	TurnKey      string
	RestaurantID string
	Utterance    string
	State        session.State
	Order        *order.Order
}

// IntentProposer turns a transcript into a structured proposal. The same
// utterance with the same TurnKey must yield commands with the same
// idempotency keys, so a retried turn replays instead of duplicating.
type IntentProposer interface {
	Propose(ctx context.Context, req ProposeRequest) (Proposal, error)
}
