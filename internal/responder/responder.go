// Package responder turns conversation actions into the spoken reply for the
// lane speaker. Phrases come from fixed pools; selection is keyed off the
// turn counter so replaying a turn yields the same words.
package responder

import (
	"fmt"
	"strings"

	"drivethru/internal/core/domain/model/order"
	"drivethru/internal/core/domain/model/session"
)

// Request carries the turn facts the responder phrases from.
type Request struct {
	Action session.Action
	// Turn is the session's turn counter, used to pick from phrase pools.
	Turn   int
	Order  *order.Order
	Totals order.Totals
	// FailedItem names the item behind a propose-alternative reply.
	FailedItem string
	// RejectedCount is how many commands of the batch were rejected.
	RejectedCount int
}

// Responder builds replies from canned phrase pools.
type Responder struct{}

// New creates a Responder.
func New() *Responder {
	return &Responder{}
}

func pools() map[session.Action][]string {
	return map[session.Action][]string{
		session.ActionGreet: {
			"Hi there, welcome! What can I get started for you?",
			"Welcome! What would you like today?",
			"Hey, welcome in! What sounds good?",
		},
		session.ActionNone: {
			"Got it. Anything else?",
			"Sure thing. What else?",
			"Okay. Anything else for you?",
		},
		session.ActionAskClarification: {
			"Sorry, which item did you mean?",
			"Could you say that once more for me?",
		},
		session.ActionPromptToStart: {
			"No problem. Would you like to hear some favorites, or order when you're ready?",
		},
		session.ActionGenericSuggestion: {
			"No worries, take your time. Our combos are a popular pick.",
		},
		session.ActionAnswerMenu: {
			"Happy to help with the menu.",
		},
		session.ActionDisambiguate: {
			"Sorry about that. Which part should I fix?",
		},
		session.ActionNudge: {
			"Take your time. Just let me know when you're ready.",
			"Still there? No rush at all.",
		},
		session.ActionApplyPending: {
			"Got it, thanks. Anything else?",
		},
		session.ActionApplyDiffs: {
			"Sure, I've updated that. Anything else?",
		},
		session.ActionRelease: {
			"Thanks for coming by. See you next time!",
		},
	}
}

// Reply renders the spoken response for one turn.
func (r *Responder) Reply(req Request) string {
	switch req.Action {
	case session.ActionBuildSummary, session.ActionResummarize:
		return r.summary(req)
	case session.ActionProposeAlternative:
		return r.alternative(req)
	case session.ActionFinalize:
		return r.finalize(req)
	case session.ActionNone:
		if req.RejectedCount > 0 {
			return fmt.Sprintf("I got most of that, but %d item didn't go through. Could you repeat that part?",
				req.RejectedCount)
		}
	case session.ActionGreet, session.ActionAskClarification, session.ActionPromptToStart,
		session.ActionGenericSuggestion, session.ActionAnswerMenu, session.ActionApplyPending,
		session.ActionApplyDiffs, session.ActionDisambiguate, session.ActionNudge,
		session.ActionRelease:
	}
	return r.pick(req.Action, req.Turn)
}

func (r *Responder) pick(action session.Action, turnCounter int) string {
	pool, ok := pools()[action]
	if !ok || len(pool) == 0 {
		return "Sorry, could you say that again?"
	}
	return pool[turnCounter%len(pool)]
}

func (r *Responder) summary(req Request) string {
	if req.Order == nil || req.Order.IsEmpty() {
		return "Your order is empty right now. What would you like?"
	}

	var b strings.Builder
	if req.Action == session.ActionResummarize {
		b.WriteString("Just to be sure, here's your order now: ")
	} else {
		b.WriteString("Alright, I have ")
	}
	b.WriteString(describeLines(req.Order))
	b.WriteString(fmt.Sprintf(". Your total is %s. Is that right?", dollars(req.Totals.Total)))
	return b.String()
}

func (r *Responder) alternative(req Request) string {
	if req.FailedItem == "" {
		return "Sorry, we're out of that one right now. Can I get you something else?"
	}
	return fmt.Sprintf("Sorry, we're out of %s right now. Can I get you something else instead?", req.FailedItem)
}

func (r *Responder) finalize(req Request) string {
	return fmt.Sprintf("Great, your total is %s. Please pull forward to the window.", dollars(req.Totals.Total))
}

func describeLines(o *order.Order) string {
	parts := make([]string, 0, o.LineCount())
	for _, line := range o.Lines() {
		part := fmt.Sprintf("%d %s", line.Quantity(), line.Name())
		if line.Size() != "" {
			part += ", " + line.Size()
		}
		if mods := line.Modifiers(); len(mods) > 0 {
			part += ", " + strings.Join(mods, ", ")
		}
		if line.IsCombo() {
			part += ", as a combo"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "; ")
}

func dollars(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
