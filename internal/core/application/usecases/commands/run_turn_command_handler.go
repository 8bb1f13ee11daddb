package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"drivethru/internal/config"
	"drivethru/internal/core/domain/model/audit"
	"drivethru/internal/core/domain/model/command"
	"drivethru/internal/core/domain/model/order"
	"drivethru/internal/core/domain/model/session"
	"drivethru/internal/core/domain/services"
	"drivethru/internal/core/ports"
	"drivethru/internal/responder"
	"drivethru/internal/turn"
)

// RunTurnResult is everything one turn produced: the new conversation state,
// the spoken reply, and the ledger changes.
type RunTurnResult struct {
	SessionID   string
	State       string
	Action      string
	Outcome     string
	Reply       string
	ReplyAudio  []byte
	Diffs       []order.Diff
	Totals      order.Totals
	Finalized   bool
	SessionOver bool
}

// RunTurnDependencies bundles the collaborators of the turn handler.
type RunTurnDependencies struct {
	Turns       *turn.Registry
	Transcriber ports.Transcriber
	Proposer    ports.IntentProposer
	Menu        ports.MenuCatalog
	Synthesizer ports.SpeechSynthesizer
	Kitchen     ports.KitchenNotifier
	Policies    *config.PolicyFile
	Phrases     *responder.Responder
	Logger      *slog.Logger
}

// RunTurnCommandHandler orchestrates one conversation turn end to end:
// transcribe, propose, apply the command batch, advance the state machine,
// persist atomically, then speak.
//
// Ordering guarantees:
//   - turns of one session are processed strictly one at a time
//   - the turn's session, order, and audit writes share one transaction;
//     the reply is synthesized only after that transaction committed
//   - a barge-in (a new utterance arriving mid-reply) cancels only the
//     synthesis of the previous turn, never its state or persistence
type RunTurnCommandHandler struct {
	uowFactory TurnUoWFactory
	deps       RunTurnDependencies
	logger     *slog.Logger
}

// NewRunTurnCommandHandler creates the turn orchestrator.
func NewRunTurnCommandHandler(uowFactory TurnUoWFactory, deps RunTurnDependencies) RunTurnCommandHandler {
	return RunTurnCommandHandler{
		uowFactory: uowFactory,
		deps:       deps,
		logger:     deps.Logger.With("component", "run_turn"),
	}
}

// Handle processes one turn. Retried deliveries with the same turn key replay
// the stored outcome of every command instead of applying it again.
func (h *RunTurnCommandHandler) Handle(ctx context.Context, cmd RunTurnCommand) (RunTurnResult, error) {
	if err := cmd.Validate(); err != nil {
		return RunTurnResult{}, err
	}

	sessionKey := cmd.SessionID().String()
	// A fresh utterance interrupts whatever reply is still being spoken.
	h.deps.Turns.BargeIn(sessionKey)
	release := h.deps.Turns.Acquire(sessionKey)
	defer release()

	now := time.Now()

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return RunTurnResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	sess, err := uow.SessionRepository().Get(ctx, cmd.SessionID())
	if err != nil {
		return RunTurnResult{}, err
	}
	if sess.IsOver() {
		return RunTurnResult{}, session.ErrSessionIsOver
	}
	policy := h.deps.Policies.For(sess.RestaurantID())

	ord, err := uow.OrderRepository().Get(ctx, sess.OrderID())
	if err != nil {
		return RunTurnResult{}, err
	}
	auditLog, err := uow.AuditRepository().GetLog(ctx, ord.ID())
	if err != nil {
		return RunTurnResult{}, err
	}

	transcript, silence, err := h.transcribe(ctx, cmd)
	if err != nil {
		return RunTurnResult{}, err
	}

	event := session.EventSilence
	guards := session.Guards{}
	var batch services.BatchResult
	var failedItem string
	orderChanged := false

	if !silence {
		event, batch, failedItem, orderChanged, err = h.interpret(
			ctx, cmd, sess, ord, auditLog, transcript, policy, now, &guards)
		if err != nil {
			return RunTurnResult{}, err
		}
		if batch.Order != nil {
			ord = batch.Order
		}
	}
	guards.HasOrder = !ord.IsEmpty()

	action, err := sess.ApplyEvent(event, guards)
	if errors.Is(err, session.ErrNoTransition) {
		h.logger.Warn("unexpected event for state",
			"session_id", sessionKey, "state", sess.State().String(), "event", event.String())
		action = session.ActionNone
	} else if err != nil {
		return RunTurnResult{}, err
	}

	finalized := false
	var totals order.Totals
	if action == session.ActionFinalize {
		totals = ord.Freeze(policy.TaxBasisPoints)
		finalized = true
		orderChanged = true
	} else {
		totals = ord.Totals(policy.TaxBasisPoints)
	}

	sess.RecordTurn(now)

	if orderChanged {
		if err = uow.OrderRepository().Update(ctx, ord); err != nil {
			return RunTurnResult{}, err
		}
	}
	if appended := auditLog.Appended(); len(appended) > 0 {
		if err = uow.AuditRepository().AppendEntries(ctx, appended); err != nil {
			return RunTurnResult{}, err
		}
	}
	if err = uow.SessionRepository().Update(ctx, sess); err != nil {
		return RunTurnResult{}, err
	}
	if err = uow.Commit(ctx); err != nil {
		return RunTurnResult{}, err
	}

	if finalized {
		h.handOff(ctx, sess, ord, totals, now)
	}
	if sess.IsOver() {
		h.deps.Turns.Forget(sessionKey)
	}

	reply := h.deps.Phrases.Reply(responder.Request{
		Action:        action,
		Turn:          sess.TurnCounter(),
		Order:         ord,
		Totals:        totals,
		FailedItem:    failedItem,
		RejectedCount: rejectedCount(batch),
	})
	audio := h.speak(ctx, sessionKey, reply)

	outcome := ""
	if len(batch.Results) > 0 {
		outcome = batch.Outcome.String()
	}

	return RunTurnResult{
		SessionID:   sessionKey,
		State:       sess.State().String(),
		Action:      action.String(),
		Outcome:     outcome,
		Reply:       reply,
		ReplyAudio:  audio,
		Diffs:       appliedDiffs(batch),
		Totals:      totals,
		Finalized:   finalized,
		SessionOver: sess.IsOver(),
	}, nil
}

// transcribe resolves the turn's text. A no-speech frame is silence, not an
// error: the state machine handles it with a nudge.
func (h *RunTurnCommandHandler) transcribe(ctx context.Context, cmd RunTurnCommand) (ports.Transcript, bool, error) {
	if cmd.Utterance() != "" {
		return ports.Transcript{Text: cmd.Utterance(), Confidence: 1}, false, nil
	}
	transcript, err := h.deps.Transcriber.Transcribe(ctx, cmd.Audio())
	if errors.Is(err, ports.ErrNoSpeechDetected) {
		return ports.Transcript{}, true, nil
	}
	if err != nil {
		return ports.Transcript{}, false, err
	}
	return transcript, false, nil
}

// interpret maps the utterance to a state-machine event, running the command
// pipeline when the proposal carries order mutations.
func (h *RunTurnCommandHandler) interpret(
	ctx context.Context,
	cmd RunTurnCommand,
	sess *session.Session,
	ord *order.Order,
	auditLog *audit.Log,
	transcript ports.Transcript,
	policy config.Policy,
	now time.Time,
	guards *session.Guards,
) (session.Event, services.BatchResult, string, bool, error) {
	var batch services.BatchResult

	if transcript.Confidence < policy.MinConfidence {
		guards.LowConfidence = true
		return session.EventUtteranceUnclear, batch, "", false, nil
	}

	proposal, err := h.deps.Proposer.Propose(ctx, ports.ProposeRequest{
		TurnKey:      cmd.TurnKey(),
		RestaurantID: sess.RestaurantID(),
		Utterance:    transcript.Text,
		State:        sess.State(),
		Order:        ord,
	})
	if err != nil {
		// An unreachable proposer degrades to a clarification, not a failed
		// turn: the customer hears a canned retry prompt.
		h.logger.Warn("intent proposer unavailable",
			"session_id", sess.ID().String(), "error", err)
		guards.LowConfidence = true
		return session.EventUtteranceUnclear, batch, "", false, nil
	}
	if proposal.Confidence < policy.MinConfidence {
		guards.LowConfidence = true
		return session.EventUtteranceUnclear, batch, "", false, nil
	}

	event, runBatch := mapIntent(proposal.Intent, sess.State())
	if !runBatch || len(proposal.Commands) == 0 {
		return event, batch, "", false, nil
	}

	// Each proposed command carries its own confidence. A doubtful command is
	// never applied; the conversation asks about it while its confident
	// siblings go through.
	confident := make([]command.Command, 0, len(proposal.Commands))
	doubtful := false
	for _, proposed := range proposal.Commands {
		if proposed.Confidence() < policy.MinConfidence {
			doubtful = true
			continue
		}
		confident = append(confident, proposed)
	}
	if doubtful {
		guards.LowConfidence = true
	}
	if len(confident) == 0 {
		return session.EventUtteranceUnclear, batch, "", false, nil
	}

	catalog, err := h.deps.Menu.Snapshot(ctx, sess.RestaurantID())
	if err != nil {
		return session.EventUnknown, batch, "", false, err
	}
	pipeline, err := services.NewCommandPipeline(catalog, policy.TaxBasisPoints, policy.UnsafeChangeFraction)
	if err != nil {
		return session.EventUnknown, batch, "", false, err
	}

	// A late addition reopens a finalized ledger before the batch runs.
	orderChanged := false
	if event == session.EventAddMore && ord.IsFrozen() {
		ord.Unfreeze()
		orderChanged = true
	}

	batch = pipeline.ExecuteBatch(ord, auditLog, sess.Referent(), confident, now)
	if batch.Outcome == services.BatchFatal {
		return session.EventUnknown, batch, "", false, batch.FatalErr
	}
	sess.UpdateReferent(batch.Referent)
	guards.UnsafeChange = batch.UnsafeChange
	orderChanged = orderChanged || batchMutated(batch)

	if event == session.EventUtteranceOK {
		event = eventFromBatch(batch)
		switch {
		case doubtful && event == session.EventUtteranceOK:
			// The confident part applied, the doubtful part still needs its
			// question.
			event = session.EventUtteranceUnclear
		case event == session.EventUtteranceOK && sess.State() == session.Clarifying:
			// A clean batch while Clarifying is the answer to the pending
			// question.
			event = session.EventClarified
		}
	}

	return event, batch, h.failedItemName(catalog, batch), orderChanged, nil
}

// handOff publishes the kitchen ticket after the finalizing turn committed.
// A failed publish is logged and retried out of band, never rolled back into
// the conversation.
func (h *RunTurnCommandHandler) handOff(
	ctx context.Context,
	sess *session.Session,
	ord *order.Order,
	totals order.Totals,
	now time.Time,
) {
	ticket := ports.KitchenTicket{
		OrderID:      ord.ID().String(),
		SessionID:    sess.ID().String(),
		RestaurantID: sess.RestaurantID(),
		LaneID:       sess.LaneID(),
		Totals: ports.KitchenTotals{
			SubtotalCents: totals.Subtotal,
			TaxCents:      totals.Tax,
			TotalCents:    totals.Total,
		},
		FinalizedAt: now,
	}
	for _, line := range ord.Lines() {
		ticket.Lines = append(ticket.Lines, ports.KitchenLine{
			Name:      line.Name(),
			Quantity:  line.Quantity(),
			Size:      line.Size(),
			Modifiers: line.Modifiers(),
			Combo:     line.IsCombo(),
		})
	}

	if err := h.deps.Kitchen.PublishTicket(ctx, ticket); err != nil {
		h.logger.Error("kitchen handoff failed",
			"order_id", ticket.OrderID, "error", err)
	}
}

// speak synthesizes the reply under a cancellable context so a barge-in can
// cut it short. A cancelled or failed synthesis yields a text-only reply.
func (h *RunTurnCommandHandler) speak(ctx context.Context, sessionKey, reply string) []byte {
	synthCtx, done := h.deps.Turns.BeginSynthesis(ctx, sessionKey)
	defer done()

	audio, err := h.deps.Synthesizer.Synthesize(synthCtx, reply)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		h.logger.Warn("speech synthesis failed", "session_id", sessionKey, "error", err)
		return nil
	}
	return audio
}

func (h *RunTurnCommandHandler) failedItemName(catalog services.Catalog, batch services.BatchResult) string {
	for _, result := range batch.Results {
		if result.Applied() || result.Entry.Category() != order.CategoryItemUnavailable.String() {
			continue
		}
		if info, ok := catalog.Lookup(result.Command.Payload().MenuItemID); ok {
			return info.Name
		}
	}
	return ""
}

// mapIntent translates the proposer's intent into a state-machine event and
// reports whether the turn carries a command batch to run.
func mapIntent(intent ports.Intent, state session.State) (session.Event, bool) {
	switch intent {
	case ports.IntentOrder:
		if state == session.Closing {
			return session.EventAddMore, true
		}
		return session.EventUtteranceOK, true
	case ports.IntentDone:
		if state == session.Closing {
			// "That's everything, thanks" at the window acknowledges the
			// handoff and frees the lane.
			return session.EventFinalizeAck, false
		}
		return session.EventUserDone, false
	case ports.IntentNeedTime:
		return session.EventUserNeedsTime, false
	case ports.IntentNeverMind:
		return session.EventNeverMind, false
	case ports.IntentConfirm:
		if state == session.Closing {
			return session.EventFinalizeAck, false
		}
		return session.EventUserConfirms, false
	case ports.IntentWantsChanges:
		return session.EventUserWantsChanges, true
	case ports.IntentNotRight:
		return session.EventNotRight, false
	case ports.IntentMenuQuestion:
		return session.EventMenuQuestion, false
	case ports.IntentResume:
		return session.EventUserResumes, false
	case ports.IntentUnknown, ports.IntentUnclear:
	}
	return session.EventUtteranceUnclear, false
}

// eventFromBatch refines a plain ordering event with the batch outcome: any
// batch that left a rejection behind asks about it instead of moving on, so
// a partially applied batch still gets its one targeted question.
func eventFromBatch(batch services.BatchResult) session.Event {
	if batch.FollowUp() != services.FollowUpAsk {
		return session.EventUtteranceOK
	}
	for _, result := range batch.Results {
		if !result.Applied() && result.Entry.Category() == order.CategoryItemUnavailable.String() {
			return session.EventItemUnavailable
		}
	}
	return session.EventUtteranceUnclear
}

// batchMutated reports whether the batch applied at least one command for the
// first time; replays and rejections leave the ledger as it was.
func batchMutated(batch services.BatchResult) bool {
	for _, result := range batch.Results {
		if result.Applied() && !result.Replayed {
			return true
		}
	}
	return false
}

func rejectedCount(batch services.BatchResult) int {
	count := 0
	for _, result := range batch.Results {
		if !result.Applied() {
			count++
		}
	}
	return count
}

func appliedDiffs(batch services.BatchResult) []order.Diff {
	var diffs []order.Diff
	for _, result := range batch.Results {
		if diff := result.Entry.Diff(); diff != nil {
			diffs = append(diffs, *diff)
		}
	}
	return diffs
}
