package commands

import (
	"context"
	"time"

	"drivethru/internal/core/domain/model/session"
	"drivethru/internal/turn"
)

// EndSessionCommandHandler releases a lane session when the car leaves.
// Ending is forceful: it applies from any conversation state and cancels any
// reply still being spoken.
type EndSessionCommandHandler struct {
	uowFactory SessionUoWFactory
	turns      *turn.Registry
}

// NewEndSessionCommandHandler creates a handler for session teardown.
func NewEndSessionCommandHandler(uowFactory SessionUoWFactory, turns *turn.Registry) EndSessionCommandHandler {
	return EndSessionCommandHandler{
		uowFactory: uowFactory,
		turns:      turns,
	}
}

// Handle processes the session release command.
func (h *EndSessionCommandHandler) Handle(ctx context.Context, cmd EndSessionCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	sessionKey := cmd.SessionID().String()
	h.turns.BargeIn(sessionKey)

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	sessionRepo := uow.SessionRepository()
	sess, err := sessionRepo.Get(ctx, cmd.SessionID())
	if err != nil {
		return err
	}

	if !sess.IsOver() {
		if _, err = sess.ApplyEvent(session.EventLaneClear, session.Guards{}); err != nil {
			return err
		}
		// Teardown counts as a turn so the released session reads as over,
		// not as a fresh idle lane.
		sess.RecordTurn(time.Now())
		if err = sessionRepo.Update(ctx, sess); err != nil {
			return err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.turns.Forget(sessionKey)
	return nil
}
