package commands

import (
	"context"
	"log/slog"
	"time"

	"drivethru/internal/core/domain/model/session"
	"drivethru/internal/turn"
)

// ExpireIdleSessionsCommandHandler releases every session whose idle
// deadline has passed. Run periodically by the job scheduler.
type ExpireIdleSessionsCommandHandler struct {
	uowFactory SessionUoWFactory
	turns      *turn.Registry
	logger     *slog.Logger
}

// NewExpireIdleSessionsCommandHandler creates a handler for the idle sweep.
func NewExpireIdleSessionsCommandHandler(
	uowFactory SessionUoWFactory,
	turns *turn.Registry,
	logger *slog.Logger,
) ExpireIdleSessionsCommandHandler {
	return ExpireIdleSessionsCommandHandler{
		uowFactory: uowFactory,
		turns:      turns,
		logger:     logger.With("component", "expire_idle_sessions"),
	}
}

// Handle releases all expired sessions in one transaction.
func (h *ExpireIdleSessionsCommandHandler) Handle(ctx context.Context, cmd ExpireIdleSessionsCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	now := time.Now()

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	sessionRepo := uow.SessionRepository()
	expired, err := sessionRepo.GetAllExpired(ctx, now)
	if err != nil {
		return err
	}

	for _, sess := range expired {
		if _, err = sess.ApplyEvent(session.EventIdleTimeout, session.Guards{}); err != nil {
			return err
		}
		sess.RecordTurn(now)
		if err = sessionRepo.Update(ctx, sess); err != nil {
			return err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	for _, sess := range expired {
		h.turns.Forget(sess.ID().String())
	}
	if len(expired) > 0 {
		h.logger.Info("released idle sessions", "count", len(expired))
	}
	return nil
}
