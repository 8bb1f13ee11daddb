package commands

import (
	"context"
	"errors"
	"time"

	"drivethru/internal/config"
	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/core/domain/model/order"
	"drivethru/internal/core/domain/model/session"
	"drivethru/internal/responder"
)

// ErrLaneIsBusy is returned when a session is opened on a lane that already
// has an active conversation. The caller must end the previous session first.
var ErrLaneIsBusy = errors.New("lane already has an active session")

// StartSessionResult is returned to the caller after a session opens.
type StartSessionResult struct {
	SessionID string
	OrderID   string
	State     string
	Greeting  string
}

// StartSessionCommandHandler opens a conversation session for an occupied
// lane: it creates an empty order, creates the session, and greets the
// customer.
type StartSessionCommandHandler struct {
	uowFactory TurnUoWFactory
	policies   *config.PolicyFile
	responder  *responder.Responder
}

// NewStartSessionCommandHandler creates a handler for session creation.
func NewStartSessionCommandHandler(
	uowFactory TurnUoWFactory,
	policies *config.PolicyFile,
	phrases *responder.Responder,
) StartSessionCommandHandler {
	return StartSessionCommandHandler{
		uowFactory: uowFactory,
		policies:   policies,
		responder:  phrases,
	}
}

// Handle processes the session creation command. Exactly one session may be
// active per lane; opening a second one fails with ErrLaneIsBusy.
func (h *StartSessionCommandHandler) Handle(ctx context.Context, cmd StartSessionCommand) (StartSessionResult, error) {
	if err := cmd.Validate(); err != nil {
		return StartSessionResult{}, err
	}

	policy := h.policies.For(cmd.RestaurantID())
	now := time.Now()

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return StartSessionResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	sessionRepo := uow.SessionRepository()
	existing, err := sessionRepo.GetActiveByLane(ctx, cmd.RestaurantID(), cmd.LaneID())
	if err != nil {
		return StartSessionResult{}, err
	}
	if existing != nil {
		return StartSessionResult{}, ErrLaneIsBusy
	}

	newOrder, err := order.NewOrder(kernel.NewUUID(), policy.Limits())
	if err != nil {
		return StartSessionResult{}, err
	}

	newSession, err := session.NewSession(
		cmd.SessionID(), cmd.RestaurantID(), cmd.LaneID(),
		newOrder.ID(), now, policy.IdleTimeout())
	if err != nil {
		return StartSessionResult{}, err
	}

	action, err := newSession.ApplyEvent(session.EventCarArrived, session.Guards{})
	if err != nil {
		return StartSessionResult{}, err
	}

	if err = uow.OrderRepository().Add(ctx, newOrder); err != nil {
		return StartSessionResult{}, err
	}
	if err = sessionRepo.Add(ctx, newSession); err != nil {
		return StartSessionResult{}, err
	}
	if err = uow.Commit(ctx); err != nil {
		return StartSessionResult{}, err
	}

	greeting := h.responder.Reply(responder.Request{Action: action})
	return StartSessionResult{
		SessionID: newSession.ID().String(),
		OrderID:   newOrder.ID().String(),
		State:     newSession.State().String(),
		Greeting:  greeting,
	}, nil
}
