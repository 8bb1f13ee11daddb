package commands

import (
	"errors"

	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/pkg/guard"
)

var ErrEndSessionCommandIsNotConstructed = errors.New(
	"EndSessionCommand must be created via NewEndSessionCommand constructor",
)

// EndSessionCommand represents the car leaving the lane: the session is
// released and its resources freed regardless of conversation state.
type EndSessionCommand struct { //nolint:recvcheck //using for validation
	sessionID kernel.UUID

	guard guard.ConstructorGuard
}

// NewEndSessionCommand creates a command to release a lane session.
func NewEndSessionCommand(sessionID kernel.UUID) (EndSessionCommand, error) {
	sessionCommand := EndSessionCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := sessionCommand.setSessionID(sessionID); err != nil {
		return EndSessionCommand{}, err
	}

	return sessionCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c EndSessionCommand) Validate() error {
	return c.guard.Validate(ErrEndSessionCommandIsNotConstructed)
}

// SessionID returns the session to release.
func (c EndSessionCommand) SessionID() kernel.UUID {
	return c.sessionID
}

func (c *EndSessionCommand) setSessionID(sessionID kernel.UUID) error {
	if err := sessionID.Validate(); err != nil {
		return err
	}

	c.sessionID = sessionID
	return nil
}
