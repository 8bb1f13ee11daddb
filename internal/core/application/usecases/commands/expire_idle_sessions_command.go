package commands

import (
	"errors"

	"drivethru/internal/pkg/guard"
)

var ErrExpireIdleSessionsCommandIsNotConstructed = errors.New(
	"ExpireIdleSessionsCommand must be created via NewExpireIdleSessionsCommand constructor",
)

// ExpireIdleSessionsCommand represents the periodic sweep that releases
// sessions whose idle deadline has passed.
type ExpireIdleSessionsCommand struct { //nolint:recvcheck //using for validation
	guard guard.ConstructorGuard
}

// NewExpireIdleSessionsCommand creates the sweep command.
func NewExpireIdleSessionsCommand() (ExpireIdleSessionsCommand, error) {
	return ExpireIdleSessionsCommand{
		guard: guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c ExpireIdleSessionsCommand) Validate() error {
	return c.guard.Validate(ErrExpireIdleSessionsCommandIsNotConstructed)
}
