package commands

import (
	"errors"

	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/pkg/guard"
)

var (
	ErrStartSessionCommandIsNotConstructed = errors.New(
		"StartSessionCommand must be created via NewStartSessionCommand constructor",
	)
	ErrRestaurantIDIsRequired = errors.New("restaurant id is required")
	ErrLaneIDIsRequired       = errors.New("lane id is required")
)

// StartSessionCommand represents a car arriving at a lane: it opens a new
// conversation session with an empty order attached.
type StartSessionCommand struct { //nolint:recvcheck //using for validation
	sessionID    kernel.UUID
	restaurantID string
	laneID       string

	guard guard.ConstructorGuard
}

// NewStartSessionCommand creates a command to open a lane session.
// Validates that the session ID is valid and both restaurant and lane are set.
func NewStartSessionCommand(sessionID kernel.UUID, restaurantID, laneID string) (StartSessionCommand, error) {
	sessionCommand := StartSessionCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		sessionCommand.setSessionID(sessionID),
		sessionCommand.setRestaurantID(restaurantID),
		sessionCommand.setLaneID(laneID),
	); err != nil {
		return StartSessionCommand{}, err
	}

	return sessionCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c StartSessionCommand) Validate() error {
	return c.guard.Validate(ErrStartSessionCommandIsNotConstructed)
}

// SessionID returns the identifier for the new session.
func (c StartSessionCommand) SessionID() kernel.UUID {
	return c.sessionID
}

// RestaurantID returns the restaurant whose lane was occupied.
func (c StartSessionCommand) RestaurantID() string {
	return c.restaurantID
}

// LaneID returns the occupied lane.
func (c StartSessionCommand) LaneID() string {
	return c.laneID
}

func (c *StartSessionCommand) setSessionID(sessionID kernel.UUID) error {
	if err := sessionID.Validate(); err != nil {
		return err
	}

	c.sessionID = sessionID
	return nil
}

func (c *StartSessionCommand) setRestaurantID(restaurantID string) error {
	if restaurantID == "" {
		return ErrRestaurantIDIsRequired
	}

	c.restaurantID = restaurantID
	return nil
}

func (c *StartSessionCommand) setLaneID(laneID string) error {
	if laneID == "" {
		return ErrLaneIDIsRequired
	}

	c.laneID = laneID
	return nil
}
