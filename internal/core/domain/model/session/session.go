package session

import (
	"errors"
	"time"

	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/pkg/errs"
)

// maxClarifyAttempts bounds how often the same unresolved ambiguity may keep
// the conversation in Clarifying before it is downgraded to Thinking.
const maxClarifyAttempts = 2

var (
	// ErrSessionIsNotConstructed is returned when a Session was not created
	// via NewSession or RestoreSession.
	ErrSessionIsNotConstructed = errors.New("Session must be created via NewSession or RestoreSession")

	// ErrSessionIsOver is returned when a turn reaches a session that already
	// returned to Idle and is awaiting teardown.
	ErrSessionIsOver = errors.New("session is idle and awaiting teardown")
)

// Session is the aggregate root for one lane's active conversation. It owns
// the conversation state, the referent (the most recently discussed line,
// resolving "that one"), the turn counter, and the idle deadline.
//
// Sessions are mutated only through state-machine transitions; the session
// manager is their single writer, so no internal locking is needed.
type Session struct {
	id           kernel.UUID
	restaurantID string
	laneID       string
	orderID      kernel.UUID

	state           State
	turnCounter     int
	referent        *kernel.UUID
	clarifyAttempts int

	createdAt      time.Time
	lastActivityAt time.Time
	idleDeadline   time.Time
	idleTimeout    time.Duration

	isConstructed bool
}

// NewSession creates a session for a freshly occupied lane. The conversation
// starts in Idle; the first turn raises EventCarArrived to enter Ordering.
func NewSession(
	id kernel.UUID,
	restaurantID, laneID string,
	orderID kernel.UUID,
	now time.Time,
	idleTimeout time.Duration,
) (*Session, error) {
	s := &Session{
		state:         Idle,
		isConstructed: true,
	}

	if err := errors.Join(
		s.setID(id),
		s.setLane(restaurantID, laneID),
		s.setOrderID(orderID),
		s.setIdleTimeout(idleTimeout),
	); err != nil {
		return nil, err
	}

	s.createdAt = now
	s.lastActivityAt = now
	s.idleDeadline = now.Add(idleTimeout)
	return s, nil
}

// RestoreSession reconstructs a session from persistence.
func RestoreSession(
	id kernel.UUID,
	restaurantID, laneID string,
	orderID kernel.UUID,
	state State,
	turnCounter int,
	referent *kernel.UUID,
	clarifyAttempts int,
	createdAt, lastActivityAt time.Time,
	idleTimeout time.Duration,
) (*Session, error) {
	s, err := NewSession(id, restaurantID, laneID, orderID, createdAt, idleTimeout)
	if err != nil {
		return nil, err
	}
	if stateErr := state.Validate(); stateErr != nil {
		return nil, stateErr
	}
	if turnCounter < 0 {
		return nil, errs.NewValueIsInvalidError("turn counter")
	}
	if referent != nil {
		if refErr := referent.Validate(); refErr != nil {
			return nil, refErr
		}
		ref := *referent
		s.referent = &ref
	}

	s.state = state
	s.turnCounter = turnCounter
	s.clarifyAttempts = clarifyAttempts
	s.lastActivityAt = lastActivityAt
	s.idleDeadline = lastActivityAt.Add(idleTimeout)
	return s, nil
}

// Validate ensures the session was created through a constructor.
func (s *Session) Validate() error {
	if s == nil || !s.isConstructed {
		return ErrSessionIsNotConstructed
	}
	return nil
}

// ID returns the session identifier.
func (s *Session) ID() kernel.UUID {
	return s.id
}

// RestaurantID returns the owning restaurant.
func (s *Session) RestaurantID() string {
	return s.restaurantID
}

// LaneID returns the physical lane hosting this conversation.
func (s *Session) LaneID() string {
	return s.laneID
}

// OrderID returns the order under construction for this occupancy.
func (s *Session) OrderID() kernel.UUID {
	return s.orderID
}

// State returns the current conversation state.
func (s *Session) State() State {
	return s.state
}

// TurnCounter returns how many turns this session has processed.
func (s *Session) TurnCounter() int {
	return s.turnCounter
}

// Referent returns the most recently touched line, nil when nothing has been
// discussed yet.
func (s *Session) Referent() *kernel.UUID {
	if s.referent == nil {
		return nil
	}
	ref := *s.referent
	return &ref
}

// ClarifyAttempts returns the consecutive unresolved clarification count.
func (s *Session) ClarifyAttempts() int {
	return s.clarifyAttempts
}

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// LastActivityAt returns the time of the last processed turn.
func (s *Session) LastActivityAt() time.Time {
	return s.lastActivityAt
}

// IdleDeadline returns the instant after which the session is expired.
func (s *Session) IdleDeadline() time.Time {
	return s.idleDeadline
}

// IdleTimeout returns the configured idle duration.
func (s *Session) IdleTimeout() time.Duration {
	return s.idleTimeout
}

// IsExpired reports whether the idle deadline has passed.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.idleDeadline)
}

// ApplyEvent advances the conversation through the transition table and
// returns the follow-up action for the orchestrator.
//
// The clarification bound lives here: an unclear utterance arriving while
// already Clarifying counts as the second attempt and is escalated to
// EventStillUnclear, which downgrades the conversation to Thinking. Leaving
// Clarifying for any other state resets the attempt counter.
func (s *Session) ApplyEvent(event Event, guards Guards) (Action, error) {
	if err := s.Validate(); err != nil {
		return ActionNone, err
	}

	if s.state == Clarifying && event == EventUtteranceUnclear && s.clarifyAttempts+1 >= maxClarifyAttempts {
		event = EventStillUnclear
	}

	next, action, err := Decide(s.state, event, guards)
	if err != nil {
		return ActionNone, err
	}

	switch {
	case next == Clarifying && s.state != Clarifying:
		s.clarifyAttempts = 1
	case next == Clarifying && s.state == Clarifying:
		s.clarifyAttempts++
	case next != Clarifying:
		s.clarifyAttempts = 0
	}

	s.state = next
	return action, nil
}

// RecordTurn bumps the turn counter and pushes the idle deadline out. Called
// exactly once per committed turn.
func (s *Session) RecordTurn(now time.Time) {
	s.turnCounter++
	s.lastActivityAt = now
	s.idleDeadline = now.Add(s.idleTimeout)
}

// UpdateReferent points the session at the most recently touched line. A nil
// id clears the referent (for example after the last line was removed).
func (s *Session) UpdateReferent(lineID *kernel.UUID) {
	if lineID == nil {
		s.referent = nil
		return
	}
	ref := *lineID
	s.referent = &ref
}

// IsOver reports whether the occupancy ended and the session can be torn
// down. A session that has processed at least one turn and returned to Idle
// is over; a brand-new Idle session is simply waiting for its car.
func (s *Session) IsOver() bool {
	return s.state == Idle && s.turnCounter > 0
}

func (s *Session) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	s.id = id
	return nil
}

func (s *Session) setLane(restaurantID, laneID string) error {
	if restaurantID == "" {
		return errs.NewValueIsRequiredError("restaurant id")
	}
	if laneID == "" {
		return errs.NewValueIsRequiredError("lane id")
	}
	s.restaurantID = restaurantID
	s.laneID = laneID
	return nil
}

func (s *Session) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	s.orderID = orderID
	return nil
}

func (s *Session) setIdleTimeout(idleTimeout time.Duration) error {
	if idleTimeout <= 0 {
		return errs.NewValueIsInvalidError("idle timeout")
	}
	s.idleTimeout = idleTimeout
	return nil
}
