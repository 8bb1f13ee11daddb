package commands

import (
	"errors"

	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/pkg/guard"
)

var (
	ErrRunTurnCommandIsNotConstructed = errors.New(
		"RunTurnCommand must be created via NewRunTurnCommand constructor",
	)
	ErrTurnKeyIsRequired   = errors.New("turn key is required")
	ErrTurnInputIsRequired = errors.New("either an utterance or audio is required")
)

// RunTurnCommand represents one customer turn: a chunk of lane audio or an
// already-transcribed utterance, plus the retry-stable turn key that scopes
// the idempotency keys of every command the turn produces.
type RunTurnCommand struct { //nolint:recvcheck //using for validation
	sessionID kernel.UUID
	turnKey   string
	utterance string
	audio     []byte

	guard guard.ConstructorGuard
}

// NewRunTurnCommand creates a command to process one turn. Exactly one of
// utterance and audio must be supplied; a retried delivery must carry the
// same turn key as the original.
func NewRunTurnCommand(sessionID kernel.UUID, turnKey, utterance string, audio []byte) (RunTurnCommand, error) {
	turnCommand := RunTurnCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		turnCommand.setSessionID(sessionID),
		turnCommand.setTurnKey(turnKey),
		turnCommand.setInput(utterance, audio),
	); err != nil {
		return RunTurnCommand{}, err
	}

	return turnCommand, nil
}

// Validate ensures the command was created through the constructor.
func (c RunTurnCommand) Validate() error {
	return c.guard.Validate(ErrRunTurnCommandIsNotConstructed)
}

// SessionID returns the session this turn belongs to.
func (c RunTurnCommand) SessionID() kernel.UUID {
	return c.sessionID
}

// TurnKey returns the retry-stable identifier of the turn.
func (c RunTurnCommand) TurnKey() string {
	return c.turnKey
}

// Utterance returns the pre-transcribed text, empty when audio was supplied.
func (c RunTurnCommand) Utterance() string {
	return c.utterance
}

// Audio returns the raw lane audio, nil when text was supplied.
func (c RunTurnCommand) Audio() []byte {
	return c.audio
}

func (c *RunTurnCommand) setSessionID(sessionID kernel.UUID) error {
	if err := sessionID.Validate(); err != nil {
		return err
	}

	c.sessionID = sessionID
	return nil
}

func (c *RunTurnCommand) setTurnKey(turnKey string) error {
	if turnKey == "" {
		return ErrTurnKeyIsRequired
	}

	c.turnKey = turnKey
	return nil
}

func (c *RunTurnCommand) setInput(utterance string, audio []byte) error {
	if utterance == "" && len(audio) == 0 {
		return ErrTurnInputIsRequired
	}

	c.utterance = utterance
	c.audio = audio
	return nil
}
