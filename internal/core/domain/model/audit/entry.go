package audit

import (
	"errors"
	"time"

	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/core/domain/model/order"
	"drivethru/internal/pkg/errs"
)

// Outcome classifies how a command ended.
type Outcome int

const (
	// OutcomeApplied means the command mutated the order and produced a diff.
	OutcomeApplied Outcome = iota + 1
	// OutcomeRejected means the command failed validation and the order was
	// left untouched.
	OutcomeRejected
)

// String returns the wire name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "APPLIED"
	case OutcomeRejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// OutcomeFromString parses a stored outcome name.
func OutcomeFromString(raw string) (Outcome, error) {
	switch raw {
	case "APPLIED":
		return OutcomeApplied, nil
	case "REJECTED":
		return OutcomeRejected, nil
	default:
		return 0, errs.NewValueIsInvalidError("outcome")
	}
}

// ErrEntryIsNotConstructed is returned when an Entry was not created via its
// constructors.
var ErrEntryIsNotConstructed = errors.New("Entry must be created via NewAppliedEntry, NewRejectedEntry or RestoreEntry")

// Entry is one immutable audit record for a command application attempt.
type Entry struct {
	id             kernel.UUID
	orderID        kernel.UUID
	idempotencyKey string
	commandType    string
	outcome        Outcome

	diff     *order.Diff
	category string
	message  string

	appliedAt time.Time

	isConstructed bool
}

// NewAppliedEntry records a successful command application and its diff.
func NewAppliedEntry(
	orderID kernel.UUID,
	idempotencyKey, commandType string,
	diff order.Diff,
	appliedAt time.Time,
) (Entry, error) {
	e := Entry{
		id:            kernel.NewUUID(),
		outcome:       OutcomeApplied,
		appliedAt:     appliedAt,
		isConstructed: true,
	}
	d := diff
	e.diff = &d

	if err := errors.Join(
		e.setOrderID(orderID),
		e.setKey(idempotencyKey),
		e.setCommandType(commandType),
	); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// NewRejectedEntry records a failed command with its category and message.
func NewRejectedEntry(
	orderID kernel.UUID,
	idempotencyKey, commandType string,
	category order.ErrorCategory,
	message string,
	appliedAt time.Time,
) (Entry, error) {
	e := Entry{
		id:            kernel.NewUUID(),
		outcome:       OutcomeRejected,
		category:      category.String(),
		message:       message,
		appliedAt:     appliedAt,
		isConstructed: true,
	}

	if err := errors.Join(
		e.setOrderID(orderID),
		e.setKey(idempotencyKey),
		e.setCommandType(commandType),
	); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// RestoreEntry reconstructs an entry from persistence.
func RestoreEntry(
	id, orderID kernel.UUID,
	idempotencyKey, commandType string,
	outcome Outcome,
	diff *order.Diff,
	category, message string,
	appliedAt time.Time,
) (Entry, error) {
	e := Entry{
		outcome:       outcome,
		category:      category,
		message:       message,
		appliedAt:     appliedAt,
		isConstructed: true,
	}
	if diff != nil {
		d := *diff
		e.diff = &d
	}

	if err := errors.Join(
		e.setID(id),
		e.setOrderID(orderID),
		e.setKey(idempotencyKey),
		e.setCommandType(commandType),
	); err != nil {
		return Entry{}, err
	}
	if outcome != OutcomeApplied && outcome != OutcomeRejected {
		return Entry{}, errs.NewValueIsInvalidError("outcome")
	}
	return e, nil
}

// Validate ensures the entry was created through a constructor.
func (e Entry) Validate() error {
	if !e.isConstructed {
		return ErrEntryIsNotConstructed
	}
	return nil
}

// ID returns the entry identifier.
func (e Entry) ID() kernel.UUID {
	return e.id
}

// OrderID returns the order the command targeted.
func (e Entry) OrderID() kernel.UUID {
	return e.orderID
}

// IdempotencyKey returns the per-command key this entry is looked up by.
func (e Entry) IdempotencyKey() string {
	return e.idempotencyKey
}

// CommandType returns the wire name of the applied command type.
func (e Entry) CommandType() string {
	return e.commandType
}

// Outcome returns whether the command was applied or rejected.
func (e Entry) Outcome() Outcome {
	return e.outcome
}

// Diff returns the stored diff, nil for rejected commands.
func (e Entry) Diff() *order.Diff {
	if e.diff == nil {
		return nil
	}
	d := *e.diff
	return &d
}

// Category returns the rejection category, empty for applied commands.
func (e Entry) Category() string {
	return e.category
}

// Message returns the human-readable rejection reason, empty for applied
// commands.
func (e Entry) Message() string {
	return e.message
}

// AppliedAt returns when the outcome was recorded.
func (e Entry) AppliedAt() time.Time {
	return e.appliedAt
}

func (e *Entry) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	e.id = id
	return nil
}

func (e *Entry) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	e.orderID = orderID
	return nil
}

func (e *Entry) setKey(idempotencyKey string) error {
	if idempotencyKey == "" {
		return errs.NewValueIsRequiredError("idempotency key")
	}
	e.idempotencyKey = idempotencyKey
	return nil
}

func (e *Entry) setCommandType(commandType string) error {
	if commandType == "" {
		return errs.NewValueIsRequiredError("command type")
	}
	e.commandType = commandType
	return nil
}
