package command

import (
	"errors"
	"fmt"
	"slices"

	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/pkg/errs"
	"drivethru/internal/pkg/guard"
)

var (
	// ErrCommandIsNotConstructed is returned when a Command was not created
	// via NewCommand.
	ErrCommandIsNotConstructed = errors.New("Command must be created via NewCommand constructor")

	// ErrTargetIsRequired is returned when a command type that mutates an
	// existing line arrives without a target reference.
	ErrTargetIsRequired = errors.New("command target is required")
)

// Type enumerates the mutation kinds the proposer may suggest.
type Type int

const (
	// TypeUnknown is the zero value and fails validation.
	TypeUnknown Type = iota
	// TypeAdd appends a new line for a menu item.
	TypeAdd
	// TypeRemove deletes the targeted line.
	TypeRemove
	// TypeChange partially updates the targeted line (size, modifiers, quantity).
	TypeChange
	// TypeSetQuantity replaces the targeted line's quantity; 0 removes it.
	TypeSetQuantity
	// TypeSetCombo upgrades or downgrades the targeted line's combo status.
	TypeSetCombo
)

func getTypeStrings() map[Type]string {
	return map[Type]string{
		TypeUnknown:     "UNKNOWN",
		TypeAdd:         "ADD",
		TypeRemove:      "REMOVE",
		TypeChange:      "CHANGE",
		TypeSetQuantity: "SET_QTY",
		TypeSetCombo:    "SET_COMBO",
	}
}

// String returns the wire name of the type, e.g. "ADD".
func (t Type) String() string {
	if s, ok := getTypeStrings()[t]; ok {
		return s
	}
	return "UNKNOWN"
}

// Validate rejects the zero value and unknown numeric types.
func (t Type) Validate() error {
	if t == TypeUnknown {
		return errs.NewValueIsInvalidErrorWithCause("command type",
			fmt.Errorf("%d is not a known command type", t))
	}
	if _, ok := getTypeStrings()[t]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("command type",
			fmt.Errorf("%d is not a known command type", t))
	}
	return nil
}

// TypeFromString parses a wire-format type name.
func TypeFromString(s string) (Type, error) {
	for t, name := range getTypeStrings() {
		if name == s && t != TypeUnknown {
			return t, nil
		}
	}
	return TypeUnknown, errs.NewValueIsInvalidErrorWithCause("command type",
		fmt.Errorf("%q is not a known command type", s))
}

// TargetRef points a command at an order line: an explicit line id, a 1-based
// ledger position, or "last" (the session's referent). Resolution precedence
// is line id over position over last.
type TargetRef struct {
	lineID   *kernel.UUID
	position int
	last     bool
}

// TargetLine references a line by its stable identifier.
func TargetLine(lineID kernel.UUID) (TargetRef, error) {
	if err := lineID.Validate(); err != nil {
		return TargetRef{}, err
	}
	return TargetRef{lineID: &lineID}, nil
}

// TargetPosition references a line by 1-based ledger position.
func TargetPosition(position int) (TargetRef, error) {
	if position < 1 {
		return TargetRef{}, errs.NewValueIsInvalidErrorWithCause("target position",
			fmt.Errorf("%d is not at least 1", position))
	}
	return TargetRef{position: position}, nil
}

// TargetLast references the session's most recently touched line ("that one").
func TargetLast() TargetRef {
	return TargetRef{last: true}
}

// LineID returns the explicit line id, if any.
func (r TargetRef) LineID() *kernel.UUID {
	if r.lineID == nil {
		return nil
	}
	id := *r.lineID
	return &id
}

// Position returns the 1-based position, 0 when unset.
func (r TargetRef) Position() int {
	return r.position
}

// IsLast reports whether the reference is the session referent.
func (r TargetRef) IsLast() bool {
	return r.last
}

// IsZero reports whether no target was supplied at all.
func (r TargetRef) IsZero() bool {
	return r.lineID == nil && r.position == 0 && !r.last
}

// Payload carries the item data for a command. Which fields matter depends on
// the command type; unused fields are ignored by the pipeline.
type Payload struct {
	MenuItemID string
	Quantity   int
	Size       string
	Modifiers  []string
	Combo      bool
}

// Command is one proposed mutation of the order, including the proposer's
// confidence and the idempotency key that is stable across retries of the
// same utterance. Commands are immutable once constructed.
type Command struct { //nolint:recvcheck //using for validation
	commandType    Type
	target         TargetRef
	payload        Payload
	confidence     float64
	idempotencyKey string

	guard guard.ConstructorGuard
}

// NewCommand validates and creates a proposed command.
//
// Validation rules:
//   - the type must be known
//   - the idempotency key is required
//   - confidence must lie in [0, 1]
//   - ADD requires a menu item id and a quantity of at least 1
//   - REMOVE, CHANGE, SET_QTY, and SET_COMBO require a target reference
//   - SET_QTY requires a non-negative quantity (0 meaning removal)
func NewCommand(
	commandType Type,
	target TargetRef,
	payload Payload,
	confidence float64,
	idempotencyKey string,
) (Command, error) {
	cmd := Command{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setType(commandType),
		cmd.setTarget(commandType, target),
		cmd.setPayload(commandType, payload),
		cmd.setConfidence(confidence),
		cmd.setIdempotencyKey(idempotencyKey),
	); err != nil {
		return Command{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c Command) Validate() error {
	return c.guard.Validate(ErrCommandIsNotConstructed)
}

// Type returns the mutation kind.
func (c Command) Type() Type {
	return c.commandType
}

// Target returns the line reference; zero for ADD commands.
func (c Command) Target() TargetRef {
	return c.target
}

// Payload returns the proposed item data.
func (c Command) Payload() Payload {
	p := c.payload
	p.Modifiers = slices.Clone(c.payload.Modifiers)
	return p
}

// Confidence returns the proposer's confidence in [0, 1].
func (c Command) Confidence() float64 {
	return c.confidence
}

// IdempotencyKey returns the retry-stable identifier of this proposed action.
func (c Command) IdempotencyKey() string {
	return c.idempotencyKey
}

func (c *Command) setType(commandType Type) error {
	if err := commandType.Validate(); err != nil {
		return err
	}
	c.commandType = commandType
	return nil
}

func (c *Command) setTarget(commandType Type, target TargetRef) error {
	switch commandType {
	case TypeRemove, TypeChange, TypeSetQuantity, TypeSetCombo:
		if target.IsZero() {
			return ErrTargetIsRequired
		}
	case TypeUnknown, TypeAdd:
		// ADD creates a new line; no target needed.
	}
	c.target = target
	return nil
}

func (c *Command) setPayload(commandType Type, payload Payload) error {
	switch commandType {
	case TypeAdd:
		if payload.MenuItemID == "" {
			return errs.NewValueIsRequiredError("menu item id")
		}
		if payload.Quantity < 1 {
			return errs.NewValueIsInvalidErrorWithCause("quantity",
				fmt.Errorf("%d is not at least 1", payload.Quantity))
		}
	case TypeSetQuantity:
		if payload.Quantity < 0 {
			return errs.NewValueIsInvalidErrorWithCause("quantity",
				fmt.Errorf("%d is negative", payload.Quantity))
		}
	case TypeUnknown, TypeRemove, TypeChange, TypeSetCombo:
	}
	payload.Modifiers = slices.Clone(payload.Modifiers)
	c.payload = payload
	return nil
}

func (c *Command) setConfidence(confidence float64) error {
	if confidence < 0 || confidence > 1 {
		return errs.NewValueIsOutOfRangeError("confidence", confidence, 0.0, 1.0)
	}
	c.confidence = confidence
	return nil
}

func (c *Command) setIdempotencyKey(idempotencyKey string) error {
	if idempotencyKey == "" {
		return errs.NewValueIsRequiredError("idempotency key")
	}
	c.idempotencyKey = idempotencyKey
	return nil
}
