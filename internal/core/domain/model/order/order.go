package order

import (
	"errors"
	"fmt"

	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not
	// created through NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder")

	// ErrOrderIsFrozen is returned when a mutation reaches an order that was
	// already finalized. Frozen orders keep their totals forever.
	ErrOrderIsFrozen = errors.New("order is frozen and cannot be mutated")
)

// Limits bounds what a single order may grow into. Values come from the
// per-restaurant conversation policy; the aggregate only enforces them.
type Limits struct {
	// MaxQuantityPerItem caps the quantity of a single line.
	MaxQuantityPerItem int
	// MaxLinesPerOrder caps how many distinct lines the ledger may hold.
	MaxLinesPerOrder int
	// MaxModifiersPerItem caps the modifier set of a single line.
	MaxModifiersPerItem int
	// MaxOrderTotalCents caps the pre-tax subtotal of the whole order.
	MaxOrderTotalCents int64
}

// DefaultLimits returns the limits the original lane configuration ships with.
func DefaultLimits() Limits {
	return Limits{
		MaxQuantityPerItem:  10,
		MaxLinesPerOrder:    20,
		MaxModifiersPerItem: 10,
		MaxOrderTotalCents:  50000,
	}
}

func (l Limits) validate() error {
	if l.MaxQuantityPerItem < 1 || l.MaxLinesPerOrder < 1 || l.MaxModifiersPerItem < 0 || l.MaxOrderTotalCents < 1 {
		return errs.NewValueIsInvalidError("order limits")
	}
	return nil
}

// Order is the aggregate root for one order under construction. It holds the
// ordered line-item ledger, a version counter incremented on every applied
// mutation, and, once closed, the frozen final totals.
//
// Every mutation either fully applies and returns a Diff, or fails leaving
// the ledger untouched. The command pipeline relies on this to isolate a
// failed command from its batch siblings.
type Order struct {
	id           kernel.UUID
	lines        []*LineItem
	version      int
	limits       Limits
	frozenTotals *Totals

	isConstructed bool
}

// LineSpec carries the resolved item data for a new line. Prices and names
// come from the menu catalog, never from the proposer.
type LineSpec struct {
	MenuItemID string
	Name       string
	Quantity   int
	Size       string
	Modifiers  []string
	UnitPrice  kernel.Money
	Combo      bool
}

// LineChange describes a partial update to an existing line. Nil fields keep
// their current values. A quantity of 0 removes the line.
type LineChange struct {
	Quantity  *int
	Size      *string
	Modifiers *[]string
	UnitPrice *kernel.Money
	Combo     *bool
}

// NewOrder creates an empty order ledger.
func NewOrder(id kernel.UUID, limits Limits) (*Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := limits.validate(); err != nil {
		return nil, err
	}

	return &Order{
		id:            id,
		limits:        limits,
		isConstructed: true,
	}, nil
}

// RestoreOrder reconstructs an order from persistence, including the frozen
// totals if the order was already finalized.
func RestoreOrder(id kernel.UUID, lines []*LineItem, version int, frozenTotals *Totals, limits Limits) (*Order, error) {
	o, err := NewOrder(id, limits)
	if err != nil {
		return nil, err
	}
	if version < 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("order version",
			fmt.Errorf("%d is negative", version))
	}

	for _, line := range lines {
		if lineErr := line.Validate(); lineErr != nil {
			return nil, lineErr
		}
		o.lines = append(o.lines, line.clone())
	}
	o.version = version
	if frozenTotals != nil {
		totals := *frozenTotals
		o.frozenTotals = &totals
	}
	return o, nil
}

// Validate ensures the order was created through a constructor.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// ID returns the order identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// Version returns the mutation counter. It increases by exactly one per
// applied command and never decreases.
func (o *Order) Version() int {
	return o.version
}

// Limits returns the caps this order was created with.
func (o *Order) Limits() Limits {
	return o.limits
}

// IsEmpty reports whether the ledger holds no lines.
func (o *Order) IsEmpty() bool {
	return len(o.lines) == 0
}

// LineCount returns the number of lines in the ledger.
func (o *Order) LineCount() int {
	return len(o.lines)
}

// IsFrozen reports whether the order was finalized.
func (o *Order) IsFrozen() bool {
	return o.frozenTotals != nil
}

// Lines returns the ledger in insertion order. The returned slice is a copy;
// the items themselves are shared and must not be mutated by callers.
func (o *Order) Lines() []*LineItem {
	out := make([]*LineItem, len(o.lines))
	copy(out, o.lines)
	return out
}

// LineByID finds a line by its stable identifier.
func (o *Order) LineByID(id kernel.UUID) (*LineItem, bool) {
	for _, line := range o.lines {
		if line.id.IsEqual(id) {
			return line, true
		}
	}
	return nil, false
}

// LineAt finds a line by 1-based ledger position, the way a customer counts
// ("the second burger").
func (o *Order) LineAt(position int) (*LineItem, bool) {
	if position < 1 || position > len(o.lines) {
		return nil, false
	}
	return o.lines[position-1], true
}

// LastLine returns the most recently added line.
func (o *Order) LastLine() (*LineItem, bool) {
	if len(o.lines) == 0 {
		return nil, false
	}
	return o.lines[len(o.lines)-1], true
}

// AddLine validates the spec against the order limits and appends a new line,
// returning the diff. The line id is minted here and stays stable afterwards.
func (o *Order) AddLine(spec LineSpec) (Diff, error) {
	if err := o.mutable(); err != nil {
		return Diff{}, err
	}
	if err := o.checkQuantity(spec.Quantity); err != nil {
		return Diff{}, err
	}
	if len(o.lines) >= o.limits.MaxLinesPerOrder {
		return Diff{}, NewValidationError(CategoryInvalidQuantity, "order lines",
			fmt.Errorf("order already has %d lines, limit is %d", len(o.lines), o.limits.MaxLinesPerOrder))
	}
	if len(dedupeModifiers(spec.Modifiers)) > o.limits.MaxModifiersPerItem {
		return Diff{}, NewValidationError(CategoryInvalidModifier, "modifiers",
			fmt.Errorf("more than %d modifiers requested", o.limits.MaxModifiersPerItem))
	}

	line, err := newLineItem(kernel.NewUUID(), spec)
	if err != nil {
		return Diff{}, NewValidationError(CategoryInvalidQuantity, "line item", err)
	}

	if err = o.checkTotalCapWith(line, nil); err != nil {
		return Diff{}, err
	}

	o.lines = append(o.lines, line)
	o.version++

	after := line.Snapshot()
	return Diff{
		Op:      DiffLineAdded,
		LineID:  line.id.String(),
		After:   &after,
		Version: o.version,
	}, nil
}

// ChangeLine applies a partial update to an existing line. Setting quantity
// to 0 removes the line instead of keeping a zero-quantity entry.
func (o *Order) ChangeLine(lineID kernel.UUID, change LineChange) (Diff, error) {
	if err := o.mutable(); err != nil {
		return Diff{}, err
	}

	line, ok := o.LineByID(lineID)
	if !ok {
		return Diff{}, NewValidationError(CategoryReferentUnresolved, "line id",
			fmt.Errorf("no line %s in order", lineID))
	}

	if change.Quantity != nil && *change.Quantity == 0 {
		return o.RemoveLine(lineID)
	}

	updated := line.clone()
	if change.Quantity != nil {
		if err := o.checkQuantity(*change.Quantity); err != nil {
			return Diff{}, err
		}
		if err := updated.setQuantity(*change.Quantity); err != nil {
			return Diff{}, NewValidationError(CategoryInvalidQuantity, "quantity", err)
		}
	}
	if change.Size != nil {
		updated.size = *change.Size
	}
	if change.Modifiers != nil {
		modifiers := dedupeModifiers(*change.Modifiers)
		if len(modifiers) > o.limits.MaxModifiersPerItem {
			return Diff{}, NewValidationError(CategoryInvalidModifier, "modifiers",
				fmt.Errorf("more than %d modifiers requested", o.limits.MaxModifiersPerItem))
		}
		updated.modifiers = modifiers
	}
	if change.UnitPrice != nil {
		updated.unitPrice = *change.UnitPrice
	}
	if change.Combo != nil {
		updated.combo = *change.Combo
	}

	if err := o.checkTotalCapWith(updated, &lineID); err != nil {
		return Diff{}, err
	}

	before := line.Snapshot()
	*line = *updated
	o.version++
	after := line.Snapshot()

	return Diff{
		Op:      DiffLineChanged,
		LineID:  line.id.String(),
		Before:  &before,
		After:   &after,
		Version: o.version,
	}, nil
}

// SetQuantity replaces the quantity of an existing line. Quantity 0 removes
// the line.
func (o *Order) SetQuantity(lineID kernel.UUID, quantity int) (Diff, error) {
	return o.ChangeLine(lineID, LineChange{Quantity: &quantity})
}

// RemoveLine deletes a line from the ledger.
func (o *Order) RemoveLine(lineID kernel.UUID) (Diff, error) {
	if err := o.mutable(); err != nil {
		return Diff{}, err
	}

	for i, line := range o.lines {
		if !line.id.IsEqual(lineID) {
			continue
		}
		before := line.Snapshot()
		o.lines = append(o.lines[:i], o.lines[i+1:]...)
		o.version++
		return Diff{
			Op:      DiffLineRemoved,
			LineID:  lineID.String(),
			Before:  &before,
			Version: o.version,
		}, nil
	}

	return Diff{}, NewValidationError(CategoryReferentUnresolved, "line id",
		fmt.Errorf("no line %s in order", lineID))
}

// Totals derives subtotal, tax, and total from the current lines. For a
// frozen order the stored final totals are returned and never recomputed.
func (o *Order) Totals(taxBasisPoints int64) Totals {
	if o.frozenTotals != nil {
		return *o.frozenTotals
	}
	return o.computeTotals(taxBasisPoints)
}

// Freeze finalizes the order: totals are computed once, stored, and every
// later mutation is rejected with ErrOrderIsFrozen. Freezing twice returns
// the originally frozen totals.
func (o *Order) Freeze(taxBasisPoints int64) Totals {
	if o.frozenTotals != nil {
		return *o.frozenTotals
	}
	totals := o.computeTotals(taxBasisPoints)
	o.frozenTotals = &totals
	return totals
}

// Unfreeze reopens a finalized order for late additions ("oh wait, also...").
// The frozen totals are discarded and recomputed at the next finalize.
func (o *Order) Unfreeze() {
	o.frozenTotals = nil
}

// FrozenTotals returns the finalized totals when the order is frozen.
func (o *Order) FrozenTotals() *Totals {
	if o.frozenTotals == nil {
		return nil
	}
	totals := *o.frozenTotals
	return &totals
}

// Clone returns a deep copy of the order. The pipeline mutates a clone per
// command so a failed command cannot leak partial changes.
func (o *Order) Clone() *Order {
	dup := &Order{
		id:            o.id,
		version:       o.version,
		limits:        o.limits,
		isConstructed: o.isConstructed,
	}
	dup.lines = make([]*LineItem, len(o.lines))
	for i, line := range o.lines {
		dup.lines[i] = line.clone()
	}
	if o.frozenTotals != nil {
		totals := *o.frozenTotals
		dup.frozenTotals = &totals
	}
	return dup
}

// CheckInvariants verifies the internal contracts of the ledger. A failure
// here is an InvariantViolationError: the turn that produced it must be
// aborted and rolled back.
func (o *Order) CheckInvariants(taxBasisPoints int64) error {
	if err := o.Validate(); err != nil {
		return NewInvariantViolationError(err.Error())
	}
	for i, line := range o.lines {
		if line.quantity < 1 {
			return NewInvariantViolationError(
				fmt.Sprintf("line %d has quantity %d", i+1, line.quantity))
		}
		if line.unitPrice.Cents() < 0 {
			return NewInvariantViolationError(
				fmt.Sprintf("line %d has negative unit price", i+1))
		}
	}
	totals := o.Totals(taxBasisPoints)
	if totals.Total != totals.Subtotal+totals.Tax {
		return NewInvariantViolationError("total does not equal subtotal plus tax")
	}
	if totals.Total < 0 {
		return NewInvariantViolationError("total is negative")
	}
	return nil
}

func (o *Order) computeTotals(taxBasisPoints int64) Totals {
	subtotal := kernel.Money{}
	for _, line := range o.lines {
		subtotal = subtotal.Add(line.LineTotal())
	}
	tax := subtotal.ApplyRate(taxBasisPoints)
	return Totals{
		Subtotal: subtotal.Cents(),
		Tax:      tax.Cents(),
		Total:    subtotal.Add(tax).Cents(),
	}
}

func (o *Order) mutable() error {
	if err := o.Validate(); err != nil {
		return err
	}
	if o.frozenTotals != nil {
		return ErrOrderIsFrozen
	}
	return nil
}

func (o *Order) checkQuantity(quantity int) error {
	if quantity < 1 || quantity > o.limits.MaxQuantityPerItem {
		return NewValidationError(CategoryInvalidQuantity, "quantity",
			fmt.Errorf("%d is outside [1, %d]", quantity, o.limits.MaxQuantityPerItem))
	}
	return nil
}

// checkTotalCapWith computes the prospective subtotal with candidate standing
// in for the line identified by replacing (or appended when replacing is nil)
// and rejects the mutation if it would exceed the configured cap.
func (o *Order) checkTotalCapWith(candidate *LineItem, replacing *kernel.UUID) error {
	subtotal := candidate.LineTotal()
	for _, line := range o.lines {
		if replacing != nil && line.id.IsEqual(*replacing) {
			continue
		}
		subtotal = subtotal.Add(line.LineTotal())
	}
	if subtotal.Cents() > o.limits.MaxOrderTotalCents {
		return NewValidationError(CategoryInvalidQuantity, "order total",
			fmt.Errorf("subtotal %s exceeds cap of %d cents", subtotal, o.limits.MaxOrderTotalCents))
	}
	return nil
}
