package order

import (
	"errors"
	"fmt"
	"slices"

	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/pkg/errs"
)

// ErrLineItemIsNotConstructed is returned when a LineItem was not created
// through newLineItem or RestoreLineItem.
var ErrLineItemIsNotConstructed = errors.New("LineItem must be created via the order aggregate or RestoreLineItem")

// LineItem is one ordered item within the order ledger. Its identity (line id)
// is stable for the lifetime of the order, surviving quantity and modifier
// changes, so the session referent and audit diffs can point at it.
//
// Invariants:
//   - quantity is at least 1 (a line reaching quantity 0 is removed, never kept)
//   - unit price is non-negative (enforced by kernel.Money)
//   - modifier set is duplicate-free
type LineItem struct {
	id         kernel.UUID
	menuItemID string
	name       string
	quantity   int
	size       string
	modifiers  []string
	unitPrice  kernel.Money
	combo      bool

	isConstructed bool
}

func newLineItem(id kernel.UUID, spec LineSpec) (*LineItem, error) {
	item := &LineItem{
		isConstructed: true,
	}

	if err := errors.Join(
		item.setID(id),
		item.setMenuItem(spec.MenuItemID, spec.Name),
		item.setQuantity(spec.Quantity),
	); err != nil {
		return nil, err
	}

	item.size = spec.Size
	item.modifiers = dedupeModifiers(spec.Modifiers)
	item.unitPrice = spec.UnitPrice
	item.combo = spec.Combo
	return item, nil
}

// RestoreLineItem reconstructs a line item from persistence. Unlike the
// aggregate mutation path it accepts the stored state as-is apart from
// structural validation.
func RestoreLineItem(
	id kernel.UUID,
	menuItemID, name string,
	quantity int,
	size string,
	modifiers []string,
	unitPrice kernel.Money,
	combo bool,
) (*LineItem, error) {
	return newLineItem(id, LineSpec{
		MenuItemID: menuItemID,
		Name:       name,
		Quantity:   quantity,
		Size:       size,
		Modifiers:  modifiers,
		UnitPrice:  unitPrice,
		Combo:      combo,
	})
}

// Validate ensures the line item was created through the aggregate.
func (li *LineItem) Validate() error {
	if li == nil || !li.isConstructed {
		return ErrLineItemIsNotConstructed
	}
	return nil
}

// ID returns the stable line identifier.
func (li *LineItem) ID() kernel.UUID {
	return li.id
}

// MenuItemID returns the catalog identifier of the ordered item.
func (li *LineItem) MenuItemID() string {
	return li.menuItemID
}

// Name returns the display name captured at order time.
func (li *LineItem) Name() string {
	return li.name
}

// Quantity returns how many of the item are ordered.
func (li *LineItem) Quantity() int {
	return li.quantity
}

// Size returns the chosen size, empty when the item has no sizes.
func (li *LineItem) Size() string {
	return li.size
}

// Modifiers returns a copy of the modifier set.
func (li *LineItem) Modifiers() []string {
	return slices.Clone(li.modifiers)
}

// UnitPrice returns the per-unit price.
func (li *LineItem) UnitPrice() kernel.Money {
	return li.unitPrice
}

// IsCombo reports whether the line was upgraded to a combo meal.
func (li *LineItem) IsCombo() bool {
	return li.combo
}

// LineTotal returns quantity times unit price.
func (li *LineItem) LineTotal() kernel.Money {
	total, err := li.unitPrice.MultiplyInt(li.quantity)
	if err != nil {
		// quantity is validated non-negative on every mutation path
		return kernel.Money{}
	}
	return total
}

// Snapshot captures the line's externally visible state for diffs and audit
// entries.
func (li *LineItem) Snapshot() LineSnapshot {
	return LineSnapshot{
		LineID:     li.id.String(),
		MenuItemID: li.menuItemID,
		Name:       li.name,
		Quantity:   li.quantity,
		Size:       li.size,
		Modifiers:  li.Modifiers(),
		UnitPrice:  li.unitPrice.Cents(),
		Combo:      li.combo,
		LineTotal:  li.LineTotal().Cents(),
	}
}

func (li *LineItem) clone() *LineItem {
	dup := *li
	dup.modifiers = slices.Clone(li.modifiers)
	return &dup
}

func (li *LineItem) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	li.id = id
	return nil
}

func (li *LineItem) setMenuItem(menuItemID, name string) error {
	if menuItemID == "" {
		return errs.NewValueIsRequiredError("menu item id")
	}
	li.menuItemID = menuItemID
	li.name = name
	return nil
}

func (li *LineItem) setQuantity(quantity int) error {
	if quantity < 1 {
		return errs.NewValueIsInvalidErrorWithCause("quantity",
			fmt.Errorf("%d is not at least 1", quantity))
	}
	li.quantity = quantity
	return nil
}

func dedupeModifiers(modifiers []string) []string {
	if len(modifiers) == 0 {
		return nil
	}
	out := make([]string, 0, len(modifiers))
	for _, m := range modifiers {
		if m == "" || slices.Contains(out, m) {
			continue
		}
		out = append(out, m)
	}
	return out
}
