// Package orderrepo provides data transfer objects and mapping functions for
// order persistence. The order aggregate spans two tables: the order row
// carries version, limits, and frozen totals, and each line item is a row of
// its own keyed by position.
package orderrepo

import (
	"encoding/json"

	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO represents the database structure for persisting order aggregates.
// Frozen totals are nullable as a group: either all three are set (the order
// is finalized) or none are.
type OrderDTO struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	Version int

	FrozenSubtotalCents *int64
	FrozenTaxCents      *int64
	FrozenTotalCents    *int64

	MaxQuantityPerItem  int
	MaxLinesPerOrder    int
	MaxModifiersPerItem int
	MaxOrderTotalCents  int64

	Lines []OrderLineDTO `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for order entities.
func (OrderDTO) TableName() string {
	return "orders"
}

// OrderLineDTO represents one ledger line within the order table. Position
// preserves line ordering; modifiers are stored as a JSON array.
type OrderLineDTO struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID        uuid.UUID `gorm:"type:uuid;index"`
	Position       int
	MenuItemID     string
	Name           string
	Quantity       int
	Size           string
	Modifiers      []byte `gorm:"type:jsonb"`
	UnitPriceCents int64
	Combo          bool
}

// TableName specifies the database table name for order line entities.
func (OrderLineDTO) TableName() string {
	return "order_lines"
}

// fromDomain converts an order domain aggregate to its database
// representation.
func fromDomain(aggregate *order.Order) (OrderDTO, error) {
	dto := OrderDTO{
		ID:                  aggregate.ID().Bytes(),
		Version:             aggregate.Version(),
		MaxQuantityPerItem:  aggregate.Limits().MaxQuantityPerItem,
		MaxLinesPerOrder:    aggregate.Limits().MaxLinesPerOrder,
		MaxModifiersPerItem: aggregate.Limits().MaxModifiersPerItem,
		MaxOrderTotalCents:  aggregate.Limits().MaxOrderTotalCents,
	}

	if frozen := aggregate.FrozenTotals(); frozen != nil {
		subtotal, tax, total := frozen.Subtotal, frozen.Tax, frozen.Total
		dto.FrozenSubtotalCents = &subtotal
		dto.FrozenTaxCents = &tax
		dto.FrozenTotalCents = &total
	}

	for position, line := range aggregate.Lines() {
		lineDTO, err := lineFromDomain(aggregate.ID(), position, line)
		if err != nil {
			return OrderDTO{}, err
		}
		dto.Lines = append(dto.Lines, lineDTO)
	}

	return dto, nil
}

func lineFromDomain(orderID kernel.UUID, position int, line *order.LineItem) (OrderLineDTO, error) {
	modifiers, err := json.Marshal(line.Modifiers())
	if err != nil {
		return OrderLineDTO{}, err
	}

	return OrderLineDTO{
		ID:             line.ID().Bytes(),
		OrderID:        orderID.Bytes(),
		Position:       position,
		MenuItemID:     line.MenuItemID(),
		Name:           line.Name(),
		Quantity:       line.Quantity(),
		Size:           line.Size(),
		Modifiers:      modifiers,
		UnitPriceCents: line.UnitPrice().Cents(),
		Combo:          line.IsCombo(),
	}, nil
}

// toDomain converts a database DTO to an order domain aggregate using
// RestoreOrder. Lines must already be loaded and sorted by position.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	lines := make([]*order.LineItem, 0, len(dto.Lines))
	for _, lineDTO := range dto.Lines {
		line, lineErr := lineToDomain(lineDTO)
		if lineErr != nil {
			return nil, lineErr
		}
		lines = append(lines, line)
	}

	var frozen *order.Totals
	if dto.FrozenSubtotalCents != nil && dto.FrozenTaxCents != nil && dto.FrozenTotalCents != nil {
		frozen = &order.Totals{
			Subtotal: *dto.FrozenSubtotalCents,
			Tax:      *dto.FrozenTaxCents,
			Total:    *dto.FrozenTotalCents,
		}
	}

	limits := order.Limits{
		MaxQuantityPerItem:  dto.MaxQuantityPerItem,
		MaxLinesPerOrder:    dto.MaxLinesPerOrder,
		MaxModifiersPerItem: dto.MaxModifiersPerItem,
		MaxOrderTotalCents:  dto.MaxOrderTotalCents,
	}

	return order.RestoreOrder(id, lines, dto.Version, frozen, limits)
}

func lineToDomain(dto OrderLineDTO) (*order.LineItem, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	var modifiers []string
	if len(dto.Modifiers) > 0 {
		if unmarshalErr := json.Unmarshal(dto.Modifiers, &modifiers); unmarshalErr != nil {
			return nil, unmarshalErr
		}
	}

	unitPrice, err := kernel.NewMoneyFromCents(dto.UnitPriceCents)
	if err != nil {
		return nil, err
	}

	return order.RestoreLineItem(
		id,
		dto.MenuItemID,
		dto.Name,
		dto.Quantity,
		dto.Size,
		modifiers,
		unitPrice,
		dto.Combo,
	)
}
