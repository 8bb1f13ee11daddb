package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"drivethru/internal/config"
	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/core/domain/model/order"
	"drivethru/internal/core/domain/model/session"
	"drivethru/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetOrderSnapshotQueryHandler reads one session's order directly from the
// database. Uses direct SQL queries for optimal read performance in the CQRS
// pattern; totals for a live order are derived with the restaurant's tax
// rate, a frozen order returns its stored final totals.
type GetOrderSnapshotQueryHandler struct {
	db       *gorm.DB
	policies *config.PolicyFile
}

// NewGetOrderSnapshotQueryHandler creates a handler for order snapshot
// queries.
func NewGetOrderSnapshotQueryHandler(db *gorm.DB, policies *config.PolicyFile) GetOrderSnapshotQueryHandler {
	return GetOrderSnapshotQueryHandler{db: db, policies: policies}
}

// Handle executes the query for the given session.
func (h GetOrderSnapshotQueryHandler) Handle(
	ctx context.Context,
	query GetOrderSnapshotQuery,
) (GetOrderSnapshotQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderSnapshotQueryResponse{}, err
	}

	var (
		sessionID    uuid.UUID
		restaurantID string
		orderID      uuid.UUID
		state        int
	)
	row := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			restaurant_id,
			order_id,
			state
		FROM sessions
		WHERE id = ?
	`, query.SessionID().Bytes()).Row()
	if err := row.Scan(&sessionID, &restaurantID, &orderID, &state); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return GetOrderSnapshotQueryResponse{},
				errs.NewObjectNotFoundError("session", query.SessionID().String())
		}
		return GetOrderSnapshotQueryResponse{}, err
	}

	response := GetOrderSnapshotQueryResponse{
		SessionID: query.SessionID(),
		State:     session.State(state).String(),
	}

	oID, err := kernel.UUIDFromBytes(orderID[:])
	if err != nil {
		return GetOrderSnapshotQueryResponse{}, err
	}
	response.OrderID = oID

	var (
		frozenSubtotal sql.NullInt64
		frozenTax      sql.NullInt64
		frozenTotal    sql.NullInt64
	)
	row = h.db.WithContext(ctx).Raw(`
		SELECT
			version,
			frozen_subtotal_cents,
			frozen_tax_cents,
			frozen_total_cents
		FROM orders
		WHERE id = ?
	`, orderID).Row()
	if err = row.Scan(&response.Version, &frozenSubtotal, &frozenTax, &frozenTotal); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return GetOrderSnapshotQueryResponse{},
				errs.NewObjectNotFoundError("order", oID.String())
		}
		return GetOrderSnapshotQueryResponse{}, err
	}

	lines, subtotal, err := h.loadLines(ctx, orderID)
	if err != nil {
		return GetOrderSnapshotQueryResponse{}, err
	}
	response.Lines = lines

	if frozenSubtotal.Valid && frozenTax.Valid && frozenTotal.Valid {
		response.Frozen = true
		response.Totals = order.Totals{
			Subtotal: frozenSubtotal.Int64,
			Tax:      frozenTax.Int64,
			Total:    frozenTotal.Int64,
		}
		return response, nil
	}

	tax := subtotal.ApplyRate(h.policies.For(restaurantID).TaxBasisPoints)
	response.Totals = order.Totals{
		Subtotal: subtotal.Cents(),
		Tax:      tax.Cents(),
		Total:    subtotal.Add(tax).Cents(),
	}
	return response, nil
}

func (h GetOrderSnapshotQueryHandler) loadLines(
	ctx context.Context,
	orderID uuid.UUID,
) ([]order.LineSnapshot, kernel.Money, error) {
	lines := make([]order.LineSnapshot, 0)
	var subtotal kernel.Money

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			menu_item_id,
			name,
			quantity,
			size,
			modifiers,
			unit_price_cents,
			combo
		FROM order_lines
		WHERE order_id = ?
		ORDER BY position
	`, orderID).Rows()
	if err != nil {
		return nil, kernel.Money{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var snapshot order.LineSnapshot
		var id uuid.UUID
		var modifiers []byte

		err = rows.Scan(
			&id,
			&snapshot.MenuItemID,
			&snapshot.Name,
			&snapshot.Quantity,
			&snapshot.Size,
			&modifiers,
			&snapshot.UnitPrice,
			&snapshot.Combo,
		)
		if err != nil {
			return nil, kernel.Money{}, err
		}

		lineID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, kernel.Money{}, idErr
		}
		snapshot.LineID = lineID.String()

		if len(modifiers) > 0 {
			if jsonErr := json.Unmarshal(modifiers, &snapshot.Modifiers); jsonErr != nil {
				return nil, kernel.Money{}, jsonErr
			}
		}

		snapshot.LineTotal = snapshot.UnitPrice * int64(snapshot.Quantity)
		lineTotal, totalErr := kernel.NewMoneyFromCents(snapshot.LineTotal)
		if totalErr != nil {
			return nil, kernel.Money{}, totalErr
		}
		subtotal = subtotal.Add(lineTotal)

		lines = append(lines, snapshot)
	}

	if err = rows.Err(); err != nil {
		return nil, kernel.Money{}, err
	}

	return lines, subtotal, nil
}
