// Package queries contains read operations for retrieving system state.
// Implements the Query pattern for read operations in the CQRS architecture.
// Queries return optimized read models for specific use cases.
package queries

import (
	"errors"

	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/core/domain/model/order"
	"drivethru/internal/pkg/errs"
	"drivethru/internal/pkg/guard"
)

var (
	ErrGetOrderSnapshotQueryIsNotConstructed = errors.New(
		"GetOrderSnapshotQuery must be created via NewGetOrderSnapshotQuery constructor",
	)
)

// GetOrderSnapshotQuery retrieves the current order of one session: the
// ledger lines, running or frozen totals, and the conversation state.
// Backs the order board a crew member glances at while the car is still
// at the speaker.
//
// Example:
//
//	query, err := queries.NewGetOrderSnapshotQuery(sessionID)
//	if err != nil {
//	    return err
//	}
//
//	snapshot, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return fmt.Errorf("failed to get order snapshot: %w", err)
//	}
//
//	fmt.Printf("%d lines, total %d cents\n", len(snapshot.Lines), snapshot.Totals.Total)
type GetOrderSnapshotQuery struct {
	sessionID kernel.UUID
	guard     guard.ConstructorGuard
}

// NewGetOrderSnapshotQuery creates a query for the given session.
func NewGetOrderSnapshotQuery(sessionID kernel.UUID) (GetOrderSnapshotQuery, error) {
	if err := sessionID.Validate(); err != nil {
		return GetOrderSnapshotQuery{}, errs.NewValueIsRequiredErrorWithCause("sessionID", err)
	}

	return GetOrderSnapshotQuery{
		sessionID: sessionID,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// SessionID returns the session whose order is requested.
func (q GetOrderSnapshotQuery) SessionID() kernel.UUID {
	return q.sessionID
}

// Validate ensures the query was created through the constructor.
func (q GetOrderSnapshotQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderSnapshotQueryIsNotConstructed)
}

// GetOrderSnapshotQueryResponse is the read model of one session's order.
type GetOrderSnapshotQueryResponse struct {
	SessionID kernel.UUID
	OrderID   kernel.UUID
	State     string
	Version   int
	Frozen    bool
	Lines     []order.LineSnapshot
	Totals    order.Totals
}
