package ports

import (
	"context"

	"drivethru/internal/core/domain/model/audit"
	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Add persists a new order aggregate to storage.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order aggregate. A stored
	// version higher than the aggregate's means a concurrent writer and
	// fails the update.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order aggregate by its unique identifier.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)
}

// AuditRepository defines the persistence contract for the per-order command
// audit trail.
type AuditRepository interface {
	// AppendEntries persists the audit entries a turn produced. Entries are
	// immutable once written.
	AppendEntries(ctx context.Context, entries []audit.Entry) error

	// GetLog loads the full audit log of an order, in application order.
	GetLog(ctx context.Context, orderID kernel.UUID) (*audit.Log, error)
}
