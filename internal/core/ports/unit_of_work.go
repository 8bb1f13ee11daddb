package ports

import (
	"context"
)

// UnitOfWorkFactory creates new UnitOfWork instances for each turn/command.
// This ensures proper isolation between concurrent operations.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork represents a business transaction boundary. One conversation
// turn maps onto exactly one unit of work: the session, order, and audit
// writes of a turn either all commit or all roll back.
// Client code must explicitly manage transaction lifecycle.
type UnitOfWork interface {
	// Begin starts a new database transaction.
	Begin(ctx context.Context) error

	// Commit commits the current transaction.
	// Returns error if no active transaction or commit fails.
	Commit(ctx context.Context) error

	// Rollback rolls back the current transaction.
	// Returns error if no active transaction or rollback fails.
	Rollback(ctx context.Context) error

	// SessionRepository returns a SessionRepository instance bound to the
	// current transaction.
	SessionRepository() SessionRepository

	// OrderRepository returns an OrderRepository instance bound to the
	// current transaction.
	OrderRepository() OrderRepository

	// AuditRepository returns an AuditRepository instance bound to the
	// current transaction.
	AuditRepository() AuditRepository
}
