// Package services provides domain services that orchestrate business
// operations across multiple domain entities in the ordering system. It
// implements workflows that don't naturally belong to a single aggregate root.
//
// The package includes:
//   - CommandPipeline: applies a batch of proposed commands to an order
//     transactionally and idempotently, recording every outcome in the
//     audit log.
//
// Domain services coordinate between aggregates, implementing business logic
// that spans multiple bounded contexts following Domain-Driven Design
// principles.
package services
