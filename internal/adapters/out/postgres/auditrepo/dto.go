// Package auditrepo provides data transfer objects and mapping functions for
// the per-order command audit trail. Entries are append-only; the serial Seq
// column preserves application order across turns.
package auditrepo

import (
	"encoding/json"
	"time"

	"drivethru/internal/core/domain/model/audit"
	"drivethru/internal/core/domain/model/kernel"
	"drivethru/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// AuditEntryDTO represents the database structure for persisting audit
// entries. The idempotency key is unique per order, enforcing exactly-once
// application at the storage layer too.
type AuditEntryDTO struct {
	Seq            int64     `gorm:"primaryKey;autoIncrement"`
	ID             uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	OrderID        uuid.UUID `gorm:"type:uuid;index;uniqueIndex:idx_audit_order_key"`
	IdempotencyKey string    `gorm:"uniqueIndex:idx_audit_order_key"`
	CommandType    string
	Outcome        string
	Diff           []byte `gorm:"type:jsonb"`
	Category       string
	Message        string
	AppliedAt      time.Time
}

// TableName specifies the database table name for audit entries.
func (AuditEntryDTO) TableName() string {
	return "audit_entries"
}

// fromDomain converts an audit entry to its database representation.
func fromDomain(entry audit.Entry) (AuditEntryDTO, error) {
	var diff []byte
	if d := entry.Diff(); d != nil {
		raw, err := json.Marshal(d)
		if err != nil {
			return AuditEntryDTO{}, err
		}
		diff = raw
	}

	return AuditEntryDTO{
		ID:             entry.ID().Bytes(),
		OrderID:        entry.OrderID().Bytes(),
		IdempotencyKey: entry.IdempotencyKey(),
		CommandType:    entry.CommandType(),
		Outcome:        entry.Outcome().String(),
		Diff:           diff,
		Category:       entry.Category(),
		Message:        entry.Message(),
		AppliedAt:      entry.AppliedAt(),
	}, nil
}

// toDomain converts a database DTO to an audit entry using RestoreEntry.
func toDomain(dto AuditEntryDTO) (audit.Entry, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return audit.Entry{}, err
	}

	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return audit.Entry{}, err
	}

	outcome, err := audit.OutcomeFromString(dto.Outcome)
	if err != nil {
		return audit.Entry{}, err
	}

	var diff *order.Diff
	if len(dto.Diff) > 0 {
		var d order.Diff
		if unmarshalErr := json.Unmarshal(dto.Diff, &d); unmarshalErr != nil {
			return audit.Entry{}, unmarshalErr
		}
		diff = &d
	}

	return audit.RestoreEntry(
		id,
		orderID,
		dto.IdempotencyKey,
		dto.CommandType,
		outcome,
		diff,
		dto.Category,
		dto.Message,
		dto.AppliedAt,
	)
}
