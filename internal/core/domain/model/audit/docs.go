// Package audit records the outcome of every command applied to an order.
//
// Each entry captures the idempotency key, the resulting diff (or the reason
// for rejection) and the order version it produced. The log doubles as the
// idempotency store: before applying a command the pipeline looks its key up
// here and replays the stored outcome instead of mutating the order again.
package audit
