// Package order implements the order state store: the mutable line-item
// ledger built up over a drive-thru conversation.
//
// The Order aggregate owns an ordered sequence of line items (insertion order
// is display and confirmation order), a monotonically increasing version
// counter, and derived totals. All mutations go through validated methods that
// return a Diff describing exactly what changed; a failed mutation leaves the
// aggregate untouched, which lets the command pipeline apply a batch
// command-by-command against a working copy and discard only the failing step.
//
// Business-rule rejections are reported as *ValidationError with a category
// (item not found, unavailable, invalid quantity, invalid modifier, referent
// unresolved) so the conversation layer can turn them into a single clarifying
// question rather than a raw error. A broken internal contract (for example a
// negative total) is reported as *InvariantViolationError and aborts the turn.
package order
