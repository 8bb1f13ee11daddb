// Package command defines the proposed-mutation value objects the language
// understanding layer emits for one utterance. Commands are untrusted input:
// the proposer only suggests, and every command is validated by deterministic
// rules before any order mutation is accepted.
//
// Each command carries an idempotency key that is stable across retries of
// the same utterance, which lets the pipeline discard duplicate deliveries.
package command
