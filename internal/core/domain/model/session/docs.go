// Package session implements the per-lane conversation: the Session
// aggregate and the turn-level conversation state machine.
//
// The machine is a static lookup table over (state, event, guards); nothing
// about the next state is ever inferred by a model. States are Ordering,
// Thinking, Clarifying, Confirming, Closing, and Idle, where Idle is both the
// initial state (no car at the lane) and the terminal state of one occupancy.
// A lane's session cycles through the machine again when the next car
// arrives.
//
// Global events (barge-in, silence, idle timeout, lane clear) apply from any
// state and are resolved before the table. The aggregate additionally bounds
// the clarification loop: the same unresolved ambiguity escalates to Thinking
// after two consecutive attempts, so a confused exchange can never loop.
package session
