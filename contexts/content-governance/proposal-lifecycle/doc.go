// Package proposallifecycle implements the proposal workflow inside the
// content-governance context.
//
// The module owns proposal drafts, submission, reviewer votes with the
// decisive-authority short-circuit, and management proposals that edit or
// retract already-approved content. State changes go through an optimistic,
// revision-checked store and are announced through an outbox relay.
package proposallifecycle
