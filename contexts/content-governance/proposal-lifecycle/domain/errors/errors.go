package errors

import "errors"

// Error kinds surfaced to callers. Specific errors below unwrap to exactly
// one kind so callers can branch with errors.Is(err, ErrInvalidState).
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation error")

	// ErrConflict is the only transient kind: the store could not apply an
	// update after repeated concurrent modifications. Callers may retry.
	ErrConflict = errors.New("proposal modified concurrently")
)

var (
	ErrProposalNotFound = kindError(ErrNotFound, "proposal not found")
	ErrOriginalNotFound = kindError(ErrNotFound, "original proposal not found")

	ErrNotAuthor             = kindError(ErrUnauthorized, "only the proposal author may perform this action")
	ErrReviewerNotRecognized = kindError(ErrUnauthorized, "actor is not a recognized reviewer")

	ErrNotDraft             = kindError(ErrInvalidState, "proposal is not in draft")
	ErrNotPending           = kindError(ErrInvalidState, "proposal is not pending")
	ErrTerminal             = kindError(ErrInvalidState, "proposal is already approved or rejected")
	ErrOriginalNotApproved  = kindError(ErrInvalidState, "original proposal is not approved")
	ErrOriginalRetracted    = kindError(ErrInvalidState, "original proposal content has been retracted")
	ErrOriginalIsManagement = kindError(ErrInvalidState, "management proposals cannot be managed")

	ErrInvalidProposalInput  = kindError(ErrValidation, "invalid proposal input")
	ErrMissingRequiredFields = kindError(ErrValidation, "title, description and at least one content block are required")
	ErrInvalidTier           = kindError(ErrValidation, "target tier must be between 1 and 6")
	ErrInvalidCategory       = kindError(ErrValidation, "invalid proposal category")
	ErrInvalidDecision       = kindError(ErrValidation, "decision must be approve or reject")
	ErrInvalidManagementKind = kindError(ErrValidation, "management kind must be edit or delete")
	ErrInvalidContentBlocks  = kindError(ErrValidation, "invalid content blocks")
	ErrIdempotencyConflict   = kindError(ErrValidation, "idempotency key reused with a different request")
)

type kindedError struct {
	kind    error
	message string
}

func (e *kindedError) Error() string {
	return e.message
}

func (e *kindedError) Unwrap() error {
	return e.kind
}

func kindError(kind error, message string) error {
	return &kindedError{kind: kind, message: message}
}
