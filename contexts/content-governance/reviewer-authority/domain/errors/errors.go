package errors

import "errors"

var (
	ErrInvalidRoster        = errors.New("invalid reviewer roster")
	ErrDuplicateReviewer    = errors.New("reviewer id or email listed twice")
	ErrDecisiveNotReviewer  = errors.New("decisive authority must be a recognized reviewer")
	ErrReviewerNotFound     = errors.New("reviewer not found")
	ErrRosterSourceNotFound = errors.New("roster file not found")
)
