package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
)

var (
	ErrInvalidTier     = fmt.Errorf("%w: tier must be between 1 and 6", ErrValidation)
	ErrInvalidCategory = fmt.Errorf("%w: category must be theoretical, practical or checkpoint", ErrValidation)
	ErrContentNotFound = fmt.Errorf("%w: published content not found", ErrNotFound)
	ErrEventConflict   = fmt.Errorf("%w: event id reused with a different payload", ErrConflict)
)
