package httpserver

import (
	"errors"
	"net/http"

	distributionerrors "maestro/contexts/content-governance/content-distribution/domain/errors"
	lifecycleerrors "maestro/contexts/content-governance/proposal-lifecycle/domain/errors"
	lifecyclehttp "maestro/contexts/content-governance/proposal-lifecycle/transport/http"
	authorityerrors "maestro/contexts/content-governance/reviewer-authority/domain/errors"
)

// writeDomainError maps error kinds to statuses. Conflict is the only
// retryable outcome.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, lifecycleerrors.ErrNotFound),
		errors.Is(err, distributionerrors.ErrNotFound),
		errors.Is(err, authorityerrors.ErrReviewerNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error(), false)
	case errors.Is(err, lifecycleerrors.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "unauthorized", err.Error(), false)
	case errors.Is(err, lifecycleerrors.ErrInvalidState):
		writeError(w, http.StatusConflict, "invalid_state", err.Error(), false)
	case errors.Is(err, lifecycleerrors.ErrValidation),
		errors.Is(err, distributionerrors.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error(), false)
	case errors.Is(err, lifecycleerrors.ErrConflict),
		errors.Is(err, distributionerrors.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error(), true)
	default:
		s.logger.Error("request failed",
			"event", "http_request_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error(),
			"request_id", r.Header.Get("X-Request-Id"),
		)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", false)
	}
}

func writeError(w http.ResponseWriter, status int, code string, message string, retryable bool) {
	writeJSON(w, status, lifecyclehttp.ErrorResponse{
		Code:      code,
		Message:   message,
		Retryable: retryable,
	})
}
