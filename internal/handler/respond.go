package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"repvote/internal/domain"
	"repvote/pkg/errors"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondAppError(w http.ResponseWriter, appErr *errors.AppError) {
	response := &errors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	respondJSON(w, appErr.StatusCode, response)
}

// respondDomainError maps the core's typed errors to HTTP responses. Every
// sentinel keeps its own message; a student who sees "already voted" acts
// differently from one who sees "wrong ticket".
func respondDomainError(w http.ResponseWriter, err error) {
	var appErr *errors.AppError

	switch err {
	case domain.ErrStudentNotFound, domain.ErrElectionNotFound:
		appErr = errors.NewNotFoundError(err.Error())
	case domain.ErrNotEligible, domain.ErrResultsNotVisible:
		appErr = errors.NewAuthorizationError(err.Error())
	case domain.ErrElectionNotStarted, domain.ErrElectionEnded, domain.ErrAlreadyVoted:
		appErr = errors.NewConflictError(err.Error())
	case domain.ErrTicketExpired:
		appErr = errors.NewGoneError(err.Error())
	case domain.ErrInvalidTicket, domain.ErrInvalidCandidate:
		appErr = errors.NewValidationError(err.Error(), nil)
	case domain.ErrDeliveryFailed:
		appErr = errors.NewExternalError(err.Error(), nil)
	case domain.ErrRateLimited:
		appErr = errors.NewRateLimitError(err.Error())
	default:
		// Storage-layer unavailability and other unexpected failures:
		// generic response, no detail leakage.
		appErr = errors.NewInternalError("Something went wrong, please try again", err)
	}

	respondAppError(w, appErr)
}
