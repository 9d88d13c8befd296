package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repvote/internal/domain"
	apperrors "repvote/pkg/errors"
)

func TestRespondDomainErrorMapping(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantType   apperrors.ErrorType
	}{
		{domain.ErrStudentNotFound, http.StatusNotFound, apperrors.ErrorTypeNotFound},
		{domain.ErrElectionNotFound, http.StatusNotFound, apperrors.ErrorTypeNotFound},
		{domain.ErrNotEligible, http.StatusForbidden, apperrors.ErrorTypeAuthorization},
		{domain.ErrResultsNotVisible, http.StatusForbidden, apperrors.ErrorTypeAuthorization},
		{domain.ErrElectionNotStarted, http.StatusConflict, apperrors.ErrorTypeConflict},
		{domain.ErrElectionEnded, http.StatusConflict, apperrors.ErrorTypeConflict},
		{domain.ErrAlreadyVoted, http.StatusConflict, apperrors.ErrorTypeConflict},
		{domain.ErrTicketExpired, http.StatusGone, apperrors.ErrorTypeGone},
		{domain.ErrInvalidTicket, http.StatusBadRequest, apperrors.ErrorTypeValidation},
		{domain.ErrInvalidCandidate, http.StatusBadRequest, apperrors.ErrorTypeValidation},
		{domain.ErrDeliveryFailed, http.StatusBadGateway, apperrors.ErrorTypeExternal},
		{domain.ErrRateLimited, http.StatusTooManyRequests, apperrors.ErrorTypeRateLimit},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondDomainError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body apperrors.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body.Error.Type)
			assert.Equal(t, tt.err.Error(), body.Error.Message)
			assert.NotEmpty(t, body.Error.Timestamp)
		})
	}
}

// Unexpected errors must not leak internals to the client.
func TestRespondDomainErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	respondDomainError(rec, errors.New("pq: connection refused to 10.0.0.5"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}
