package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repvote/internal/domain"
	"repvote/internal/middleware"
	apperrors "repvote/pkg/errors"
)

func castRequest(t *testing.T, body string, identity *domain.Identity) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/elections/e1/vote", strings.NewReader(body))
	if identity != nil {
		ctx := context.WithValue(req.Context(), middleware.IdentityContextKey, identity)
		req = req.WithContext(ctx)
	}
	return req
}

func TestCastVoteRequestValidation(t *testing.T) {
	h := &VotingHandler{}
	student := &domain.Identity{Sub: "s1", Role: domain.RoleStudent}

	tests := []struct {
		name       string
		body       string
		identity   *domain.Identity
		wantStatus int
		wantType   apperrors.ErrorType
	}{
		{
			name:       "unauthenticated",
			body:       `{"candidate_id":"c1","ticket_code":"abc"}`,
			wantStatus: http.StatusUnauthorized,
			wantType:   apperrors.ErrorTypeAuthentication,
		},
		{
			name:       "invalid json",
			body:       `{"candidate_id":`,
			identity:   student,
			wantStatus: http.StatusBadRequest,
			wantType:   apperrors.ErrorTypeValidation,
		},
		{
			name:       "missing candidate",
			body:       `{"ticket_code":"abc"}`,
			identity:   student,
			wantStatus: http.StatusBadRequest,
			wantType:   apperrors.ErrorTypeValidation,
		},
		{
			name: "missing ticket code",
			// An election field in the body is ignored; the route decides.
			body:       `{"candidate_id":"c1","election_id":"someone-elses"}`,
			identity:   student,
			wantStatus: http.StatusBadRequest,
			wantType:   apperrors.ErrorTypeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.CastVote(rec, castRequest(t, tt.body, tt.identity))

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body apperrors.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body.Error.Type)
		})
	}
}
