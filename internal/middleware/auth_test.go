package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repvote/internal/domain"
	"repvote/internal/service/auth"
	"repvote/pkg/logger"
)

func newAuthFixture(t *testing.T) (*auth.Service, func(http.Handler) http.Handler, *logger.Logger) {
	t.Helper()

	log, err := logger.New("error")
	require.NoError(t, err)

	authService := auth.NewService("test-secret", log.Logger)
	return authService, Auth(authService, log), log
}

func okHandler(t *testing.T, wantSub string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFromContext(r.Context())
		require.NotNil(t, identity)
		assert.Equal(t, wantSub, identity.Sub)
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	authService, mw, _ := newAuthFixture(t)

	token, err := authService.IssueToken(&domain.Identity{Sub: "s1", Role: domain.RoleStudent}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	mw(okHandler(t, "s1")).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddlewareRejections(t *testing.T) {
	_, mw, _ := newAuthFixture(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			called := false
			mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			})).ServeHTTP(rec, req)

			assert.False(t, called)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestRequireRole(t *testing.T) {
	authService, mw, log := newAuthFixture(t)

	studentToken, err := authService.IssueToken(&domain.Identity{Sub: "s1", Role: domain.RoleStudent}, time.Hour)
	require.NoError(t, err)

	teacherOnly := mw(RequireRole(domain.RoleTeacher, log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+studentToken)
	rec := httptest.NewRecorder()
	teacherOnly.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	teacherToken, err := authService.IssueToken(&domain.Identity{Sub: "t1", Role: domain.RoleTeacher}, time.Hour)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+teacherToken)
	rec = httptest.NewRecorder()
	teacherOnly.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	log, err := logger.New("error")
	require.NoError(t, err)

	handler := RequestID(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := r.Context().Value(RequestIDContextKey).(string)
		assert.NotEmpty(t, id)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
