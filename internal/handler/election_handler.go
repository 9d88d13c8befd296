package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"repvote/internal/domain"
	"repvote/internal/middleware"
	"repvote/internal/service"
	"repvote/pkg/errors"
)

// ElectionHandler exposes teacher election management and listings
type ElectionHandler struct {
	electionService *service.ElectionService
}

// NewElectionHandler creates a new election handler
func NewElectionHandler(electionService *service.ElectionService) *ElectionHandler {
	return &ElectionHandler{electionService: electionService}
}

// Create handles POST /api/elections (teacher only)
func (h *ElectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		respondAppError(w, errors.NewAuthenticationError("Authentication required"))
		return
	}

	var req domain.CreateElectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAppError(w, errors.NewValidationError("Invalid request body", nil))
		return
	}

	election, err := h.electionService.Create(r.Context(), identity.Sub, &req)
	if err != nil {
		switch err {
		case domain.ErrStudentNotFound, domain.ErrElectionNotFound, domain.ErrNotEligible:
			respondDomainError(w, err)
		default:
			// Creation failures are overwhelmingly validation problems
			respondAppError(w, errors.NewValidationError(err.Error(), nil))
		}
		return
	}

	respondJSON(w, http.StatusCreated, election)
}

// Stop handles POST /api/elections/{electionID}/stop (teacher only)
func (h *ElectionHandler) Stop(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		respondAppError(w, errors.NewAuthenticationError("Authentication required"))
		return
	}

	electionID := chi.URLParam(r, "electionID")

	election, err := h.electionService.Stop(r.Context(), identity.Sub, electionID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, election)
}

// Get handles GET /api/elections/{electionID}
func (h *ElectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	electionID := chi.URLParam(r, "electionID")

	view, err := h.electionService.Get(r.Context(), electionID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// List handles GET /api/elections. Students see their cohort's elections,
// teachers see the ones they created.
func (h *ElectionHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		respondAppError(w, errors.NewAuthenticationError("Authentication required"))
		return
	}

	var (
		views []domain.ElectionView
		err   error
	)
	if identity.Role == domain.RoleTeacher {
		views, err = h.electionService.ListForTeacher(r.Context(), identity.Sub)
	} else {
		views, err = h.electionService.ListForStudent(r.Context(), identity.Sub)
	}
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"elections": views,
	})
}
