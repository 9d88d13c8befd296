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

// VotingHandler exposes the ticket/ballot core over HTTP
type VotingHandler struct {
	ticketService *service.TicketService
	ballotService *service.BallotService
	resultService *service.ResultService
}

// NewVotingHandler creates a new voting handler
func NewVotingHandler(ticketService *service.TicketService, ballotService *service.BallotService, resultService *service.ResultService) *VotingHandler {
	return &VotingHandler{
		ticketService: ticketService,
		ballotService: ballotService,
		resultService: resultService,
	}
}

// RequestTicket handles POST /api/elections/{electionID}/ticket
func (h *VotingHandler) RequestTicket(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		respondAppError(w, errors.NewAuthenticationError("Authentication required"))
		return
	}

	electionID := chi.URLParam(r, "electionID")
	if electionID == "" {
		respondAppError(w, errors.NewValidationError("Election ID is required", nil))
		return
	}

	response, err := h.ticketService.RequestTicket(r.Context(), identity.Sub, electionID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, response)
}

// CastVote handles POST /api/elections/{electionID}/vote
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		respondAppError(w, errors.NewAuthenticationError("Authentication required"))
		return
	}

	electionID := chi.URLParam(r, "electionID")

	var req domain.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondAppError(w, errors.NewValidationError("Invalid request body", nil))
		return
	}

	if req.CandidateID == "" {
		respondAppError(w, errors.NewValidationError("Candidate ID is required", nil))
		return
	}
	if req.TicketCode == "" {
		respondAppError(w, errors.NewValidationError("Ticket code is required", nil))
		return
	}

	response, err := h.ballotService.CastVote(r.Context(), identity.Sub, electionID, req.CandidateID, req.TicketCode)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, response)
}

// GetResults handles GET /api/elections/{electionID}/results
func (h *VotingHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	electionID := chi.URLParam(r, "electionID")

	results, err := h.resultService.GetResults(r.Context(), electionID, identity)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, results)
}

// GetMyVoteStatus handles GET /api/elections/{electionID}/my-status
func (h *VotingHandler) GetMyVoteStatus(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		respondAppError(w, errors.NewAuthenticationError("Authentication required"))
		return
	}

	electionID := chi.URLParam(r, "electionID")

	status, err := h.ballotService.GetVoteStatus(r.Context(), electionID, identity.Sub)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, status)
}
