package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	service "github.com/talentbridge/talentbridge/internal/app"
)

// ProposalHandler handles proposal lifecycle requests.
type ProposalHandler struct {
	deps Dependencies
}

// NewProposalHandler creates a new proposal handler.
func NewProposalHandler(deps Dependencies) *ProposalHandler {
	return &ProposalHandler{deps: deps}
}

// createProposalRequest mirrors the body of POST /api/proposals.
// ResponseDueAt is optional RFC3339; absent means the configured window.
type createProposalRequest struct {
	RecruiterID   string `json:"recruiter_id"`
	CandidateID   string `json:"candidate_id"`
	JobID         string `json:"job_id"`
	ResponseDueAt string `json:"response_due_at,omitempty"`
}

func (c createProposalRequest) validate() error {
	switch {
	case strings.TrimSpace(c.RecruiterID) == "":
		return fmt.Errorf("%w: missing recruiter_id", ErrBadRequest)
	case strings.TrimSpace(c.CandidateID) == "":
		return fmt.Errorf("%w: missing candidate_id", ErrBadRequest)
	case strings.TrimSpace(c.JobID) == "":
		return fmt.Errorf("%w: missing job_id", ErrBadRequest)
	}
	if c.ResponseDueAt != "" {
		if _, err := time.Parse(time.RFC3339, c.ResponseDueAt); err != nil {
			return fmt.Errorf("%w: invalid response_due_at; must be RFC3339", ErrBadRequest)
		}
	}
	return nil
}

// HandleCreateProposal handles POST /api/proposals.
func (h *ProposalHandler) HandleCreateProposal(w http.ResponseWriter, r *http.Request) {
	var req createProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid body: %w", err))
		return
	}
	if err := req.validate(); err != nil {
		writeServiceError(w, err)
		return
	}

	in := service.CreateProposalInput{
		RecruiterID: req.RecruiterID,
		CandidateID: req.CandidateID,
		JobID:       req.JobID,
	}
	if req.ResponseDueAt != "" {
		due, _ := time.Parse(time.RFC3339, req.ResponseDueAt)
		in.ResponseDueAt = &due
	}

	p, err := h.deps.CreateProposal(r.Context(), in)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeData(w, http.StatusCreated, p)
}

// HandleGetProposal handles GET /api/proposals/{proposalID}.
func (h *ProposalHandler) HandleGetProposal(w http.ResponseWriter, r *http.Request) {
	id, err := proposalParam(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	p, err := h.deps.GetProposal(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, p)
}

// respondProposalRequest mirrors the body of PATCH /api/proposals/{proposalID}.
type respondProposalRequest struct {
	Decision string `json:"decision"`
}

// HandleRespondProposal handles PATCH /api/proposals/{proposalID}. A proposal
// past its deadline answers 410 regardless of whether the sweep has caught it
// yet; a proposal already terminal answers 409.
func (h *ProposalHandler) HandleRespondProposal(w http.ResponseWriter, r *http.Request) {
	id, err := proposalParam(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req respondProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid body: %w", err))
		return
	}
	decision, err := service.ParseDecision(req.Decision)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	p, err := h.deps.RespondProposal(r.Context(), id, decision)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, p)
}

// sweepResponse reports how many proposals a sweep pass expired.
type sweepResponse struct {
	Swept int `json:"swept"`
}

// HandleSweep handles POST /api/internal/sweep, the cron trigger. Safe to
// call at any time; an overlapping pass is a no-op for already-swept rows.
func (h *ProposalHandler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	swept, err := h.deps.Sweep(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, sweepResponse{Swept: swept})
}

func proposalParam(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "proposalID"))
	if id == "" {
		return "", fmt.Errorf("%w: missing proposal id", ErrBadRequest)
	}
	return id, nil
}
