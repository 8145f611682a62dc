package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ReputationHandler handles recruiter reputation requests.
type ReputationHandler struct {
	deps Dependencies
}

// NewReputationHandler creates a new reputation handler.
func NewReputationHandler(deps Dependencies) *ReputationHandler {
	return &ReputationHandler{deps: deps}
}

// HandleGetReputation handles GET /api/recruiters/{recruiterID}/reputation.
// An unknown recruiter gets a zero-valued aggregate, never a 404.
func (h *ReputationHandler) HandleGetReputation(w http.ResponseWriter, r *http.Request) {
	recruiterID, err := recruiterParam(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rep, err := h.deps.Reputation(r.Context(), recruiterID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, rep)
}

// HandleRecalculate handles POST /api/recruiters/{recruiterID}/reputation/recalculate.
func (h *ReputationHandler) HandleRecalculate(w http.ResponseWriter, r *http.Request) {
	recruiterID, err := recruiterParam(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rep, err := h.deps.Recalculate(r.Context(), recruiterID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, rep)
}

// placementOutcomeRequest mirrors the body of the placement-outcome hook.
type placementOutcomeRequest struct {
	Completed        bool `json:"completed"`
	WasCollaboration bool `json:"was_collaboration"`
}

// HandlePlacementOutcome handles POST
// /api/recruiters/{recruiterID}/reputation/placement-outcome.
func (h *ReputationHandler) HandlePlacementOutcome(w http.ResponseWriter, r *http.Request) {
	recruiterID, err := recruiterParam(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req placementOutcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid body: %w", err))
		return
	}
	if err := h.deps.RecordPlacementOutcome(r.Context(), recruiterID, req.Completed, req.WasCollaboration); err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"message": "placement outcome recorded"})
}

// HandleSubmission handles POST /api/recruiters/{recruiterID}/submissions.
func (h *ReputationHandler) HandleSubmission(w http.ResponseWriter, r *http.Request) {
	recruiterID, err := recruiterParam(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.deps.IncrementSubmissions(r.Context(), recruiterID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"message": "submission recorded"})
}

// HandleHire handles POST /api/recruiters/{recruiterID}/hires.
func (h *ReputationHandler) HandleHire(w http.ResponseWriter, r *http.Request) {
	recruiterID, err := recruiterParam(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.deps.IncrementHires(r.Context(), recruiterID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"message": "hire recorded"})
}

func recruiterParam(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "recruiterID"))
	if id == "" {
		return "", fmt.Errorf("%w: missing recruiter id", ErrBadRequest)
	}
	return id, nil
}
