package api

import (
	"errors"
	"net/http"

	"github.com/talentbridge/talentbridge/internal/adapters/repository"
	"github.com/talentbridge/talentbridge/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// statusFor translates an error from the service layer into a status and a
// stable error code. Concurrency conflicts never reach this point; the
// lifecycle absorbs them into model.ErrInvalidState before they surface.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrExpired):
		return http.StatusGone, "expired"
	case errors.Is(err, model.ErrInvalidState):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeServiceError applies statusFor and writes the error envelope.
func writeServiceError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}
