// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	service "github.com/talentbridge/talentbridge/internal/app"
	"github.com/talentbridge/talentbridge/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Reputation operations.
	Reputation(ctx context.Context, recruiterID string) (*model.RecruiterReputation, error)
	Recalculate(ctx context.Context, recruiterID string) (*model.RecruiterReputation, error)
	RecordPlacementOutcome(ctx context.Context, recruiterID string, completed, wasCollaboration bool) error
	IncrementSubmissions(ctx context.Context, recruiterID string) error
	IncrementHires(ctx context.Context, recruiterID string) error
	Leaderboard(ctx context.Context, n int) ([]model.RecruiterReputation, error)

	// Proposal operations.
	CreateProposal(ctx context.Context, in service.CreateProposalInput) (*model.Proposal, error)
	GetProposal(ctx context.Context, id string) (*model.Proposal, error)
	RespondProposal(ctx context.Context, id string, decision service.Decision) (*model.Proposal, error)
	Sweep(ctx context.Context) (int, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	reputationHandler  *ReputationHandler
	proposalHandler    *ProposalHandler
	leaderboardHandler *LeaderboardHandler
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, defaultLimit, maxLimit int) *Server {
	return &Server{
		reputationHandler:  NewReputationHandler(deps),
		proposalHandler:    NewProposalHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, defaultLimit, maxLimit),
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
	}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/metrics", s.healthHandler.HandleMetrics)
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/api", func(r chi.Router) {
		r.Route("/recruiters/{recruiterID}", func(r chi.Router) {
			r.Get("/reputation", MetricsMiddleware(s.reputationHandler.HandleGetReputation, "reputation"))
			r.Post("/reputation/recalculate", MetricsMiddleware(s.reputationHandler.HandleRecalculate, "recalculate"))
			r.Post("/reputation/placement-outcome", MetricsMiddleware(s.reputationHandler.HandlePlacementOutcome, "placement_outcome"))
			r.Post("/submissions", MetricsMiddleware(s.reputationHandler.HandleSubmission, "submissions"))
			r.Post("/hires", MetricsMiddleware(s.reputationHandler.HandleHire, "hires"))
		})

		r.Get("/reputation/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))

		r.Route("/proposals", func(r chi.Router) {
			r.Post("/", MetricsMiddleware(s.proposalHandler.HandleCreateProposal, "proposals_create"))
			r.Get("/{proposalID}", MetricsMiddleware(s.proposalHandler.HandleGetProposal, "proposals_get"))
			r.Patch("/{proposalID}", MetricsMiddleware(s.proposalHandler.HandleRespondProposal, "proposals_respond"))
		})

		r.Post("/internal/sweep", MetricsMiddleware(s.proposalHandler.HandleSweep, "sweep"))
	})

	return r
}

// dataResponse is the success envelope shared by every JSON endpoint.
type dataResponse struct {
	Data any `json:"data"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, dataResponse{Data: v})
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
