package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/talentbridge/talentbridge/internal/adapters/http/api"
	repository "github.com/talentbridge/talentbridge/internal/adapters/repository"
	service "github.com/talentbridge/talentbridge/internal/app"
	"github.com/talentbridge/talentbridge/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDependencies implements api.Dependencies with canned responses.
type mockDependencies struct {
	reputation *model.RecruiterReputation
	proposal   *model.Proposal
	top        []model.RecruiterReputation
	swept      int
	err        error

	placementCalls  int
	submissionCalls int
	hireCalls       int
}

func (m *mockDependencies) Reputation(_ context.Context, recruiterID string) (*model.RecruiterReputation, error) {
	if m.err != nil {
		return nil, m.err
	}
	rep := *m.reputation
	rep.RecruiterID = recruiterID
	return &rep, nil
}

func (m *mockDependencies) Recalculate(ctx context.Context, recruiterID string) (*model.RecruiterReputation, error) {
	return m.Reputation(ctx, recruiterID)
}

func (m *mockDependencies) RecordPlacementOutcome(_ context.Context, _ string, _, _ bool) error {
	m.placementCalls++
	return m.err
}

func (m *mockDependencies) IncrementSubmissions(_ context.Context, _ string) error {
	m.submissionCalls++
	return m.err
}

func (m *mockDependencies) IncrementHires(_ context.Context, _ string) error {
	m.hireCalls++
	return m.err
}

func (m *mockDependencies) Leaderboard(_ context.Context, n int) ([]model.RecruiterReputation, error) {
	if m.err != nil {
		return nil, m.err
	}
	if n > len(m.top) {
		return m.top, nil
	}
	return m.top[:n], nil
}

func (m *mockDependencies) CreateProposal(_ context.Context, in service.CreateProposalInput) (*model.Proposal, error) {
	if m.err != nil {
		return nil, m.err
	}
	p := *m.proposal
	p.RecruiterID = in.RecruiterID
	return &p, nil
}

func (m *mockDependencies) GetProposal(_ context.Context, _ string) (*model.Proposal, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.proposal, nil
}

func (m *mockDependencies) RespondProposal(_ context.Context, _ string, _ service.Decision) (*model.Proposal, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.proposal, nil
}

func (m *mockDependencies) Sweep(_ context.Context) (int, error) {
	return m.swept, m.err
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newTestServer(deps *mockDependencies) http.Handler {
	srv := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, 10, 100)
	return srv.Handler()
}

func defaultDeps() *mockDependencies {
	now := time.Now().UTC()
	return &mockDependencies{
		reputation: &model.RecruiterReputation{ReputationScore: 57.5},
		proposal: &model.Proposal{
			ID:            "prop-1",
			RecruiterID:   "rec-1",
			CandidateID:   "cand-1",
			JobID:         "job-1",
			State:         model.StateProposed,
			ProposedAt:    now,
			ResponseDueAt: now.Add(72 * time.Hour),
		},
		top: []model.RecruiterReputation{
			{RecruiterID: "rec-a", ReputationScore: 90},
			{RecruiterID: "rec-b", ReputationScore: 70},
		},
		swept: 3,
	}
}

func decodeData(body string) map[string]interface{} {
	var out map[string]interface{}
	So(json.Unmarshal([]byte(body), &out), ShouldBeNil)
	return out
}

func TestReputationEndpoints(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := defaultDeps()
		handler := newTestServer(deps)

		Convey("When fetching a recruiter's reputation", func() {
			req := httptest.NewRequest("GET", "/api/recruiters/rec-1/reputation", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			Convey("Then the aggregate should come back in the data envelope", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decodeData(w.Body.String())
				data, ok := body["data"].(map[string]interface{})
				So(ok, ShouldBeTrue)
				So(data["recruiter_id"], ShouldEqual, "rec-1")
				So(data["reputation_score"], ShouldEqual, 57.5)
			})
		})

		Convey("When forcing a recalculation", func() {
			req := httptest.NewRequest("POST", "/api/recruiters/rec-1/reputation/recalculate", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			Convey("Then it should answer with the fresh aggregate", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When reporting a placement outcome", func() {
			req := httptest.NewRequest("POST", "/api/recruiters/rec-1/reputation/placement-outcome",
				strings.NewReader(`{"completed": true, "was_collaboration": false}`))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			Convey("Then the outcome should be recorded", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.placementCalls, ShouldEqual, 1)
			})
		})

		Convey("When reporting a placement outcome with a broken body", func() {
			req := httptest.NewRequest("POST", "/api/recruiters/rec-1/reputation/placement-outcome",
				strings.NewReader(`{`))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			Convey("Then the request should be rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.placementCalls, ShouldEqual, 0)
			})
		})

		Convey("When recording submissions and hires", func() {
			for _, path := range []string{"/api/recruiters/rec-1/submissions", "/api/recruiters/rec-1/hires"} {
				req := httptest.NewRequest("POST", path, nil)
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			}

			Convey("Then both hooks should have fired", func() {
				So(deps.submissionCalls, ShouldEqual, 1)
				So(deps.hireCalls, ShouldEqual, 1)
			})
		})
	})
}

func TestLeaderboardEndpoint(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := defaultDeps()
		handler := newTestServer(deps)

		Convey("When fetching the leaderboard without a limit", func() {
			req := httptest.NewRequest("GET", "/api/reputation/leaderboard", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			Convey("Then the default limit should apply", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decodeData(w.Body.String())
				entries, ok := body["data"].([]interface{})
				So(ok, ShouldBeTrue)
				So(len(entries), ShouldEqual, 2)
			})
		})

		Convey("When the limit is not a positive integer", func() {
			for _, limit := range []string{"0", "-3", "abc"} {
				req := httptest.NewRequest("GET", "/api/reputation/leaderboard?limit="+limit, nil)
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When the limit exceeds the cap", func() {
			req := httptest.NewRequest("GET", "/api/reputation/leaderboard?limit=500", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			Convey("Then the request should be rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestProposalEndpoints(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := defaultDeps()
		handler := newTestServer(deps)

		Convey("When creating a proposal", func() {
			req := httptest.NewRequest("POST", "/api/proposals",
				strings.NewReader(`{"recruiter_id":"rec-1","candidate_id":"cand-1","job_id":"job-1"}`))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			Convey("Then it should answer 201 with the proposal", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				body := decodeData(w.Body.String())
				data, ok := body["data"].(map[string]interface{})
				So(ok, ShouldBeTrue)
				So(data["state"], ShouldEqual, "proposed")
			})
		})

		Convey("When creating a proposal with missing fields", func() {
			req := httptest.NewRequest("POST", "/api/proposals",
				strings.NewReader(`{"recruiter_id":"rec-1"}`))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			Convey("Then it should answer 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When creating a proposal with a malformed deadline", func() {
			req := httptest.NewRequest("POST", "/api/proposals",
				strings.NewReader(`{"recruiter_id":"rec-1","candidate_id":"cand-1","job_id":"job-1","response_due_at":"tomorrow"}`))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			Convey("Then it should answer 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When fetching an unknown proposal", func() {
			deps.err = repository.ErrNotFound
			req := httptest.NewRequest("GET", "/api/proposals/missing", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			Convey("Then it should answer 404", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				body := decodeData(w.Body.String())
				So(body["code"], ShouldEqual, "not_found")
			})
		})

		Convey("When responding to a proposal", func() {
			req := httptest.NewRequest("PATCH", "/api/proposals/prop-1",
				strings.NewReader(`{"decision":"accept"}`))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			Convey("Then it should answer 200", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When responding with an unknown decision", func() {
			req := httptest.NewRequest("PATCH", "/api/proposals/prop-1",
				strings.NewReader(`{"decision":"maybe"}`))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			Convey("Then it should answer 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When responding to an already terminal proposal", func() {
			deps.err = model.ErrInvalidState
			req := httptest.NewRequest("PATCH", "/api/proposals/prop-1",
				strings.NewReader(`{"decision":"decline"}`))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			Convey("Then it should answer 409", func() {
				So(w.Code, ShouldEqual, http.StatusConflict)
				body := decodeData(w.Body.String())
				So(body["code"], ShouldEqual, "invalid_state")
			})
		})

		Convey("When responding to an expired proposal", func() {
			deps.err = model.ErrExpired
			req := httptest.NewRequest("PATCH", "/api/proposals/prop-1",
				strings.NewReader(`{"decision":"accept"}`))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			Convey("Then it should answer 410", func() {
				So(w.Code, ShouldEqual, http.StatusGone)
				body := decodeData(w.Body.String())
				So(body["code"], ShouldEqual, "expired")
			})
		})

		Convey("When triggering a sweep", func() {
			req := httptest.NewRequest("POST", "/api/internal/sweep", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			Convey("Then it should report how many proposals were expired", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decodeData(w.Body.String())
				data, ok := body["data"].(map[string]interface{})
				So(ok, ShouldBeTrue)
				So(data["swept"], ShouldEqual, 3)
			})
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given the API server", t, func() {
		handler := newTestServer(defaultDeps())

		Convey("When checking health", func() {
			req := httptest.NewRequest("GET", "/healthz", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			Convey("Then it should answer ok", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "ok")
			})
		})

		Convey("When fetching stats", func() {
			req := httptest.NewRequest("GET", "/stats", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			Convey("Then the provider's stats should come back", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "started")
			})
		})

		Convey("When scraping metrics", func() {
			req := httptest.NewRequest("GET", "/metrics", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			Convey("Then the endpoint should respond", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}
