package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	repository "github.com/talentbridge/talentbridge/internal/adapters/repository"
	service "github.com/talentbridge/talentbridge/internal/app"
	"github.com/talentbridge/talentbridge/internal/domain/model"
	"github.com/talentbridge/talentbridge/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

// fakePublisher records published events synchronously for assertions.
type fakePublisher struct {
	mu     sync.Mutex
	events []model.ReputationChangeEvent
}

func (f *fakePublisher) Publish(_ context.Context, ev model.ReputationChangeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakePublisher) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func (f *fakePublisher) all() []model.ReputationChangeEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.ReputationChangeEvent, len(f.events))
	copy(out, f.events)
	return out
}

func newAggregatorFixture(ctx context.Context, threshold float64) (*service.Aggregator, *fakePublisher, *repository.DB) {
	db, err := repository.Open(ctx, ":memory:")
	So(err, ShouldBeNil)

	pub := &fakePublisher{}
	agg := service.NewAggregator(
		repository.NewReputationStore(db),
		scoring.NewCalculator(),
		pub,
		service.WithSignificanceThreshold(threshold),
	)
	return agg, pub, db
}

func TestAggregator_RecordProposalResponse(t *testing.T) {
	Convey("Given an aggregator with the default threshold", t, func() {
		ctx := context.Background()
		agg, pub, db := newAggregatorFixture(ctx, 5)
		defer db.Close()

		Convey("When recording an accepted proposal", func() {
			err := agg.RecordProposalResponse(ctx, "rec-1", model.ResponseAccepted)

			Convey("Then the counter and score should move", func() {
				So(err, ShouldBeNil)
				rep, err := agg.Get(ctx, "rec-1")
				So(err, ShouldBeNil)
				So(rep.ProposalsAccepted, ShouldEqual, 1)
				// 50 + (100-50)*0.15 = 57.5
				So(rep.ReputationScore, ShouldEqual, 57.5)
				So(rep.LastCalculatedAt, ShouldNotBeNil)
			})

			Convey("And a change event should fire for the significant move", func() {
				So(err, ShouldBeNil)
				events := pub.all()
				So(len(events), ShouldEqual, 1)
				So(events[0].RecruiterID, ShouldEqual, "rec-1")
				So(events[0].OldScore, ShouldEqual, 50.0)
				So(events[0].NewScore, ShouldEqual, 57.5)
				So(events[0].Reason, ShouldEqual, model.ReasonRecalculation)
			})
		})

		Convey("When recording an unknown outcome", func() {
			err := agg.RecordProposalResponse(ctx, "rec-1", model.ProposalResponse("ghosted"))

			Convey("Then the aggregator should refuse it", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestAggregator_SignificanceThreshold(t *testing.T) {
	Convey("Given an aggregator with a threshold of 10", t, func() {
		ctx := context.Background()
		agg, pub, db := newAggregatorFixture(ctx, 10)
		defer db.Close()

		Convey("When the score moves less than the threshold", func() {
			// Accepted alone moves the score to 57.5, a 7.5 delta.
			So(agg.RecordProposalResponse(ctx, "rec-1", model.ResponseAccepted), ShouldBeNil)

			Convey("Then no event should fire", func() {
				So(pub.Len(), ShouldEqual, 0)
			})

			Convey("And further drift past the threshold should fire exactly once", func() {
				// Completed placement: completion +15, collaboration -7.5,
				// responsiveness +7.5, so the score lands at 65. The cumulative
				// move from the last announced score (50) is 15.
				So(agg.RecordPlacementOutcome(ctx, "rec-1", true, false), ShouldBeNil)

				events := pub.all()
				So(len(events), ShouldEqual, 1)
				So(events[0].OldScore, ShouldEqual, 50.0)
				So(events[0].NewScore, ShouldEqual, 65.0)

				Convey("And recalculating again without movement should stay quiet", func() {
					_, err := agg.Recalculate(ctx, "rec-1")
					So(err, ShouldBeNil)
					So(pub.Len(), ShouldEqual, 1)
				})
			})
		})

		Convey("When the score moves exactly the threshold", func() {
			tight, pub2, db2 := newAggregatorFixture(ctx, 7.5)
			defer db2.Close()
			So(tight.RecordProposalResponse(ctx, "rec-1", model.ResponseAccepted), ShouldBeNil)

			Convey("Then the event should fire on the boundary", func() {
				So(pub2.Len(), ShouldEqual, 1)
			})
		})
	})
}

func TestAggregator_PlacementsAndHires(t *testing.T) {
	Convey("Given an aggregator", t, func() {
		ctx := context.Background()
		agg, _, db := newAggregatorFixture(ctx, 5)
		defer db.Close()

		Convey("When recording a failed collaborative placement", func() {
			err := agg.RecordPlacementOutcome(ctx, "rec-1", false, true)

			Convey("Then the counters should split correctly", func() {
				So(err, ShouldBeNil)
				rep, err := agg.Get(ctx, "rec-1")
				So(err, ShouldBeNil)
				So(rep.TotalPlacements, ShouldEqual, 1)
				So(rep.FailedPlacements, ShouldEqual, 1)
				So(rep.CompletedPlacements, ShouldEqual, 0)
				So(rep.TotalCollaborations, ShouldEqual, 1)
			})
		})

		Convey("When recording submissions and hires", func() {
			So(agg.IncrementSubmissions(ctx, "rec-2"), ShouldBeNil)

			Convey("Then a submission alone should not recalculate", func() {
				rep, err := agg.Get(ctx, "rec-2")
				So(err, ShouldBeNil)
				So(rep.TotalSubmissions, ShouldEqual, 1)
				So(rep.LastCalculatedAt, ShouldBeNil)
			})

			Convey("And a hire should recalculate with the new denominator", func() {
				So(agg.IncrementHires(ctx, "rec-2"), ShouldBeNil)
				rep, err := agg.Get(ctx, "rec-2")
				So(err, ShouldBeNil)
				So(rep.TotalHires, ShouldEqual, 1)
				So(rep.HireRate, ShouldNotBeNil)
				So(*rep.HireRate, ShouldEqual, 100.0)
				So(rep.LastCalculatedAt, ShouldNotBeNil)
			})
		})
	})
}

func TestAggregator_ClockInjection(t *testing.T) {
	Convey("Given an aggregator with a fixed clock", t, func() {
		ctx := context.Background()
		db, err := repository.Open(ctx, ":memory:")
		So(err, ShouldBeNil)
		defer db.Close()

		fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		pub := &fakePublisher{}
		agg := service.NewAggregator(
			repository.NewReputationStore(db),
			scoring.NewCalculator(),
			pub,
			service.WithAggregatorClock(func() time.Time { return fixed }),
		)

		Convey("When a recalculation publishes an event", func() {
			So(agg.RecordProposalResponse(ctx, "rec-1", model.ResponseAccepted), ShouldBeNil)

			Convey("Then the event should carry the injected time", func() {
				events := pub.all()
				So(len(events), ShouldEqual, 1)
				So(events[0].OccurredAt.Equal(fixed), ShouldBeTrue)
			})
		})
	})
}
