package scoring_test

import (
	"testing"

	scoring "github.com/talentbridge/talentbridge/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCalculator_Calculate(t *testing.T) {
	Convey("Given a calculator with default policy", t, func() {
		calc := scoring.NewCalculator()

		Convey("When scoring a recruiter with no activity", func() {
			res := calc.Calculate(scoring.Input{})

			Convey("Then the score should be exactly the baseline", func() {
				So(res.Score, ShouldEqual, 50.0)
			})

			Convey("And every rate should be undefined", func() {
				So(res.HireRate, ShouldBeNil)
				So(res.CompletionRate, ShouldBeNil)
				So(res.CollaborationRate, ShouldBeNil)
				So(res.ResponsivenessRate, ShouldBeNil)
			})
		})

		Convey("When scoring a strong recruiter", func() {
			res := calc.Calculate(scoring.Input{
				TotalSubmissions: 10,
				TotalHires:       8,
			})

			Convey("Then the hire rate should be 80 percent", func() {
				So(res.HireRate, ShouldNotBeNil)
				So(*res.HireRate, ShouldEqual, 80.0)
			})

			Convey("And the score should sit above the baseline", func() {
				// 50 + (80-50)*0.40 = 62
				So(res.Score, ShouldEqual, 62.0)
			})
		})

		Convey("When scoring a weak recruiter", func() {
			res := calc.Calculate(scoring.Input{
				TotalSubmissions:  10,
				TotalHires:        1,
				ProposalsTimedOut: 5,
			})

			Convey("Then the score should sit below the baseline", func() {
				// 50 + (10-50)*0.40 + (0-50)*0.15 = 26.5
				So(res.Score, ShouldEqual, 26.5)
			})
		})

		Convey("When every signal is maximally bad", func() {
			res := calc.Calculate(scoring.Input{
				TotalSubmissions:  100,
				TotalHires:        0,
				TotalPlacements:   10,
				ProposalsTimedOut: 20,
			})

			Convey("Then the score should stay within bounds", func() {
				So(res.Score, ShouldBeGreaterThanOrEqualTo, 0.0)
				So(res.Score, ShouldBeLessThanOrEqualTo, 100.0)
			})
		})

		Convey("When every signal is maximally good", func() {
			res := calc.Calculate(scoring.Input{
				TotalSubmissions:    10,
				TotalHires:          10,
				TotalPlacements:     10,
				CompletedPlacements: 10,
				TotalCollaborations: 10,
				ProposalsAccepted:   10,
			})

			Convey("Then the score should reach the cap exactly once clamped", func() {
				// 50 + 50*0.40 + 50*0.30 + 50*0.15 + 50*0.15 = 100
				So(res.Score, ShouldEqual, 100.0)
			})
		})

		Convey("When responsiveness mixes answers and lapses", func() {
			res := calc.Calculate(scoring.Input{
				ProposalsAccepted: 3,
				ProposalsDeclined: 3,
				ProposalsTimedOut: 2,
			})

			Convey("Then declines count as answered, not as lapses", func() {
				So(res.ResponsivenessRate, ShouldNotBeNil)
				So(*res.ResponsivenessRate, ShouldEqual, 75.0)
			})
		})
	})
}

func TestCalculator_Bounds(t *testing.T) {
	Convey("Given a calculator and a grid of counter combinations", t, func() {
		calc := scoring.NewCalculator()

		Convey("Then every computed score should stay in [0,100]", func() {
			values := []int64{0, 1, 7, 1000}
			for _, subs := range values {
				for _, hires := range values {
					for _, placements := range values {
						for _, timedOut := range values {
							res := calc.Calculate(scoring.Input{
								TotalSubmissions:  subs,
								TotalHires:        hires,
								TotalPlacements:   placements,
								ProposalsTimedOut: timedOut,
							})
							So(res.Score, ShouldBeGreaterThanOrEqualTo, 0.0)
							So(res.Score, ShouldBeLessThanOrEqualTo, 100.0)
						}
					}
				}
			}
		})
	})
}

func TestCalculator_Options(t *testing.T) {
	Convey("Given a calculator with a custom baseline and weights", t, func() {
		calc := scoring.NewCalculator(
			scoring.WithBaseline(60),
			scoring.WithWeights(1.0, 0, 0, 0),
		)

		Convey("When the hire rate is 100 percent", func() {
			res := calc.Calculate(scoring.Input{TotalSubmissions: 5, TotalHires: 5})

			Convey("Then only the hire signal should move the score", func() {
				// 60 + (100-50)*1.0 = 110 clamped to 100
				So(res.Score, ShouldEqual, 100.0)
			})
		})

		Convey("When there is no activity", func() {
			res := calc.Calculate(scoring.Input{})

			Convey("Then the score should be the custom baseline", func() {
				So(res.Score, ShouldEqual, 60.0)
			})
		})
	})
}
