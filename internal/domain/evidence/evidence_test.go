package evidence_test

import (
	"testing"

	"github.com/okian/pitchcast/internal/domain/evidence"
	"github.com/okian/pitchcast/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLikelihood(t *testing.T) {
	Convey("Given evidence combinations", t, func() {
		So(evidence.Likelihood(evidence.Evidence{MomentumScore: 0.5}), ShouldEqual, 1.0)
		So(evidence.Likelihood(evidence.Evidence{MarketVelocity: 0.06, MomentumScore: 0.8}), ShouldAlmostEqual, 1.25, 1e-12)
		So(evidence.Likelihood(evidence.Evidence{MarketVelocity: -0.06, MomentumScore: 0.2}), ShouldAlmostEqual, 0.75, 1e-12)
		So(evidence.Likelihood(evidence.Evidence{MarketVelocity: 0.05, MomentumScore: 0.7}), ShouldEqual, 1.0)
	})
}

func TestRefine(t *testing.T) {
	Convey("Given a home-favored base", t, func() {
		base := model.Distribution{Home: 50, Draw: 25, Away: 25}

		Convey("When the evidence supports the favorite", func() {
			out := evidence.Refine(base, evidence.Evidence{MarketVelocity: 0.1, MomentumScore: 0.9})

			Convey("Then only the favored side is boosted before renormalizing", func() {
				So(out.Sum(), ShouldAlmostEqual, 100, 1e-9)
				So(out.Home, ShouldAlmostEqual, 62.5/112.5*100, 1e-9)
				So(out.Draw, ShouldAlmostEqual, out.Away, 1e-9)
			})
		})

		Convey("When the evidence is neutral", func() {
			out := evidence.Refine(base, evidence.Evidence{MomentumScore: 0.5})
			So(out, ShouldResemble, base.Normalize())
		})
	})

	Convey("Given an away-favored base", t, func() {
		base := model.Distribution{Home: 20, Draw: 30, Away: 50}
		out := evidence.Refine(base, evidence.Evidence{MarketVelocity: 0.2, MomentumScore: 0.5})

		Convey("Then the away side takes the multiplier", func() {
			So(out.Away, ShouldBeGreaterThan, 50)
			So(out.Home/out.Draw, ShouldAlmostEqual, 20.0/30.0, 1e-9)
		})
	})
}

func TestMomentum(t *testing.T) {
	Convey("Given form strings", t, func() {
		So(evidence.MomentumFromForm("WWWWW"), ShouldEqual, 1)
		So(evidence.MomentumFromForm("LLLLL"), ShouldEqual, 0)
		So(evidence.MomentumFromForm(""), ShouldEqual, 0.5)
		So(evidence.MomentumFromForm("LLLLLWWWWW"), ShouldEqual, 1)
		So(evidence.MomentumFromForm("w-d"), ShouldAlmostEqual, 4.0/6.0, 1e-12)
	})

	Convey("Given two teams' forms", t, func() {
		So(evidence.MatchMomentum("WWWWW", "LLLLL"), ShouldEqual, 1)
		So(evidence.MatchMomentum("WDWDW", "WDWDW"), ShouldEqual, 0.5)
		So(evidence.MatchMomentum("", ""), ShouldEqual, 0.5)
		So(evidence.MatchMomentum("LLLLL", "LLLLL"), ShouldEqual, 0.5)
	})
}
