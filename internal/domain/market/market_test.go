package market_test

import (
	"testing"

	"github.com/okian/pitchcast/internal/domain/market"
	"github.com/okian/pitchcast/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func snaps(homes ...float64) []model.OddsSnapshot {
	out := make([]model.OddsSnapshot, len(homes))
	for i, h := range homes {
		out[i] = model.OddsSnapshot{Home: h, Away: 3}
	}
	return out
}

func TestImpliedProb(t *testing.T) {
	Convey("Given decimal prices", t, func() {
		So(market.ImpliedProb(2), ShouldEqual, 0.5)
		So(market.ImpliedProb(0), ShouldEqual, 0)
		So(market.ImpliedProb(-1.5), ShouldEqual, 0)
	})
}

func TestDriftVelocity(t *testing.T) {
	Convey("Given odds histories", t, func() {
		Convey("When the history is empty or a single snapshot", func() {
			So(market.DriftVelocity(nil), ShouldEqual, 0)
			So(market.DriftVelocity(snaps(2.0)), ShouldEqual, 0)
		})

		Convey("When the home price shortens", func() {
			v := market.DriftVelocity(snaps(2.5, 2.2, 2.0))

			Convey("Then velocity is the implied change over the snapshot count", func() {
				So(v, ShouldAlmostEqual, (0.5-0.4)/3, 1e-12)
			})
		})
	})
}

func TestClassifyForce(t *testing.T) {
	Convey("Given velocities", t, func() {
		So(market.ClassifyForce(0.06), ShouldResemble, market.Force{Level: market.LevelCritical, Direction: market.BullishHome})
		So(market.ClassifyForce(-0.03), ShouldResemble, market.Force{Level: market.LevelSignificant, Direction: market.BearishHome})
		So(market.ClassifyForce(0.01).Level, ShouldEqual, market.LevelNeutral)
		So(market.ClassifyForce(0).Direction, ShouldEqual, market.BearishHome)
	})
}

func TestDetectSharpMoney(t *testing.T) {
	Convey("Given the home price moves from 2.10 to 1.80", t, func() {
		sm := market.DetectSharpMoney(1.80, 2.10)

		Convey("Then it is critical money on home", func() {
			So(sm.Level, ShouldEqual, market.LevelCritical)
			So(sm.Direction, ShouldEqual, model.SideHome)
			So(sm.MovePercent, ShouldAlmostEqual, (1/1.8-1/2.1)*100, 1e-9)
		})
	})

	Convey("Given the home price drifts slightly", t, func() {
		sm := market.DetectSharpMoney(2.05, 2.00)
		So(sm.Level, ShouldEqual, market.LevelLow)
		So(sm.Direction, ShouldEqual, model.SideAway)
	})

	Convey("Given a missing price", t, func() {
		So(market.DetectSharpMoney(0, 2.0).Level, ShouldEqual, market.LevelNeutral)
	})
}

func TestAnalyze(t *testing.T) {
	Convey("Given no history", t, func() {
		sig := market.Analyze(model.Odds{Home: 2, Away: 3})
		So(sig, ShouldResemble, market.Neutral())
	})

	Convey("Given a history and an unset current price", t, func() {
		sig := market.Analyze(model.Odds{History: snaps(2.10, 1.95, 1.80)})

		Convey("Then the latest snapshot stands in for the current price", func() {
			So(sig.Sharp.Level, ShouldEqual, market.LevelCritical)
			So(sig.Velocity, ShouldBeGreaterThan, 0)
		})
	})
}

func TestVortexMultiplier(t *testing.T) {
	Convey("Given velocities of any size", t, func() {
		So(market.VortexMultiplier(0), ShouldEqual, 1)
		So(market.VortexMultiplier(0.5), ShouldAlmostEqual, 1.15, 1e-12)
		So(market.VortexMultiplier(-0.5), ShouldAlmostEqual, 0.85, 1e-12)
	})
}

func TestMargin(t *testing.T) {
	Convey("Given a three-way book", t, func() {
		odds := model.Odds{Home: 2.0, Draw: 3.4, Away: 3.8}
		fair, ok := market.FairProbabilities(odds)

		Convey("Then the overround is positive and fair probabilities sum to 100", func() {
			So(market.Margin(odds), ShouldBeGreaterThan, 0)
			So(ok, ShouldBeTrue)
			So(fair.Sum(), ShouldAlmostEqual, 100, 1e-9)
			So(fair.Home, ShouldBeGreaterThan, fair.Away)
		})
	})

	Convey("Given a two-way book", t, func() {
		fair, ok := market.FairProbabilities(model.Odds{Home: 1.9, Away: 1.9})
		So(ok, ShouldBeTrue)
		So(fair.Draw, ShouldEqual, 0)
		So(fair.Home, ShouldAlmostEqual, 50, 1e-9)
	})

	Convey("Given an unpriced side", t, func() {
		_, ok := market.FairProbabilities(model.Odds{Home: 1.9})
		So(ok, ShouldBeFalse)
	})
}
