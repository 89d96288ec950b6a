package signal_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/okian/pitchcast/internal/domain/model"
	"github.com/okian/pitchcast/internal/domain/signal"
	"github.com/okian/pitchcast/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestValidate(t *testing.T) {
	Convey("Given signals", t, func() {
		Convey("Then well-formed ones pass", func() {
			So(signal.Additive("sentiment", model.SideAway, 0.4, 0.8).Validate(), ShouldBeNil)
			So(signal.Multiplicative("tactical", 1.1, 0.6).Validate(), ShouldBeNil)
		})

		Convey("Then malformed ones fail with ErrInvalidSignal", func() {
			bad := []signal.Signal{
				{Name: "", Confidence: 0.5},
				{Name: "x", Side: "left", Confidence: 0.5},
				{Name: "x", AdditiveDelta: math.NaN(), Confidence: 0.5},
				{Name: "x", MultiplicativeFactor: -1, Confidence: 0.5},
				{Name: "x", Confidence: 1.5},
			}
			for _, s := range bad {
				So(errors.Is(s.Validate(), signal.ErrInvalidSignal), ShouldBeTrue)
			}
		})

		Convey("Then an empty side targets home", func() {
			So(signal.Signal{Name: "x"}.TargetSide(), ShouldEqual, model.SideHome)
			So(signal.Signal{Name: "x", Side: model.SideDraw}.TargetSide(), ShouldEqual, model.SideDraw)
		})

		Convey("Then factors of 0 and 1 are inert", func() {
			So(signal.Signal{MultiplicativeFactor: 0}.HasFactor(), ShouldBeFalse)
			So(signal.Signal{MultiplicativeFactor: 1}.HasFactor(), ShouldBeFalse)
			So(signal.Signal{MultiplicativeFactor: 0.9}.HasFactor(), ShouldBeTrue)
		})
	})
}

func TestFilter(t *testing.T) {
	Convey("Given signals with mixed confidence", t, func() {
		in := []signal.Signal{
			{Name: "a", Confidence: 0.2},
			{Name: "b", Confidence: 0.5},
			{Name: "c", Confidence: 0.9},
		}
		out := signal.Filter(in, 0.5)

		Convey("Then low-confidence signals are dropped in order", func() {
			So(out, ShouldHaveLength, 2)
			So(out[0].Name, ShouldEqual, "b")
			So(out[1].Name, ShouldEqual, "c")
		})
	})
}

func TestCollect(t *testing.T) {
	Convey("Given providers of varying quality", t, func() {
		good := signal.ProviderFunc{ID: "weather", Fn: func(_ context.Context, m signal.Match) ([]signal.Signal, error) {
			return []signal.Signal{
				signal.Additive("rain", model.SideAway, 0.2, 0.7),
				{Name: "", Confidence: 0.3},
			}, nil
		}}
		broken := signal.ProviderFunc{ID: "referee", Fn: func(context.Context, signal.Match) ([]signal.Signal, error) {
			return nil, errors.New("feed down")
		}}
		echo := signal.ProviderFunc{ID: "venue", Fn: func(_ context.Context, m signal.Match) ([]signal.Signal, error) {
			return []signal.Signal{signal.Multiplicative("travel:"+m.AwayID, 1.05, 0.6)}, nil
		}}

		out := signal.Collect(context.Background(), logger.Discard(), []signal.Provider{good, broken, echo},
			signal.Match{Sport: model.SportSoccer, HomeID: "ars", AwayID: "che"})

		Convey("Then failures and invalid signals are skipped", func() {
			So(out, ShouldHaveLength, 2)
			So(out[0].Name, ShouldEqual, "rain")
			So(out[1].Name, ShouldEqual, "travel:che")
		})
	})
}

func TestCollectConcurrently(t *testing.T) {
	Convey("Given two providers that each wait for the other to start", t, func() {
		started := make(chan string, 2)
		waitPeer := func(id string) signal.ProviderFunc {
			return signal.ProviderFunc{ID: id, Fn: func(ctx context.Context, _ signal.Match) ([]signal.Signal, error) {
				started <- id
				deadline := time.After(2 * time.Second)
				for len(started) < 2 {
					select {
					case <-deadline:
						return nil, errors.New("peer never started")
					default:
						time.Sleep(time.Millisecond)
					}
				}
				return []signal.Signal{signal.Additive(id, model.SideHome, 0.1, 0.5)}, nil
			}}
		}

		out := signal.Collect(context.Background(), logger.Discard(),
			[]signal.Provider{waitPeer("first"), waitPeer("second")}, signal.Match{Sport: model.SportSoccer})

		Convey("Then both answer and the provider order is kept", func() {
			So(out, ShouldHaveLength, 2)
			So(out[0].Name, ShouldEqual, "first")
			So(out[1].Name, ShouldEqual, "second")
		})
	})
}
