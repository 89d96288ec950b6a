package prediction_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/okian/pitchcast/internal/domain/aggregator"
	"github.com/okian/pitchcast/internal/domain/model"
	"github.com/okian/pitchcast/internal/domain/prediction"
	"github.com/okian/pitchcast/internal/domain/rating"
	"github.com/okian/pitchcast/internal/domain/scoreline"
	"github.com/okian/pitchcast/internal/domain/signal"
	. "github.com/smartystreets/goconvey/convey"
)

func soccerRequest() prediction.Request {
	return prediction.Request{
		Sport: model.SportSoccer,
		Home:  model.TeamInput{ID: "arsenal", Stats: &model.TeamStats{ScoredAvg: 2.1, ConcededAvg: 0.8}, Form: "WWDWW"},
		Away:  model.TeamInput{ID: "burnley", Stats: &model.TeamStats{ScoredAvg: 0.9, ConcededAvg: 1.9}, Form: "LLDLW"},
		Odds: model.Odds{
			Home: 1.8, Draw: 3.6, Away: 4.5,
			History: []model.OddsSnapshot{
				{Home: 2.1, Draw: 3.4, Away: 3.8},
				{Home: 1.8, Draw: 3.6, Away: 4.5},
			},
		},
	}
}

func newEngine(opts ...prediction.Option) *prediction.Engine {
	opts = append([]prediction.Option{prediction.WithScoreline(scoreline.New(scoreline.WithIterations(2000)))}, opts...)
	return prediction.NewEngine(rating.NewStore(), opts...)
}

func TestRequestValidate(t *testing.T) {
	Convey("Given prediction requests", t, func() {
		cases := map[string]func(r *prediction.Request){
			"missing sport":  func(r *prediction.Request) { r.Sport = " " },
			"missing home":   func(r *prediction.Request) { r.Home.ID = "" },
			"same team":      func(r *prediction.Request) { r.Away.ID = r.Home.ID },
			"invalid signal": func(r *prediction.Request) { r.Signals = []signal.Signal{{Name: "", Confidence: 2}} },
		}
		for name, mutate := range cases {
			Convey("When the request has "+name, func() {
				r := soccerRequest()
				mutate(&r)
				So(errors.Is(r.Validate(), prediction.ErrInvalidRequest), ShouldBeTrue)
			})
		}

		Convey("When the request is complete", func() {
			So(soccerRequest().Validate(), ShouldBeNil)
		})
	})
}

func TestPredictSoccer(t *testing.T) {
	Convey("Given a strong home side with shortening odds", t, func() {
		e := newEngine()
		rep, err := e.Predict(context.Background(), soccerRequest())
		So(err, ShouldBeNil)

		Convey("Then the result is a complete distribution favouring home", func() {
			So(rep.HomeWinProb+rep.DrawProb+rep.AwayWinProb, ShouldEqual, 100)
			So(rep.Winner, ShouldEqual, model.SideHome)
			So(rep.HomeWinProb, ShouldBeGreaterThan, rep.AwayWinProb)
			So(rep.DrawProb, ShouldBeGreaterThan, 0)
			So(rep.MaxProb, ShouldEqual, rep.HomeWinProb)
		})

		Convey("Then the scoreline forecast is attached", func() {
			So(rep.ScorelineTop5, ShouldHaveLength, 5)
			So(rep.Details.Scoreline, ShouldNotBeNil)
			So(rep.Details.Scoreline.HomeXG, ShouldBeGreaterThan, rep.Details.Scoreline.AwayXG)
		})

		Convey("Then the audit trail is filled", func() {
			So(rep.Details.HomeRating, ShouldEqual, model.DefaultRating)
			So(rep.Details.Market.Velocity, ShouldBeGreaterThan, 0)
			So(rep.Details.Momentum, ShouldBeGreaterThan, 0.5)
			So(rep.Details.Fair, ShouldNotBeNil)
			So(rep.Details.Margin, ShouldBeGreaterThan, 0)
			So(rep.Details.Stages[0].Name, ShouldEqual, aggregator.StageBlend)
		})

		Convey("Then the same request gives the same result", func() {
			again, err := e.Predict(context.Background(), soccerRequest())
			So(err, ShouldBeNil)
			So(again.PredictionResult, ShouldResemble, rep.PredictionResult)
		})
	})
}

func TestPredictNonDrawSport(t *testing.T) {
	Convey("Given an NBA match with no odds", t, func() {
		rep, err := newEngine().Predict(context.Background(), prediction.Request{
			Sport: "NBA",
			Home:  model.TeamInput{ID: "lakers"},
			Away:  model.TeamInput{ID: "celtics"},
		})
		So(err, ShouldBeNil)

		Convey("Then draw is zero and no scoreline is produced", func() {
			So(rep.DrawProb, ShouldEqual, 0)
			So(rep.HomeWinProb+rep.AwayWinProb, ShouldEqual, 100)
			So(rep.ScorelineTop5, ShouldBeEmpty)
			So(rep.Details.Scoreline, ShouldBeNil)
			So(rep.Details.Fair, ShouldBeNil)
		})
	})

	Convey("Given a hockey match", t, func() {
		rep, err := newEngine().Predict(context.Background(), prediction.Request{
			Sport: model.SportNHL,
			Home:  model.TeamInput{ID: "oilers"},
			Away:  model.TeamInput{ID: "flames"},
		})
		So(err, ShouldBeNil)

		Convey("Then the Poisson draw mass is shared between the teams", func() {
			So(rep.DrawProb, ShouldEqual, 0)
			So(rep.Details.Base.Draw, ShouldEqual, 0)
			So(rep.ScorelineTop5, ShouldHaveLength, 5)
		})
	})
}

func TestPredictSignals(t *testing.T) {
	Convey("Given a provider backing the away side", t, func() {
		provider := signal.ProviderFunc{ID: "injuries", Fn: func(context.Context, signal.Match) ([]signal.Signal, error) {
			return []signal.Signal{signal.Additive("injuries", model.SideAway, 2, 1)}, nil
		}}
		failing := signal.ProviderFunc{ID: "broken", Fn: func(context.Context, signal.Match) ([]signal.Signal, error) {
			return nil, errors.New("upstream down")
		}}

		plain, err := newEngine().Predict(context.Background(), soccerRequest())
		So(err, ShouldBeNil)
		withSignals, err := newEngine(prediction.WithProviders(provider, failing)).Predict(context.Background(), soccerRequest())
		So(err, ShouldBeNil)

		Convey("Then away gains and the failing provider is ignored", func() {
			So(withSignals.AwayWinProb, ShouldBeGreaterThan, plain.AwayWinProb)
			So(withSignals.Details.Stages[len(withSignals.Details.Stages)-1].Name, ShouldEqual, aggregator.StageSignal+"injuries")
		})
	})

	Convey("Given an invalid request", t, func() {
		_, err := newEngine().Predict(context.Background(), prediction.Request{Sport: model.SportSoccer})
		So(errors.Is(err, prediction.ErrInvalidRequest), ShouldBeTrue)
	})
}

func TestPredictLeavesRatingsAlone(t *testing.T) {
	Convey("Given a store trained on one match", t, func() {
		store := rating.NewStore()
		_, err := store.TrainBatch(context.Background(), []model.MatchRecord{
			{Home: model.TeamRef{ID: "a"}, Away: model.TeamRef{ID: "b"}, Score: "2-0", Date: "2024-08-10"},
		})
		So(err, ShouldBeNil)
		before, err := store.TopN(10)
		So(err, ShouldBeNil)

		e := prediction.NewEngine(store, prediction.WithScoreline(scoreline.New(scoreline.WithIterations(200))))

		Convey("When many fixtures with unknown teams are predicted", func() {
			for i := range 200 {
				rep, err := e.Predict(context.Background(), prediction.Request{
					Sport: model.SportNBA,
					Home:  model.TeamInput{ID: fmt.Sprintf("x%d", i)},
					Away:  model.TeamInput{ID: fmt.Sprintf("y%d", i)},
				})
				So(err, ShouldBeNil)
				So(rep.Details.HomeRating, ShouldEqual, model.DefaultRating)
			}

			Convey("Then the store is unchanged", func() {
				So(store.Count(), ShouldEqual, 2)
				after, err := store.TopN(10)
				So(err, ShouldBeNil)
				So(after, ShouldResemble, before)
			})
		})

		Convey("When a known team is predicted", func() {
			rep, err := e.Predict(context.Background(), prediction.Request{
				Sport: model.SportNBA,
				Home:  model.TeamInput{ID: "a"},
				Away:  model.TeamInput{ID: "newcomer"},
			})
			So(err, ShouldBeNil)

			Convey("Then its trained rating is used", func() {
				So(rep.Details.HomeRating, ShouldBeGreaterThan, model.DefaultRating)
				So(rep.Details.AwayRating, ShouldEqual, model.DefaultRating)
				So(store.Count(), ShouldEqual, 2)
			})
		})
	})
}
