package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/pitchcast/internal/adapters/storage"
	service "github.com/okian/pitchcast/internal/app"
	"github.com/okian/pitchcast/internal/config"
	"github.com/okian/pitchcast/internal/domain/model"
	"github.com/okian/pitchcast/internal/domain/prediction"
	"github.com/okian/pitchcast/internal/domain/rating"
	"github.com/okian/pitchcast/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func testConfig() *config.Config {
	cfg := config.New()
	cfg.WorkerCount = 2
	cfg.TrainQueueSize = 4
	cfg.MonteCarloIterations = 1000
	cfg.TrainSchedule = ""
	return cfg
}

func matches(n int, day int) []model.MatchRecord {
	out := make([]model.MatchRecord, n)
	for i := range out {
		out[i] = model.MatchRecord{
			Home:  model.TeamRef{ID: fmt.Sprintf("team-%d", i%4)},
			Away:  model.TeamRef{ID: fmt.Sprintf("team-%d", (i+1)%4)},
			Score: "2-1",
			Date:  fmt.Sprintf("2024-08-%02dT15:00:00Z", day+i%20),
		}
	}
	return out
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(testConfig(), service.WithLogger(logger.Discard()))

		Convey("Then calls before Start fail", func() {
			_, err := svc.Predict(context.Background(), prediction.Request{})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.SubmitTraining(context.Background(), "test", matches(1, 1))
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("When the service is started and stopped", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			So(svc.GetStats()["teams"], ShouldEqual, 0)

			svc.Stop()
			svc.Stop()

			Convey("Then it reports stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
				_, err := svc.TopN(1)
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unknown storage driver", t, func() {
		cfg := testConfig()
		cfg.StorageDriver = "tape"
		err := service.New(cfg, service.WithLogger(logger.Discard())).Start(context.Background())
		So(errors.Is(err, storage.ErrUnknownDriver), ShouldBeTrue)
	})

	Convey("Given an invalid training schedule", t, func() {
		cfg := testConfig()
		cfg.TrainSchedule = "every tuesday"
		cfg.HistoryPath = "history.json"
		err := service.New(cfg, service.WithLogger(logger.Discard())).Start(context.Background())
		So(err, ShouldNotBeNil)
	})
}

type closeCounter struct {
	*storage.Memory
	closes atomic.Int32
}

func (c *closeCounter) Close() error {
	c.closes.Add(1)
	return c.Memory.Close()
}

func TestService_InjectedBackend(t *testing.T) {
	Convey("Given a service over a caller-owned backend", t, func() {
		ctx := context.Background()
		backend := &closeCounter{Memory: storage.NewMemory()}
		svc := service.New(testConfig(), service.WithLogger(logger.Discard()), service.WithBackend(backend))
		So(svc.Start(ctx), ShouldBeNil)

		ack, err := svc.SubmitTraining(ctx, "test", matches(8, 1))
		So(err, ShouldBeNil)
		So(waitFor(func() bool { _, ok := svc.TrainingResult(ack.JobID); return ok }), ShouldBeTrue)

		Convey("When the service is stopped and started again", func() {
			svc.Stop()
			So(backend.closes.Load(), ShouldEqual, 0)
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			Convey("Then it reloads from the same backend", func() {
				So(svc.GetStats()["storageDriver"], ShouldEqual, config.DriverMemory)
				So(svc.Store().Count(), ShouldEqual, 4)
				So(backend.closes.Load(), ShouldEqual, 0)
			})
		})
	})
}

func TestService_Training(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := service.New(testConfig(), service.WithLogger(logger.Discard()))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When a batch is submitted", func() {
			ack, err := svc.SubmitTraining(ctx, "test", matches(8, 1))
			So(err, ShouldBeNil)
			So(ack.Status, ShouldEqual, "accepted")
			So(ack.Accepted, ShouldEqual, 8)

			So(waitFor(func() bool { _, ok := svc.TrainingResult(ack.JobID); return ok }), ShouldBeTrue)
			res, _ := svc.TrainingResult(ack.JobID)

			Convey("Then the ratings are trained", func() {
				So(res.Report.Outcome, ShouldEqual, rating.OutcomeApplied)
				So(res.Report.Applied, ShouldEqual, 8)
				top, err := svc.TopN(10)
				So(err, ShouldBeNil)
				So(top, ShouldHaveLength, 4)
			})

			Convey("Then resubmitting the same records is a duplicate", func() {
				again, err := svc.SubmitTraining(ctx, "test", matches(8, 1))
				So(err, ShouldBeNil)
				So(again.Status, ShouldEqual, "duplicate")
				So(again.Duplicates, ShouldEqual, 8)
				So(again.JobID, ShouldBeEmpty)
			})

			Convey("Then a batch inside the cooldown can be retried later", func() {
				next, err := svc.SubmitTraining(ctx, "test", matches(2, 25))
				So(err, ShouldBeNil)
				So(waitFor(func() bool { _, ok := svc.TrainingResult(next.JobID); return ok }), ShouldBeTrue)
				res, _ := svc.TrainingResult(next.JobID)
				So(res.Report.Outcome, ShouldEqual, rating.OutcomeCooldown)

				retry, err := svc.SubmitTraining(ctx, "test", matches(2, 25))
				So(err, ShouldBeNil)
				So(retry.Accepted, ShouldEqual, 2)
			})
		})

		Convey("When an empty batch is submitted", func() {
			ack, err := svc.SubmitTraining(ctx, "test", nil)
			So(err, ShouldBeNil)
			So(ack.Status, ShouldEqual, rating.OutcomeEmpty)
		})
	})
}

func TestService_Predict(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := service.New(testConfig(), service.WithLogger(logger.Discard()))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		req := prediction.Request{
			Sport: model.SportSoccer,
			Home:  model.TeamInput{ID: "home"},
			Away:  model.TeamInput{ID: "away"},
		}

		Convey("When predicting an unseen fixture", func() {
			rep, err := svc.Predict(ctx, req)
			So(err, ShouldBeNil)

			Convey("Then both teams start from the default rating", func() {
				So(rep.Details.HomeRating, ShouldEqual, model.DefaultRating)
				So(rep.HomeWinProb+rep.DrawProb+rep.AwayWinProb, ShouldEqual, 100)
				So(rep.Winner, ShouldEqual, model.SideHome)
			})

			Convey("Then the fixture does not add teams to the ratings", func() {
				So(svc.GetStats()["teams"], ShouldEqual, 0)
				_, err := svc.Rank("home")
				So(errors.Is(err, rating.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When predicting a batch", func() {
			out, err := svc.PredictBatch(ctx, []prediction.Request{req, {Sport: "nba"}, req})
			So(err, ShouldBeNil)
			So(out, ShouldHaveLength, 3)
			So(out[0].Err, ShouldBeNil)
			So(errors.Is(out[1].Err, prediction.ErrInvalidRequest), ShouldBeTrue)
			So(out[2].Report.PredictionResult, ShouldResemble, out[0].Report.PredictionResult)
		})
	})
}
