package schedule_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/pitchcast/internal/adapters/schedule"
	"github.com/okian/pitchcast/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestHistoryJob(t *testing.T) {
	Convey("Given a history file", t, func() {
		path := filepath.Join(t.TempDir(), "history.json")
		So(os.WriteFile(path, []byte(`[
			{"home":{"id":"a"},"away":{"id":"b"},"score":"2-1","date":"2024-08-10T15:00:00Z"},
			{"home":{"id":"b"},"away":{"id":"a"},"score":"0-0","date":"2024-08-17"}
		]`), 0o600), ShouldBeNil)

		var (
			got    []model.MatchRecord
			source string
		)
		submit := func(_ context.Context, src string, records []model.MatchRecord) error {
			source, got = src, records
			return nil
		}

		Convey("When the job runs", func() {
			schedule.HistoryJob(path, submit, nil)(context.Background())

			Convey("Then every record is submitted", func() {
				So(source, ShouldEqual, schedule.HistorySource)
				So(got, ShouldHaveLength, 2)
				So(got[1].Score, ShouldEqual, "0-0")
			})
		})

		Convey("When the file is missing", func() {
			schedule.HistoryJob(path+".missing", submit, nil)(context.Background())
			So(got, ShouldBeNil)
		})

		Convey("When the submit fails", func() {
			calls := 0
			failing := func(context.Context, string, []model.MatchRecord) error {
				calls++
				return errors.New("queue full")
			}
			schedule.HistoryJob(path, failing, nil)(context.Background())
			So(calls, ShouldEqual, 1)
		})
	})

	Convey("Given a malformed history file", t, func() {
		path := filepath.Join(t.TempDir(), "history.json")
		So(os.WriteFile(path, []byte(`{"oops"`), 0o600), ShouldBeNil)
		_, err := schedule.LoadHistory(path)
		So(err, ShouldNotBeNil)
	})
}

func TestRunner(t *testing.T) {
	Convey("Given a runner", t, func() {
		r := schedule.New(nil, context.Background())

		Convey("When an invalid spec is added", func() {
			_, err := r.Add("not a spec", func(context.Context) {})
			So(err, ShouldNotBeNil)
			So(r.Entries(), ShouldEqual, 0)
		})

		Convey("When a per-second job runs", func() {
			var n atomic.Int32
			_, err := r.Add("* * * * * *", func(context.Context) { n.Add(1) })
			So(err, ShouldBeNil)
			r.Start()
			deadline := time.Now().Add(3 * time.Second)
			for n.Load() == 0 && time.Now().Before(deadline) {
				time.Sleep(20 * time.Millisecond)
			}
			r.Stop()
			So(n.Load(), ShouldBeGreaterThan, 0)
		})
	})
}
