package metrics

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))
			manager.predictions.WithLabelValues("soccer").Inc()

			Convey("Then collectors use the pitchcast namespace", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				for _, f := range families {
					So(strings.HasPrefix(f.GetName(), "pitchcast_engine_"), ShouldBeTrue)
				}
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.ratingTeams.Set(3)

			Convey("Then names and constant labels follow the options", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var found bool
				for _, f := range families {
					if f.GetName() != "test_unit_rating_teams" {
						continue
					}
					found = true
					labels := f.GetMetric()[0].GetLabel()
					So(labels, ShouldHaveLength, 1)
					So(labels[0].GetName(), ShouldEqual, "env")
					So(labels[0].GetValue(), ShouldEqual, "test")
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty options are passed", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithConstLabels(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "pitchcast")
				So(manager.subsystem, ShouldEqual, "engine")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
				So(manager.constLabels, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording predictions", func() {
			before := testutil.ToFloat64(globalManager.predictions.WithLabelValues("hockey"))
			RecordPrediction("hockey", "gold")
			RecordPrediction("hockey", "silver")

			Convey("Then the per-sport counter grows", func() {
				after := testutil.ToFloat64(globalManager.predictions.WithLabelValues("hockey"))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When recording training records", func() {
			before := testutil.ToFloat64(globalManager.trainingRecords.WithLabelValues("applied"))
			RecordTrainingRecords("applied", 5)
			RecordTrainingRecords("applied", 0)
			RecordTrainingRecords("applied", -3)

			Convey("Then only positive counts are added", func() {
				after := testutil.ToFloat64(globalManager.trainingRecords.WithLabelValues("applied"))
				So(after-before, ShouldEqual, 5)
			})
		})

		Convey("When toggling storage degradation", func() {
			UpdateStorageDegraded(true)
			degraded := testutil.ToFloat64(globalManager.storageDegraded)
			UpdateStorageDegraded(false)
			healthy := testutil.ToFloat64(globalManager.storageDegraded)

			Convey("Then the gauge reflects the flag", func() {
				So(degraded, ShouldEqual, 1)
				So(healthy, ShouldEqual, 0)
			})
		})

		Convey("When recording every other family", func() {
			So(func() {
				RecordPredictionLatency(1.5)
				RecordPredictionError()
				RecordTrainingRun("applied")
				RecordTrainingDuration(12)
				UpdateTrainingLastUnix(1_700_000_000)
				UpdateRatingTeams(40)
				RecordRatingSnapshotPublish()
				RecordStorageLatency("file", "save", 2)
				RecordStorageError("redis", "load")
				UpdateQueueSize(3)
				UpdateQueueCapacity(64)
				UpdateQueueUtilization(3.0 / 64.0)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerCount(8)
				AddWorkerActive(1)
				AddWorkerActive(-1)
				RecordWorkerProcessingLatency(0.4)
				RecordWorkerError()
				RecordHTTPRequest("/predict", "POST", "200")
				RecordHTTPRequestDuration("/predict", "POST", "200", 3)
				RecordRateLimited("/predict")
				RecordErrorByComponent("rating", "storage_save")
				RecordErrorByEndpoint("/train", "POST", "queue_full")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
			}, ShouldNotPanic)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		before := testutil.ToFloat64(globalManager.queueEnqueue)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordQueueEnqueue()
					RecordHTTPRequest("/ratings", "GET", "200")
				}
			}()
		}
		wg.Wait()

		Convey("Then no increment is lost", func() {
			So(testutil.ToFloat64(globalManager.queueEnqueue)-before, ShouldEqual, 1000)
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the exported registry", t, func() {
		RecordRatingSnapshotPublish()
		families, err := GetRegistry().Gather()

		Convey("Then it gathers the global collectors", func() {
			So(err, ShouldBeNil)
			var found bool
			for _, f := range families {
				if f.GetName() == "pitchcast_engine_rating_snapshots_published_total" {
					found = true
				}
			}
			So(found, ShouldBeTrue)
		})
	})
}
