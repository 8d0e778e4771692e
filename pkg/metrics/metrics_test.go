package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should use the judgeboard namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "judgeboard")
				So(manager.subsystem, ShouldEqual, "scores")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_ns"),
				WithSubsystem("test_sub"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.submissions.WithLabelValues("accepted").Inc()

			Convey("Then collectors carry the custom names and labels", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_ns_test_sub_submissions_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty values are passed", func() {
			manager := NewManager(
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "judgeboard")
				So(manager.histogramBuckets, ShouldResemble, latencyBucketsMs)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording an aggregation pass", func() {
			before := testutil.ToFloat64(globalManager.entriesSkipped.WithLabelValues("not_numeric"))
			RecordAggregationPass(1.5, 4, 2, map[string]int{"not_numeric": 3})

			Convey("Then skip reasons are counted", func() {
				after := testutil.ToFloat64(globalManager.entriesSkipped.WithLabelValues("not_numeric"))
				So(after-before, ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.projectsRanked), ShouldEqual, 2)
			})
		})

		Convey("When recording an export", func() {
			before := testutil.ToFloat64(globalManager.exportFiles.WithLabelValues("raw"))
			RecordExport("raw", 2)
			RecordExportFailure("raw")
			RecordExportEmpty("aggregate")

			Convey("Then file counts accumulate per kind", func() {
				So(testutil.ToFloat64(globalManager.exportFiles.WithLabelValues("raw"))-before, ShouldEqual, 2)
				So(testutil.ToFloat64(globalManager.exportFailures.WithLabelValues("raw")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When updating gauges", func() {
			UpdateQueueSize(7)
			UpdateQueueCapacity(64)
			UpdateWorkerCount(3)
			UpdateTrackedEvents(2)

			Convey("Then the latest value wins", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 64)
				So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.trackedEvents), ShouldEqual, 2)
			})
		})

		Convey("When the remaining recorders are called", func() {
			So(func() {
				RecordInvalidation("submit")
				RecordRefreshError("fetch_records")
				RecordSnapshotPublished()
				RecordSnapshotStale()
				AddFeedSubscribers(1)
				AddFeedSubscribers(-1)
				RecordListenerReconnect()
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError("full")
				RecordWorkerProcessingLatency(3)
				RecordSubmission("duplicate")
				RecordHTTPRequest("/scores", "POST", "201")
				RecordHTTPRequestDuration("/scores", "POST", "201", 2)
				RecordErrorByComponent("worker", "fetch")
				UpdateSystemMemoryUsage(1024)
				UpdateSystemGoroutineCount(10)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("When gathering the served registry", func() {
			families, err := GetRegistry().Gather()

			Convey("Then judgeboard metrics are present", func() {
				So(err, ShouldBeNil)
				seen := false
				for _, f := range families {
					if strings.HasPrefix(f.GetName(), "judgeboard_scores_") {
						seen = true
					}
				}
				So(seen, ShouldBeTrue)
			})
		})
	})
}
