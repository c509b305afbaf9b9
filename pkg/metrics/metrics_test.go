package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating a manager with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithMetricPrefix("pfx_"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithRefreshInterval(5*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(manager.Enabled(), ShouldBeTrue)
				So(manager.RefreshInterval(), ShouldEqual, 5*time.Second)
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
			})

			Convey("Then metric names carry namespace, subsystem and prefix plus the constant labels", func() {
				manager.RecordRateLimited()
				expected := `
# HELP test_namespace_test_subsystem_pfx_rate_limited_requests_total Requests rejected by the rate limiter
# TYPE test_namespace_test_subsystem_pfx_rate_limited_requests_total counter
test_namespace_test_subsystem_pfx_rate_limited_requests_total{env="test"} 1
`
				err := testutil.GatherAndCompare(registry, strings.NewReader(expected),
					"test_namespace_test_subsystem_pfx_rate_limited_requests_total")
				So(err, ShouldBeNil)
			})
		})

		Convey("When options receive empty values", func() {
			manager := NewManager(
				WithNamespace(""),
				WithRefreshInterval(0),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then the defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "scicalc")
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
				So(manager.histogramBuckets, ShouldNotBeEmpty)
			})
		})
	})
}

func TestManagerRecording(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(WithPrometheusRegistry(registry))

		Convey("When recording calculations", func() {
			m.RecordCalculation("vacuum", true, 1.5)
			m.RecordCalculation("vacuum", false, 2.5)
			m.RecordCalculationError("vacuum", "domain_error")
			m.RecordSlowCalculation("genetics")

			Convey("Then the counters reflect each outcome", func() {
				So(testutil.ToFloat64(m.calculations.WithLabelValues("vacuum", "success")), ShouldEqual, 1.0)
				So(testutil.ToFloat64(m.calculations.WithLabelValues("vacuum", "failure")), ShouldEqual, 1.0)
				So(testutil.ToFloat64(m.calculationErrors.WithLabelValues("vacuum", "domain_error")), ShouldEqual, 1.0)
				So(testutil.ToFloat64(m.slowCalculations.WithLabelValues("genetics")), ShouldEqual, 1.0)
				So(testutil.CollectAndCount(m.calculationDuration), ShouldEqual, 1)
			})
		})

		Convey("When tracking in-flight calculations", func() {
			m.AddCalculationsInFlight(1)
			m.AddCalculationsInFlight(1)
			m.AddCalculationsInFlight(-1)
			So(testutil.ToFloat64(m.calculationsActive), ShouldEqual, 1.0)
		})

		Convey("When recording exports", func() {
			m.RecordExport("csv", true, 512)
			m.RecordExport("xml", false, 0)
			So(testutil.ToFloat64(m.exports.WithLabelValues("csv", "success")), ShouldEqual, 1.0)
			So(testutil.ToFloat64(m.exports.WithLabelValues("xml", "failure")), ShouldEqual, 1.0)
			So(testutil.CollectAndCount(m.exportSize), ShouldEqual, 1)
		})

		Convey("When updating the health status", func() {
			m.UpdateHealthStatus("degraded")
			So(testutil.ToFloat64(m.healthStatus.WithLabelValues("degraded")), ShouldEqual, 1.0)
			So(testutil.ToFloat64(m.healthStatus.WithLabelValues("healthy")), ShouldEqual, 0.0)

			m.UpdateHealthStatus("healthy")
			So(testutil.ToFloat64(m.healthStatus.WithLabelValues("degraded")), ShouldEqual, 0.0)
			So(testutil.ToFloat64(m.healthStatus.WithLabelValues("healthy")), ShouldEqual, 1.0)
		})

		Convey("When recording HTTP and system metrics", func() {
			m.RecordHTTPRequest("/health", "GET", "200", 0.4)
			m.RecordErrorByEndpoint("/api/v1/vacuum-energy", "POST", "validation_failed")
			m.RecordLimitViolation("volume")
			m.UpdateHistoryRecords(7)
			m.UpdateSystem(1024, 12, 0.3)

			So(testutil.ToFloat64(m.httpRequests.WithLabelValues("/health", "GET", "200")), ShouldEqual, 1.0)
			So(testutil.ToFloat64(m.errorRateByEndpoint.WithLabelValues("/api/v1/vacuum-energy", "POST", "validation_failed")), ShouldEqual, 1.0)
			So(testutil.ToFloat64(m.limitViolations.WithLabelValues("volume")), ShouldEqual, 1.0)
			So(testutil.ToFloat64(m.historyRecords), ShouldEqual, 7.0)
			So(testutil.ToFloat64(m.systemMemoryUsage), ShouldEqual, 1024.0)
			So(testutil.ToFloat64(m.systemGoroutineCount), ShouldEqual, 12.0)
		})
	})
}

func TestDisabledManager(t *testing.T) {
	Convey("Given a disabled manager", t, func() {
		m := NewManager(WithMetricsEnabled(false), WithPrometheusRegistry(prometheus.NewRegistry()))

		Convey("When recording anything", func() {
			m.RecordCalculation("vacuum", true, 1)
			m.RecordRateLimited()
			m.UpdateHistoryRecords(3)

			Convey("Then nothing is recorded", func() {
				So(m.Enabled(), ShouldBeFalse)
				So(testutil.ToFloat64(m.rateLimited), ShouldEqual, 0.0)
				So(testutil.ToFloat64(m.historyRecords), ShouldEqual, 0.0)
				So(testutil.CollectAndCount(m.calculations), ShouldEqual, 0)
			})
		})

		Convey("When it is enabled afterwards", func() {
			m.SetEnabled(true)
			m.RecordRateLimited()

			Convey("Then updates are recorded", func() {
				So(m.Enabled(), ShouldBeTrue)
				So(testutil.ToFloat64(m.rateLimited), ShouldEqual, 1.0)
			})
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		So(Default(), ShouldNotBeNil)
		So(GetRegistry(), ShouldNotBeNil)

		Convey("Then the package-level helpers do not panic", func() {
			So(func() {
				RecordCalculation("genetics", true, 0.2)
				RecordCalculationError("genetics", "arithmetic_error")
				AddCalculationsInFlight(1)
				AddCalculationsInFlight(-1)
				RecordLimitViolation("population_size")
				RecordSlowCalculation("genetics")
				RecordExport("json", true, 300)
				UpdateHistoryRecords(1)
				UpdateHealthStatus("healthy")
				RecordHTTPRequest("/stats", "GET", "200", 0.1)
				RecordErrorByEndpoint("/stats", "GET", "internal")
				RecordRateLimited()
				UpdateSystem(2048, 5, 0)
			}, ShouldNotPanic)
		})

		Convey("Then the global registry exposes the calculation counter", func() {
			RecordCalculation("vacuum", true, 0.1)
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			found := false
			for _, f := range families {
				if f.GetName() == "scicalc_calculator_calculations_total" {
					found = true
				}
			}
			So(found, ShouldBeTrue)
		})
	})
}
