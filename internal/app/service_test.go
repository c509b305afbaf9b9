package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	service "github.com/okian/scicalc/internal/app"
	"github.com/okian/scicalc/internal/adapters/export"
	"github.com/okian/scicalc/internal/adapters/repository"
	"github.com/okian/scicalc/internal/domain/calc"
	"github.com/okian/scicalc/internal/domain/genetics"
	"github.com/okian/scicalc/internal/domain/limits"
	"github.com/okian/scicalc/internal/domain/monitor"
	"github.com/okian/scicalc/internal/domain/vacuum"
	"github.com/okian/scicalc/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func startedService(opts ...service.Option) *service.Service {
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	return svc
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats.Started, ShouldBeFalse)
			So(stats.MaxConcurrent, ShouldEqual, 10)
			So(stats.HistoryCapacity, ShouldEqual, 1000)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithMaxConcurrent(2),
			service.WithHistorySize(5),
			service.WithCalculationTimeout(time.Second),
			service.WithExportFormats("json"),
		)

		Convey("Then the options are applied", func() {
			stats := svc.GetStats()
			So(stats.MaxConcurrent, ShouldEqual, 2)
			So(stats.HistoryCapacity, ShouldEqual, 5)
			So(stats.ExportFormats, ShouldResemble, []string{"json"})
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
				So(svc.GetStats().Started, ShouldBeTrue)
			})

			Convey("And starting twice is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})

			Convey("When stopping the service", func() {
				svc.Stop()

				Convey("Then it should be marked as stopped", func() {
					So(svc.GetStats().Started, ShouldBeFalse)
				})

				Convey("And calculations are refused", func() {
					_, err := svc.CalculateVacuum(ctx, vacuum.DefaultInput())
					So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				})
			})
		})
	})

	Convey("Given a service that was never started", t, func() {
		svc := service.New()
		ctx := context.Background()

		Convey("Then every operation reports it", func() {
			_, err := svc.CalculateGenetics(ctx, genetics.DefaultInput())
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.Record(ctx, "x")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.Recent(ctx, 1)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.ExportResults(ctx, "x", calc.Results{}, "json")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("And stopping it is safe", func() {
			So(func() { svc.Stop() }, ShouldNotPanic)
		})
	})
}

func TestService_CalculateVacuum(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService()
		defer svc.Stop()
		ctx := context.Background()

		Convey("When calculating with the default inputs", func() {
			rec, err := svc.CalculateVacuum(ctx, vacuum.DefaultInput())

			Convey("Then a record is produced and stored", func() {
				So(err, ShouldBeNil)
				So(rec.ID, ShouldNotBeEmpty)
				So(rec.Calculator, ShouldEqual, repository.CalculatorVacuum)
				So(rec.Results.Len(), ShouldEqual, 8)

				stored, err := svc.Record(ctx, rec.ID)
				So(err, ShouldBeNil)
				So(stored.Results.Keys(), ShouldResemble, rec.Results.Keys())
			})

			Convey("And the stats count it", func() {
				stats := svc.GetStats()
				So(stats.HistoryRecords, ShouldEqual, 1)
				So(stats.Performance.Total, ShouldEqual, 1)
				So(stats.Performance.SuccessRate, ShouldEqual, 100.0)
			})
		})

		Convey("When the cutoff frequency is outside its range", func() {
			in := vacuum.DefaultInput()
			in.CutoffFrequency = 1e5
			_, err := svc.CalculateVacuum(ctx, in)

			Convey("Then the limits reject it before the calculation", func() {
				So(errors.Is(err, limits.ErrOutOfRange), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, limits.CutoffFrequency)
				So(svc.GetStats().Performance.Total, ShouldEqual, 0)
			})
		})

		Convey("When both vacuum limits are violated", func() {
			in := vacuum.DefaultInput()
			in.CutoffFrequency = 1e30
			in.Volume = 1e20
			_, err := svc.CalculateVacuum(ctx, in)

			Convey("Then both parameters are reported", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, limits.CutoffFrequency)
				So(err.Error(), ShouldContainSubstring, limits.Volume)
			})
		})
	})
}

func TestService_CalculateGenetics(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startedService()
		defer svc.Stop()
		ctx := context.Background()

		Convey("When calculating with the default inputs", func() {
			rec, err := svc.CalculateGenetics(ctx, genetics.DefaultInput())

			Convey("Then the results carry the next evolution step", func() {
				So(err, ShouldBeNil)
				So(rec.Calculator, ShouldEqual, repository.CalculatorGenetics)
				v, ok := rec.Results.Get(genetics.KeyNextEvolutionStep)
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, 125)
			})
		})

		Convey("When the population exceeds its range", func() {
			in := genetics.DefaultInput()
			in.PopulationSize = 20000
			_, err := svc.CalculateGenetics(ctx, in)
			So(errors.Is(err, limits.ErrOutOfRange), ShouldBeTrue)
		})

		Convey("When the core rejects an input", func() {
			in := genetics.DefaultInput()
			in.MutationRate = -1
			_, err := svc.CalculateGenetics(ctx, in)

			Convey("Then the domain error surfaces and is counted", func() {
				So(errors.Is(err, calc.ErrDomain), ShouldBeTrue)
				stats := svc.GetStats()
				So(stats.Performance.ErrorCount, ShouldEqual, 1)
				So(stats.HistoryRecords, ShouldEqual, 0)
			})

			Convey("And the health reflects the failure", func() {
				So(svc.Health().Status, ShouldEqual, monitor.StatusUnhealthy)
			})
		})
	})
}

func TestService_Limits(t *testing.T) {
	Convey("Given a service with a narrowed population range", t, func() {
		l, err := limits.New(limits.WithRange(limits.PopulationSize, limits.Range{Min: 1, Max: 50, Default: 10}))
		So(err, ShouldBeNil)
		svc := startedService(service.WithLimits(l))
		defer svc.Stop()

		Convey("Then the configured range is served", func() {
			So(svc.Limits()[limits.PopulationSize].Max, ShouldEqual, 50.0)
		})

		Convey("And the stock population default is rejected", func() {
			_, err := svc.CalculateGenetics(context.Background(), genetics.DefaultInput())
			So(errors.Is(err, limits.ErrOutOfRange), ShouldBeTrue)
		})

		Convey("And a parameter check reports each value", func() {
			got := svc.CheckLimits(map[string]float64{
				limits.PopulationSize: 100,
				limits.Volume:         1,
				"temperature":         300,
			})
			So(got, ShouldResemble, map[string]bool{
				limits.PopulationSize: false,
				limits.Volume:         true,
				"temperature":         false,
			})
		})
	})

	Convey("Given a service that was never started", t, func() {
		svc := service.New()

		Convey("Then checks use the stock ranges", func() {
			got := svc.CheckLimits(map[string]float64{limits.PopulationSize: 100})
			So(got[limits.PopulationSize], ShouldBeTrue)
		})
	})
}

func TestService_Export(t *testing.T) {
	Convey("Given a service with a stored calculation", t, func() {
		svc := startedService(service.WithAppInfo(export.Info{
			Application: "Test App",
			Version:     "9.9.9",
			Author:      "tests",
			Watermark:   "WM-1",
		}))
		defer svc.Stop()
		ctx := context.Background()
		rec, err := svc.CalculateVacuum(ctx, vacuum.DefaultInput())
		So(err, ShouldBeNil)

		Convey("When exporting it as JSON", func() {
			doc, err := svc.Export(ctx, rec.ID, "json")

			Convey("Then the document carries results and metadata", func() {
				So(err, ShouldBeNil)
				So(doc.Filename, ShouldEqual, "vacuum_energy_results.json")
				var body map[string]json.RawMessage
				So(json.Unmarshal(doc.Body, &body), ShouldBeNil)
				So(body, ShouldContainKey, "results")
				So(body, ShouldContainKey, "metadata")
				So(string(body["metadata"]), ShouldContainSubstring, "Test App")
			})
		})

		Convey("When exporting it as CSV", func() {
			doc, err := svc.Export(ctx, rec.ID, "CSV")
			So(err, ShouldBeNil)
			So(string(doc.Body), ShouldStartWith, "Parameter,Value,Timestamp,Application,Watermark")
		})

		Convey("When the id is unknown", func() {
			_, err := svc.Export(ctx, "missing", "json")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When the format is unknown", func() {
			_, err := svc.Export(ctx, rec.ID, "pdf")
			So(errors.Is(err, export.ErrUnsupportedFormat), ShouldBeTrue)
		})

		Convey("When exporting caller supplied results", func() {
			var results calc.Results
			results.Set("a", "1")
			doc, err := svc.ExportResults(ctx, "custom", results, "xlsx")
			So(err, ShouldBeNil)
			So(doc.Filename, ShouldEqual, "custom_results.xlsx")
			So(len(doc.Body), ShouldBeGreaterThan, 0)
		})

		Convey("When the results are empty", func() {
			_, err := svc.ExportResults(ctx, "custom", calc.Results{}, "json")
			So(errors.Is(err, export.ErrEmptyResults), ShouldBeTrue)
		})
	})
}

func TestService_History(t *testing.T) {
	Convey("Given a service with a small history", t, func() {
		svc := startedService(service.WithHistorySize(2))
		defer svc.Stop()
		ctx := context.Background()

		var ids []string
		for i := 0; i < 3; i++ {
			rec, err := svc.CalculateVacuum(ctx, vacuum.DefaultInput())
			So(err, ShouldBeNil)
			ids = append(ids, rec.ID)
		}

		Convey("Then the oldest record is evicted", func() {
			_, err := svc.Record(ctx, ids[0])
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

			recent, err := svc.Recent(ctx, 10)
			So(err, ShouldBeNil)
			So(len(recent), ShouldEqual, 2)
			So(recent[0].ID, ShouldEqual, ids[2])
		})

		Convey("And the stats report the store capacity", func() {
			stats := svc.GetStats()
			So(stats.HistoryRecords, ShouldEqual, 2)
			So(stats.HistoryCapacity, ShouldEqual, 2)
		})
	})
}
