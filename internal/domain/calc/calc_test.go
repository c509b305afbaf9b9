package calc_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/okian/scicalc/internal/domain/calc"
	. "github.com/smartystreets/goconvey/convey"
)

type pair struct{ a, b float64 }

func sumPipeline() *calc.Pipeline[pair] {
	return calc.MustPipeline("pair calculations",
		calc.Step[pair]{Name: "sum", Fn: func(in pair, _ calc.Values) (float64, error) { return in.a + in.b, nil }},
		calc.Step[pair]{Name: "ratio", Needs: []string{"sum"}, Fn: func(in pair, v calc.Values) (float64, error) {
			return v["sum"] / in.b, nil
		}},
		calc.Step[pair]{Name: "checked", Needs: []string{"ratio"}, Fn: func(in pair, v calc.Values) (float64, error) {
			if in.a < 0 {
				return 0, calc.Domainf("a", in.a, "must not be negative")
			}
			return v["ratio"] * 2, nil
		}},
	)
}

func TestPipeline(t *testing.T) {
	Convey("Given a pipeline of dependent steps", t, func() {
		p := sumPipeline()

		Convey("When every step succeeds", func() {
			v, err := p.Run(pair{a: 2, b: 2})

			Convey("Then each value is computed from earlier ones", func() {
				So(err, ShouldBeNil)
				So(v["sum"], ShouldEqual, 4.0)
				So(v["ratio"], ShouldEqual, 2.0)
				So(v["checked"], ShouldEqual, 4.0)
			})
		})

		Convey("When a step divides by zero", func() {
			v, err := p.Run(pair{a: 1, b: 0})

			Convey("Then the run fails with an arithmetic error naming the step", func() {
				So(v, ShouldBeNil)
				So(errors.Is(err, calc.ErrArithmetic), ShouldBeTrue)
				var ce *calc.CalculationError
				So(errors.As(err, &ce), ShouldBeTrue)
				So(ce.Step, ShouldEqual, "ratio")
				So(ce.Op, ShouldEqual, "pair calculations")
				So(err.Error(), ShouldContainSubstring, "error in pair calculations")
				So(calc.Kind(err), ShouldEqual, "arithmetic_error")
			})
		})

		Convey("When a step rejects its input", func() {
			_, err := p.Run(pair{a: -1, b: 2})

			Convey("Then the run fails with a domain error", func() {
				So(errors.Is(err, calc.ErrDomain), ShouldBeTrue)
				So(errors.Is(err, calc.ErrArithmetic), ShouldBeFalse)
				So(calc.Kind(err), ShouldEqual, "domain_error")
				So(err.Error(), ShouldContainSubstring, "must not be negative")
			})
		})
	})

	Convey("Given steps declared out of dependency order", t, func() {
		_, err := calc.NewPipeline("bad",
			calc.Step[pair]{Name: "late", Needs: []string{"early"}, Fn: func(pair, calc.Values) (float64, error) { return 0, nil }},
			calc.Step[pair]{Name: "early", Fn: func(pair, calc.Values) (float64, error) { return 0, nil }},
		)

		Convey("Then construction fails", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, `needs "early"`)
		})
	})

	Convey("Given duplicate step names", t, func() {
		step := calc.Step[pair]{Name: "x", Fn: func(pair, calc.Values) (float64, error) { return 0, nil }}

		Convey("Then MustPipeline panics", func() {
			So(func() { calc.MustPipeline("dup", step, step) }, ShouldPanic)
		})
	})
}

func TestCheckFinite(t *testing.T) {
	Convey("Given CheckFinite", t, func() {
		So(calc.CheckFinite("s", 1.5), ShouldBeNil)
		So(calc.CheckFinite("s", math.Inf(1)), ShouldNotBeNil)
		So(calc.CheckFinite("s", math.Inf(-1)), ShouldNotBeNil)
		So(calc.CheckFinite("s", math.NaN()), ShouldNotBeNil)
	})
}

func TestResults(t *testing.T) {
	Convey("Given an ordered results mapping", t, func() {
		var r calc.Results
		r.Set("zeta", "1.000e+00")
		r.Set("alpha", 2.5)
		r.Set("mid", 7)

		Convey("Then keys keep insertion order", func() {
			So(r.Keys(), ShouldResemble, []string{"zeta", "alpha", "mid"})
			So(r.Len(), ShouldEqual, 3)
		})

		Convey("And overwriting a key keeps its position", func() {
			r.Set("zeta", "x")
			So(r.Keys(), ShouldResemble, []string{"zeta", "alpha", "mid"})
			v, ok := r.Get("zeta")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "x")
		})

		Convey("And JSON output preserves order and value types", func() {
			b, err := json.Marshal(r)
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `{"zeta":"1.000e+00","alpha":2.5,"mid":7}`)
		})

		Convey("And decoding keeps the payload order", func() {
			var back calc.Results
			err := json.Unmarshal([]byte(`{"b":"x","a":1e3,"c":3}`), &back)
			So(err, ShouldBeNil)
			So(back.Keys(), ShouldResemble, []string{"b", "a", "c"})
			a, _ := back.Get("a")
			So(calc.ValueString(a), ShouldEqual, "1e3")
		})

		Convey("And nested values are rejected", func() {
			var back calc.Results
			So(json.Unmarshal([]byte(`{"a":{"b":1}}`), &back), ShouldNotBeNil)
			So(json.Unmarshal([]byte(`[1,2]`), &back), ShouldNotBeNil)
		})

		Convey("And Range stops early", func() {
			var seen []string
			r.Range(func(k string, _ any) bool {
				seen = append(seen, k)
				return len(seen) < 2
			})
			So(seen, ShouldResemble, []string{"zeta", "alpha"})
		})
	})
}

func TestFormatting(t *testing.T) {
	Convey("Given the display formatters", t, func() {
		So(calc.FormatSci(4.958e18, 3), ShouldEqual, "4.958e+18")
		So(calc.FormatSci(0.000123456, 3), ShouldEqual, "1.235e-04")
		So(calc.FormatFixed(36, 6), ShouldEqual, "36.000000")
		So(calc.ValueString(48.25), ShouldEqual, "48.25")
		So(calc.ValueString(125), ShouldEqual, "125")

		Convey("Render applies per-field formats in field order", func() {
			v := calc.Values{"a": 1234.5, "b": 0.5, "c": 3.9}
			r := calc.Render(v, []calc.Field{
				{Key: "outB", Step: "b", Format: calc.Fixed(2)},
				{Key: "outA", Step: "a", Format: calc.Sci(1)},
				{Key: "outC", Step: "c", Format: calc.Integer},
				{Key: "rawA", Step: "a", Format: calc.Raw},
			})
			So(r.Keys(), ShouldResemble, []string{"outB", "outA", "outC", "rawA"})
			b, _ := r.Get("outB")
			a, _ := r.Get("outA")
			c, _ := r.Get("outC")
			raw, _ := r.Get("rawA")
			So(b, ShouldEqual, "0.50")
			So(a, ShouldEqual, "1.2e+03")
			So(c, ShouldEqual, 3)
			So(raw, ShouldEqual, 1234.5)
		})
	})
}
