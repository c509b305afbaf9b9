package calc

import "strconv"

// Field maps a pipeline value to its output key and display form.
type Field struct {
	Key    string
	Step   string
	Format func(float64) any
}

// Sci renders in normalized scientific notation with digits fractional digits.
func Sci(digits int) func(float64) any {
	return func(v float64) any { return FormatSci(v, digits) }
}

// Fixed renders in fixed notation with digits fractional digits.
func Fixed(digits int) func(float64) any {
	return func(v float64) any { return FormatFixed(v, digits) }
}

// Raw leaves the value as a number.
func Raw(v float64) any { return v }

// Integer truncates the value to an int.
func Integer(v float64) any { return int(v) }

// FormatSci formats v as e.g. 4.958e+18.
func FormatSci(v float64, digits int) string {
	return strconv.FormatFloat(v, 'e', digits, 64)
}

// FormatFixed formats v as e.g. 36.000000.
func FormatFixed(v float64, digits int) string {
	return strconv.FormatFloat(v, 'f', digits, 64)
}

// Render builds the ordered output mapping from raw pipeline values.
func Render(v Values, fields []Field) Results {
	var r Results
	for _, f := range fields {
		r.Set(f.Key, f.Format(v[f.Step]))
	}
	return r
}
