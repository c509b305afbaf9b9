package vacuum

import "github.com/okian/scicalc/internal/domain/calc"

// Op names the aggregate operation in failures.
const Op = "vacuum energy calculations"

// call is the per-invocation input of the pipeline: the user parameters and
// the constants resolved for this call only.
type call struct {
	in Input
	k  Constants
}

var steps = []calc.Step[call]{
	{Name: KeyEnergyDensity, Fn: func(c call, _ calc.Values) (float64, error) {
		return EnergyDensity(c.k, c.in.CutoffFrequency), nil
	}},
	{Name: KeyTotalEnergy, Needs: []string{KeyEnergyDensity}, Fn: func(c call, v calc.Values) (float64, error) {
		return TotalEnergy(v[KeyEnergyDensity], c.in.Volume), nil
	}},
	{Name: KeyHarvestableEnergy, Needs: []string{KeyTotalEnergy}, Fn: func(c call, v calc.Values) (float64, error) {
		return HarvestableEnergy(v[KeyTotalEnergy], c.in.ExtractionFactor)
	}},
	{Name: KeyPowerOutput, Needs: []string{KeyHarvestableEnergy}, Fn: func(c call, v calc.Values) (float64, error) {
		return PowerOutput(c.k, v[KeyHarvestableEnergy], defaultTimeConstant), nil
	}},
	{Name: KeyExtractionEfficiency, Fn: func(c call, _ calc.Values) (float64, error) {
		return ExtractionEfficiency(c.in.ExtractionFactor), nil
	}},
	{Name: KeyVacuumResistance, Needs: []string{KeyEnergyDensity}, Fn: func(c call, v calc.Values) (float64, error) {
		return VacuumResistance(v[KeyEnergyDensity], c.in.Volume), nil
	}},
	{Name: KeyEnergyYield, Needs: []string{KeyHarvestableEnergy, KeyPowerOutput}, Fn: func(_ call, v calc.Values) (float64, error) {
		return EnergyYieldPerSecond(v[KeyHarvestableEnergy], v[KeyPowerOutput]), nil
	}},
	{Name: KeyFeasibilityIndex, Needs: []string{KeyEnergyDensity}, Fn: func(c call, v calc.Values) (float64, error) {
		return FeasibilityIndex(c.in.ExtractionFactor, v[KeyEnergyDensity], c.in.Temperature), nil
	}},
}

// fields is the output contract. feasibilityIndex stays numeric while every
// other field is a display string; downstream consumers rely on that shape.
var fields = []calc.Field{
	{Key: KeyEnergyDensity, Step: KeyEnergyDensity, Format: calc.Sci(3)},
	{Key: KeyTotalEnergy, Step: KeyTotalEnergy, Format: calc.Sci(3)},
	{Key: KeyHarvestableEnergy, Step: KeyHarvestableEnergy, Format: calc.Sci(3)},
	{Key: KeyPowerOutput, Step: KeyPowerOutput, Format: calc.Sci(3)},
	{Key: KeyExtractionEfficiency, Step: KeyExtractionEfficiency, Format: calc.Fixed(6)},
	{Key: KeyVacuumResistance, Step: KeyVacuumResistance, Format: calc.Sci(3)},
	{Key: KeyEnergyYield, Step: KeyEnergyYield, Format: calc.Sci(3)},
	{Key: KeyFeasibilityIndex, Step: KeyFeasibilityIndex, Format: calc.Raw},
}

// Calculator runs the vacuum energy pipeline. It holds no per-call state and
// is safe for concurrent use.
type Calculator struct {
	pipeline *calc.Pipeline[call]
}

// NewCalculator creates a Calculator.
func NewCalculator() *Calculator {
	return &Calculator{pipeline: calc.MustPipeline(Op, steps...)}
}

// Keys returns the output keys in order.
func (c *Calculator) Keys() []string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	return keys
}

// Compute returns the raw step values for in.
func (c *Calculator) Compute(in Input) (calc.Values, error) {
	return c.pipeline.Run(call{in: in, k: ConstantsFor(in.PlanckConstant, in.SpeedOfLight)})
}

// CalculateAll runs every step and returns the formatted output mapping.
// Any failure aborts the whole run with a *calc.CalculationError.
func (c *Calculator) CalculateAll(in Input) (calc.Results, error) {
	v, err := c.Compute(in)
	if err != nil {
		return calc.Results{}, err
	}
	return calc.Render(v, fields), nil
}
