package genetics

import "github.com/okian/scicalc/internal/domain/calc"

// Op names the aggregate operation in failures.
const Op = "quantum genetics calculations"

var steps = []calc.Step[Input]{
	{Name: KeySuperposition, Fn: func(in Input, _ calc.Values) (float64, error) {
		return GeneticSuperposition(in.QuantumStateAmplitude, in.PopulationSize)
	}},
	{Name: KeyCoherence, Fn: func(in Input, _ calc.Values) (float64, error) {
		return QuantumCoherence(in.CoherenceTime, ReferenceTemp), nil
	}},
	{Name: KeyTunnelProbability, Fn: func(in Input, _ calc.Values) (float64, error) {
		return TunnelProbability(in.BarrierHeight, in.ParticleEnergy, BarrierWidth), nil
	}},
	{Name: KeyLeapPotential, Needs: []string{KeyTunnelProbability, KeySuperposition}, Fn: func(_ Input, v calc.Values) (float64, error) {
		return QuantumLeapPotential(v[KeyTunnelProbability], v[KeySuperposition])
	}},
	{Name: KeyFitnessGradient, Needs: []string{KeyCoherence}, Fn: func(in Input, v calc.Values) (float64, error) {
		return FitnessGradient(in.SelectionPressure, v[KeyCoherence]), nil
	}},
	{Name: KeySpeciation, Needs: []string{KeySuperposition}, Fn: func(in Input, v calc.Values) (float64, error) {
		return SpeciationProbability(in.MutationRate, v[KeySuperposition], in.PopulationSize)
	}},
	{Name: KeyEvolutionAcceleration, Needs: []string{KeyLeapPotential, KeyFitnessGradient}, Fn: func(_ Input, v calc.Values) (float64, error) {
		return EvolutionAcceleration(v[KeyLeapPotential], v[KeyFitnessGradient]), nil
	}},
	{Name: KeyNextEvolutionStep, Needs: []string{KeyEvolutionAcceleration}, Fn: func(in Input, v calc.Values) (float64, error) {
		return float64(NextEvolutionStep(in.GenerationCount, v[KeyEvolutionAcceleration])), nil
	}},
}

var fields = []calc.Field{
	{Key: KeySuperposition, Step: KeySuperposition, Format: calc.Fixed(6)},
	{Key: KeyCoherence, Step: KeyCoherence, Format: calc.Sci(3)},
	{Key: KeyTunnelProbability, Step: KeyTunnelProbability, Format: calc.Fixed(8)},
	{Key: KeyLeapPotential, Step: KeyLeapPotential, Format: calc.Fixed(6)},
	{Key: KeyFitnessGradient, Step: KeyFitnessGradient, Format: calc.Sci(3)},
	{Key: KeySpeciation, Step: KeySpeciation, Format: calc.Fixed(4)},
	{Key: KeyEvolutionAcceleration, Step: KeyEvolutionAcceleration, Format: calc.Fixed(8)},
	{Key: KeyNextEvolutionStep, Step: KeyNextEvolutionStep, Format: calc.Integer},
}

// Calculator runs the quantum genetics pipeline. It is stateless and safe for
// concurrent use.
type Calculator struct {
	pipeline *calc.Pipeline[Input]
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
	return c.pipeline.Run(in)
}

// CalculateAll runs every step and returns the formatted output mapping.
func (c *Calculator) CalculateAll(in Input) (calc.Results, error) {
	v, err := c.Compute(in)
	if err != nil {
		return calc.Results{}, err
	}
	return calc.Render(v, fields), nil
}
