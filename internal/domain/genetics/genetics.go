// Package genetics computes the quantum genetics metrics: superposition,
// tunnelling and evolutionary dynamics modelled as a chain of eight formulas.
package genetics

import (
	"math"

	"github.com/okian/scicalc/internal/domain/calc"
)

// Physical constants (CODATA 2018).
const (
	Hbar          = calc.ReducedPlanck
	ElectronMass  = 9.1093837015e-31 // kg
	Boltzmann     = 1.380649e-23     // J/K
	ElectronVolt  = 1.602176634e-19  // J
	ReferenceTemp = 300.0            // K, fixed for the coherence step
	BarrierWidth  = 1e-9             // m
)

const (
	diversityScale       = 10.0
	coherenceScale       = 1e8
	coherenceThreshold   = 1e-6
	gradientScale        = 1e-2
	accelerationScale    = 1e6
	accelerationMinimum  = 1e-6
	defaultEvolutionStep = 100
)

// Result keys in output order.
const (
	KeySuperposition         = "geneticSuperposition"
	KeyCoherence             = "quantumCoherence"
	KeyTunnelProbability     = "tunnelProbability"
	KeyLeapPotential         = "quantumLeapPotential"
	KeyFitnessGradient       = "fitnessGradient"
	KeySpeciation            = "speciationProbability"
	KeyEvolutionAcceleration = "evolutionAcceleration"
	KeyNextEvolutionStep     = "nextEvolutionStep"
)

// Input carries the user-supplied parameters of one calculation.
type Input struct {
	PopulationSize        int     `json:"population_size"`
	QuantumStateAmplitude float64 `json:"quantum_state_amplitude"`
	CoherenceTime         float64 `json:"coherence_time"`
	BarrierHeight         float64 `json:"barrier_height"`
	ParticleEnergy        float64 `json:"particle_energy"`
	SelectionPressure     float64 `json:"selection_pressure"`
	MutationRate          float64 `json:"mutation_rate"`
	GenerationCount       int     `json:"generation_count"`
}

// DefaultInput returns the parameters the UI starts with.
func DefaultInput() Input {
	return Input{
		PopulationSize:        100,
		QuantumStateAmplitude: 0.85,
		CoherenceTime:         1e-9,
		BarrierHeight:         1.0,
		ParticleEnergy:        0.5,
		SelectionPressure:     2.0,
		MutationRate:          0.01,
		GenerationCount:       25,
	}
}

// GeneticSuperposition blends the state amplitude with the population's
// log-diversity.
func GeneticSuperposition(amplitude float64, populationSize int) (float64, error) {
	if populationSize < 1 {
		return 0, calc.Domainf("population size", float64(populationSize), "must be at least 1")
	}
	diversity := math.Log(float64(populationSize)) / diversityScale
	return amplitude * (1 - math.Exp(-diversity)), nil
}

// QuantumCoherence decays the coherence time thermally at temperature.
func QuantumCoherence(coherenceTime, temperature float64) float64 {
	decoherence := math.Exp(-Boltzmann * temperature * coherenceTime / Hbar)
	return coherenceTime * decoherence * coherenceScale
}

// TunnelProbability returns the WKB transmission through a rectangular
// barrier of the given width. Energies are in eV. A particle at or above
// the barrier passes with probability 1.
func TunnelProbability(barrierHeight, particleEnergy, width float64) float64 {
	if particleEnergy >= barrierHeight {
		return 1.0
	}
	barrierJ := barrierHeight * ElectronVolt
	particleJ := particleEnergy * ElectronVolt
	kappa := math.Sqrt(2*ElectronMass*(barrierJ-particleJ)) / Hbar
	return math.Exp(-2 * kappa * width)
}

// QuantumLeapPotential returns tunnel·s·√s.
func QuantumLeapPotential(tunnel, superposition float64) (float64, error) {
	if superposition < 0 {
		return 0, calc.Domainf("genetic superposition", superposition, "must not be negative")
	}
	return tunnel * superposition * math.Sqrt(superposition), nil
}

// FitnessGradient is zero until coherence exceeds 1e-6.
func FitnessGradient(selectionPressure, coherence float64) float64 {
	if coherence > coherenceThreshold {
		return selectionPressure * coherence * gradientScale
	}
	return 0
}

// SpeciationProbability combines superposition, mutation rate and population
// size, clamped to at most 1.
func SpeciationProbability(mutationRate, superposition float64, populationSize int) (float64, error) {
	if mutationRate < 0 {
		return 0, calc.Domainf("mutation rate", mutationRate, "must not be negative")
	}
	if populationSize < 1 {
		return 0, calc.Domainf("population size", float64(populationSize), "must be at least 1")
	}
	p := superposition * math.Sqrt(mutationRate) / math.Sqrt(float64(populationSize))
	return math.Min(p, 1.0), nil
}

// EvolutionAcceleration is zero unless the fitness gradient is positive.
func EvolutionAcceleration(leapPotential, gradient float64) float64 {
	if gradient > 0 {
		return leapPotential * gradient * accelerationScale
	}
	return 0
}

// NextEvolutionStep predicts the generation of the next significant step.
func NextEvolutionStep(generationCount int, acceleration float64) int {
	step := defaultEvolutionStep
	if acceleration > accelerationMinimum {
		step = max(1, int(1/acceleration))
	}
	return generationCount + step
}
