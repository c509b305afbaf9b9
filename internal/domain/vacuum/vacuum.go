// Package vacuum computes the vacuum energy metrics: a fixed chain of eight
// formulas over six scalar inputs.
package vacuum

import (
	"math"

	"github.com/okian/scicalc/internal/domain/calc"
)

// Reference physical constants.
const (
	ReferencePlanck       = calc.Planck
	ReferenceSpeedOfLight = 299792458.0 // m/s
	ReferenceHbar         = calc.ReducedPlanck
)

const (
	vacuumImpedance     = 376.730313668 // Ω, impedance of free space
	quantumTimeFloor    = 1e-15         // s, used when there is no harvestable energy
	defaultTimeConstant = 1.0
	resistanceScale     = 1e-15
	yieldFactor         = 1e-6
	powerScale          = 1e12
	densityEpsilon      = 1e-30
	quantumOffset       = 50.0
	thermalScale        = 100.0
	percent             = 100.0
)

// Result keys in output order.
const (
	KeyEnergyDensity        = "vacuumEnergyDensity"
	KeyTotalEnergy          = "totalVacuumEnergy"
	KeyHarvestableEnergy    = "harvestableEnergy"
	KeyPowerOutput          = "powerOutput"
	KeyExtractionEfficiency = "extractionEfficiency"
	KeyVacuumResistance     = "vacuumResistance"
	KeyEnergyYield          = "energyYieldPerSecond"
	KeyFeasibilityIndex     = "feasibilityIndex"
)

// Input carries the user-supplied parameters of one calculation.
type Input struct {
	PlanckConstant   float64 `json:"planck_constant"`
	SpeedOfLight     float64 `json:"speed_of_light"`
	Volume           float64 `json:"volume"`
	CutoffFrequency  float64 `json:"cutoff_frequency"`
	ExtractionFactor float64 `json:"extraction_factor"`
	Temperature      float64 `json:"temperature"`
}

// DefaultInput returns the parameters the UI starts with.
func DefaultInput() Input {
	return Input{
		PlanckConstant:   ReferencePlanck,
		SpeedOfLight:     ReferenceSpeedOfLight,
		Volume:           1.0,
		CutoffFrequency:  1e20,
		ExtractionFactor: 0.36,
		Temperature:      2.7,
	}
}

// Constants are the physical constants used by one calculation.
type Constants struct {
	Hbar float64
	C    float64
}

// ReferenceConstants returns the physical reference values.
func ReferenceConstants() Constants {
	return Constants{Hbar: ReferenceHbar, C: ReferenceSpeedOfLight}
}

// ConstantsFor applies the caller's overrides to the reference constants.
// A Planck constant different from the reference replaces hbar with h/2π,
// a different speed of light replaces c.
func ConstantsFor(planck, speedOfLight float64) Constants {
	k := ReferenceConstants()
	if planck != ReferencePlanck {
		k.Hbar = planck / (2 * math.Pi)
	}
	if speedOfLight != ReferenceSpeedOfLight {
		k.C = speedOfLight
	}
	return k
}

// EnergyDensity returns hbar·ω⁴ / (8π²c³) in J/m³.
func EnergyDensity(k Constants, cutoffFrequency float64) float64 {
	return k.Hbar * math.Pow(cutoffFrequency, 4) / (8 * math.Pi * math.Pi * math.Pow(k.C, 3))
}

// TotalEnergy returns the energy contained in volume.
func TotalEnergy(energyDensity, volume float64) float64 {
	return energyDensity * volume
}

// HarvestableEnergy scales the total energy by the extraction factor,
// which must lie in [0, 1].
func HarvestableEnergy(totalEnergy, extractionFactor float64) (float64, error) {
	if !(extractionFactor >= 0 && extractionFactor <= 1) {
		return 0, calc.Domainf("extraction factor", extractionFactor, "must be between 0 and 1")
	}
	return totalEnergy * extractionFactor, nil
}

// PowerOutput divides the harvestable energy by the quantum time scale
// hbar/E, or by a fixed floor when nothing is harvestable.
func PowerOutput(k Constants, harvestable, timeConstant float64) float64 {
	quantumTime := quantumTimeFloor
	if harvestable > 0 {
		quantumTime = k.Hbar / harvestable
	}
	return harvestable / (quantumTime * timeConstant)
}

// ExtractionEfficiency returns the extraction factor as a percentage.
func ExtractionEfficiency(extractionFactor float64) float64 {
	return extractionFactor * percent
}

// VacuumResistance relates the impedance of free space to the contained energy.
func VacuumResistance(energyDensity, volume float64) float64 {
	return vacuumImpedance / (energyDensity * volume * resistanceScale)
}

// EnergyYieldPerSecond scales harvestable energy by power output.
func EnergyYieldPerSecond(harvestable, powerOutput float64) float64 {
	return harvestable * yieldFactor * (powerOutput / powerScale)
}

// FeasibilityIndex combines extraction, temperature and energy density into
// a non-negative score.
func FeasibilityIndex(extractionFactor, energyDensity, temperature float64) float64 {
	thermal := 1 / (1 + temperature/thermalScale)
	quantum := math.Log10(energyDensity+densityEpsilon) + quantumOffset
	return math.Max(0, extractionFactor*percent*thermal*(quantum/quantumOffset))
}
