package calc

import "math"

// Planck constants in J·s. The SI value of h is exact.
const (
	Planck        = 6.62607015e-34
	ReducedPlanck = Planck / (2 * math.Pi)
)
