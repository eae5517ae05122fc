// Package perturbation layers behavioral disruptions onto a subject's base signal.
//
// Every transform reads the base signal, never another transform's output, and
// returns a new signal of the same length clamped to the physiological band.
package perturbation

import (
	"math/rand"

	"chronorate/domain/circadian"
)

// Transform derives one named signal from a subject's base signal.
type Transform interface {
	Name() string
	Apply(subject *circadian.Subject, rng *rand.Rand) (circadian.ActivitySignal, []circadian.Event)
}

// classIntensity looks up a per-class value, defaulting to the intermediate one.
func classIntensity(table [circadian.NumClasses]float64, class circadian.ChronotypeClass) float64 {
	if !class.Valid() {
		return table[circadian.Intermediate]
	}
	return table[class]
}

// uniform draws from [lo, hi).
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

// disruptDay scales every hour of day by factor, adds N(0, sigma) noise and clamps.
func disruptDay(values []float64, day int, factor, sigma float64, rng *rand.Rand) {
	start := day * circadian.HoursPerDay
	end := start + circadian.HoursPerDay
	if end > len(values) {
		end = len(values)
	}
	for i := start; i < end; i++ {
		v := values[i] * factor
		v += rng.NormFloat64() * sigma
		values[i] = circadian.Clamp(v)
	}
}
