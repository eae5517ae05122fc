package oscillator

import (
	"fmt"
	"math/rand"

	"chronorate/domain/circadian"
)

// ParameterRange bounds the class-conditioned uniform draws. A period below 24h is
// what makes a subject "early" and above 24h "late"; the ranges define the classes.
type ParameterRange struct {
	MuMin, MuMax       float64
	TauMin, TauMax     float64
	NoiseMin, NoiseMax float64
}

// Contains reports whether p lies inside the range (inclusive).
func (r ParameterRange) Contains(p circadian.OscillatorParameters) bool {
	return p.Mu >= r.MuMin && p.Mu <= r.MuMax &&
		p.Tau >= r.TauMin && p.Tau <= r.TauMax &&
		p.NoiseLevel >= r.NoiseMin && p.NoiseLevel <= r.NoiseMax
}

// ParameterRanges is indexed by ChronotypeClass.
var ParameterRanges = [circadian.NumClasses]ParameterRange{
	circadian.Early: {
		MuMin: 0.8, MuMax: 1.5,
		TauMin: 22.5, TauMax: 23.8,
		NoiseMin: 0.05, NoiseMax: 0.12,
	},
	circadian.Intermediate: {
		MuMin: 0.9, MuMax: 1.8,
		TauMin: 23.8, TauMax: 24.2,
		NoiseMin: 0.06, NoiseMax: 0.15,
	},
	circadian.Late: {
		MuMin: 1.2, MuMax: 2.5,
		TauMin: 24.2, TauMax: 25.5,
		NoiseMin: 0.08, NoiseMax: 0.18,
	},
}

// RangeFor returns the sampling range of a class.
func RangeFor(class circadian.ChronotypeClass) (ParameterRange, error) {
	if !class.Valid() {
		return ParameterRange{}, fmt.Errorf("no parameter range for %s", class)
	}
	return ParameterRanges[class], nil
}

// Sample draws μ, τ and noise level independently, in that order.
func Sample(class circadian.ChronotypeClass, rng *rand.Rand) (circadian.OscillatorParameters, error) {
	r, err := RangeFor(class)
	if err != nil {
		return circadian.OscillatorParameters{}, err
	}
	return circadian.OscillatorParameters{
		Mu:         uniform(rng, r.MuMin, r.MuMax),
		Tau:        uniform(rng, r.TauMin, r.TauMax),
		NoiseLevel: uniform(rng, r.NoiseMin, r.NoiseMax),
	}, nil
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}
