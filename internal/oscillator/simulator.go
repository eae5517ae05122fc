package oscillator

import (
	"fmt"
	"math/rand"

	"chronorate/domain/circadian"
	"chronorate/internal/errors"

	"github.com/montanaflynn/stats"
)

// Physiological band of the normalized oscillator output, before noise.
const (
	bandLow  = 0.1
	bandHigh = 1.0
)

// MinSamplesPerHour keeps the limit cycle's asymmetric peak/trough shape intact.
const MinSamplesPerHour = 4

// Settings controls the integrator.
type Settings struct {
	// SamplesPerHour is the output resolution before hourly resampling.
	SamplesPerHour int
	// Substeps is the number of RK4 steps between consecutive samples.
	Substeps int
}

// DefaultSettings samples every 15 minutes with four RK4 steps per sample.
func DefaultSettings() Settings {
	return Settings{SamplesPerHour: 4, Substeps: 4}
}

// Validate rejects resolutions too coarse for the limit cycle.
func (s Settings) Validate() error {
	if s.SamplesPerHour < MinSamplesPerHour {
		return fmt.Errorf("samples per hour %d below minimum %d", s.SamplesPerHour, MinSamplesPerHour)
	}
	if s.Substeps < 1 {
		return fmt.Errorf("substeps must be at least 1, got %d", s.Substeps)
	}
	return nil
}

// Simulator integrates the period-scaled Van der Pol oscillator
//
//	dx/dt = ω·y
//	dy/dt = ω·(μ·(1−x²)·y − x),  ω = 2π/τ
//
// from (x₀, y₀) = (1, 0) and turns x(t) into an hourly activity signal.
type Simulator struct {
	settings Settings
}

// NewSimulator validates settings and returns a simulator.
func NewSimulator(settings Settings) (*Simulator, error) {
	if err := settings.Validate(); err != nil {
		return nil, errors.GenerationError(err.Error())
	}
	return &Simulator{settings: settings}, nil
}

// Settings returns the integrator configuration.
func (s *Simulator) Settings() Settings {
	return s.settings
}

// Trajectory is the raw integrated state sampled at t = k/SamplesPerHour.
type Trajectory struct {
	Times []float64
	X     []float64
	Y     []float64
}

// Integrate solves the ODE over days×24 hours. It is deterministic.
func (s *Simulator) Integrate(params circadian.OscillatorParameters, days int) (Trajectory, error) {
	if days < 1 {
		return Trajectory{}, errors.GenerationError(fmt.Sprintf("days must be at least 1, got %d", days))
	}
	if err := params.Validate(); err != nil {
		return Trajectory{}, errors.GenerationError(err.Error())
	}

	sph := s.settings.SamplesPerHour
	n := days * circadian.HoursPerDay * sph
	h := 1.0 / float64(sph*s.settings.Substeps)
	omega := params.Omega()
	mu := params.Mu

	traj := Trajectory{
		Times: make([]float64, n),
		X:     make([]float64, n),
		Y:     make([]float64, n),
	}

	x, y := 1.0, 0.0
	for k := 0; k < n; k++ {
		if k > 0 {
			for step := 0; step < s.settings.Substeps; step++ {
				x, y = rk4(x, y, h, omega, mu)
			}
		}
		traj.Times[k] = float64(k) / float64(sph)
		traj.X[k] = x
		traj.Y[k] = y
	}
	return traj, nil
}

// Simulate produces the hourly activity signal for one subject. rng is the only
// source of non-determinism.
func (s *Simulator) Simulate(params circadian.OscillatorParameters, days int, rng *rand.Rand) (circadian.ActivitySignal, error) {
	traj, err := s.Integrate(params, days)
	if err != nil {
		return circadian.ActivitySignal{}, err
	}

	activity := normalize(traj.X)
	for i, v := range activity {
		activity[i] = circadian.Clamp(v + rng.NormFloat64()*params.NoiseLevel)
	}

	return resampleHourly(traj.Times, activity, days*circadian.HoursPerDay), nil
}

func derivatives(x, y, omega, mu float64) (float64, float64) {
	return omega * y, omega * (mu*(1-x*x)*y - x)
}

func rk4(x, y, h, omega, mu float64) (float64, float64) {
	k1x, k1y := derivatives(x, y, omega, mu)
	k2x, k2y := derivatives(x+h/2*k1x, y+h/2*k1y, omega, mu)
	k3x, k3y := derivatives(x+h/2*k2x, y+h/2*k2y, omega, mu)
	k4x, k4y := derivatives(x+h*k3x, y+h*k3y, omega, mu)
	return x + h/6*(k1x+2*k2x+2*k3x+k4x),
		y + h/6*(k1y+2*k2y+2*k3y+k4y)
}

// normalize min-max scales x to [0,1] and maps it into [bandLow, bandHigh].
// A flat trajectory maps to bandLow.
func normalize(x []float64) []float64 {
	out := make([]float64, len(x))
	lo, _ := stats.Min(x)
	hi, _ := stats.Max(x)
	span := hi - lo
	for i, v := range x {
		unit := 0.0
		if span > 0 {
			unit = (v - lo) / span
		}
		out[i] = bandLow + (bandHigh-bandLow)*unit
	}
	return out
}

// resampleHourly averages the samples falling in each [h, h+1) bucket. Empty
// buckets are dropped, so the result can be shorter than totalHours.
func resampleHourly(times, values []float64, totalHours int) circadian.ActivitySignal {
	sums := make([]float64, totalHours)
	counts := make([]int, totalHours)
	for i, t := range times {
		bucket := int(t)
		if bucket < 0 || bucket >= totalHours {
			continue
		}
		sums[bucket] += values[i]
		counts[bucket]++
	}

	sig := circadian.ActivitySignal{
		Hours:  make([]int, 0, totalHours),
		Values: make([]float64, 0, totalHours),
	}
	for hour := 0; hour < totalHours; hour++ {
		if counts[hour] == 0 {
			continue
		}
		sig.Hours = append(sig.Hours, hour)
		sig.Values = append(sig.Values, sums[hour]/float64(counts[hour]))
	}
	return sig
}
