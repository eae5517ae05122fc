package oscillator

import (
	"math"
	"math/rand"
	"testing"

	"chronorate/domain/circadian"
	"chronorate/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSimulator(t *testing.T) *Simulator {
	t.Helper()
	sim, err := NewSimulator(DefaultSettings())
	require.NoError(t, err)
	return sim
}

func TestSimulateShapeAndBand(t *testing.T) {
	sim := newTestSimulator(t)
	params := circadian.OscillatorParameters{Mu: 1.2, Tau: 24.0, NoiseLevel: 0.1}

	sig, err := sim.Simulate(params, 7, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	require.Equal(t, 7*24, sig.Len())
	require.Len(t, sig.Hours, sig.Len())
	for i, h := range sig.Hours {
		assert.Equal(t, i, h)
	}
	assert.True(t, sig.InBand())
}

func TestSimulateIsReproducible(t *testing.T) {
	sim := newTestSimulator(t)
	params := circadian.OscillatorParameters{Mu: 1.5, Tau: 23.0, NoiseLevel: 0.08}

	a, err := sim.Simulate(params, 3, rand.New(rand.NewSource(5)))
	require.NoError(t, err)
	b, err := sim.Simulate(params, 3, rand.New(rand.NewSource(5)))
	require.NoError(t, err)
	c, err := sim.Simulate(params, 3, rand.New(rand.NewSource(6)))
	require.NoError(t, err)

	assert.Equal(t, core.HashFloats(a.Values), core.HashFloats(b.Values))
	assert.NotEqual(t, core.HashFloats(a.Values), core.HashFloats(c.Values))
}

func TestIntegrateStartsAtPeakAndOscillates(t *testing.T) {
	sim := newTestSimulator(t)
	params := circadian.OscillatorParameters{Mu: 1.0, Tau: 24.0, NoiseLevel: 0.1}

	traj, err := sim.Integrate(params, 3)
	require.NoError(t, err)
	require.Len(t, traj.X, 3*24*4)
	assert.Equal(t, 1.0, traj.X[0])
	assert.Equal(t, 0.0, traj.Y[0])
	assert.Equal(t, 0.25, traj.Times[1])

	// The Van der Pol limit cycle has amplitude close to 2 for moderate μ.
	maxAbs := 0.0
	crossings := 0
	for i, x := range traj.X {
		maxAbs = math.Max(maxAbs, math.Abs(x))
		if i > 0 && (traj.X[i-1] < 0) != (x < 0) {
			crossings++
		}
	}
	assert.InDelta(t, 2.0, maxAbs, 0.1)
	// Three days at a period near 24h cross zero roughly six times.
	assert.GreaterOrEqual(t, crossings, 4)
	assert.LessOrEqual(t, crossings, 8)
}

func TestSimulatePeriodTracksTau(t *testing.T) {
	sim := newTestSimulator(t)
	zeroRising := func(tau float64) []float64 {
		traj, err := sim.Integrate(circadian.OscillatorParameters{Mu: 1.0, Tau: tau, NoiseLevel: 0.1}, 10)
		require.NoError(t, err)
		var times []float64
		for i := 1; i < len(traj.X); i++ {
			if traj.X[i-1] < 0 && traj.X[i] >= 0 {
				times = append(times, traj.Times[i])
			}
		}
		return times
	}

	short := zeroRising(22.5)
	long := zeroRising(25.5)
	require.Greater(t, len(short), 3)
	require.Greater(t, len(long), 3)

	shortPeriod := (short[len(short)-1] - short[1]) / float64(len(short)-2)
	longPeriod := (long[len(long)-1] - long[1]) / float64(len(long)-2)
	assert.Less(t, shortPeriod, longPeriod)
}

func TestSimulateRejectsInvalidInput(t *testing.T) {
	sim := newTestSimulator(t)
	rng := rand.New(rand.NewSource(1))

	_, err := sim.Simulate(circadian.OscillatorParameters{Mu: 1, Tau: 24, NoiseLevel: 0.1}, 0, rng)
	assert.True(t, core.IsGenerationError(err))

	_, err = sim.Simulate(circadian.OscillatorParameters{Mu: 1, Tau: 30, NoiseLevel: 0.1}, 1, rng)
	assert.True(t, core.IsGenerationError(err))

	_, err = NewSimulator(Settings{SamplesPerHour: 2, Substeps: 1})
	assert.True(t, core.IsGenerationError(err))
}

func TestResampleHourlyDropsEmptyBuckets(t *testing.T) {
	times := []float64{0, 0.5, 2.0, 2.5}
	values := []float64{0.2, 0.4, 0.6, 0.8}

	sig := resampleHourly(times, values, 3)

	assert.Equal(t, []int{0, 2}, sig.Hours)
	assert.InDeltaSlice(t, []float64{0.3, 0.7}, sig.Values, 1e-12)
}

func TestNormalizeMapsIntoBand(t *testing.T) {
	out := normalize([]float64{-2, 0, 2})
	assert.InDeltaSlice(t, []float64{0.1, 0.55, 1.0}, out, 1e-12)

	flat := normalize([]float64{3, 3})
	assert.Equal(t, []float64{0.1, 0.1}, flat)
}
