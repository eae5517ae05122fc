package testkit

import (
	"math"

	"chronorate/domain/circadian"
)

// PeakHours is the hour of maximum activity used by ActivityPattern per class.
var PeakHours = map[circadian.ChronotypeClass]int{
	circadian.Early:        8,
	circadian.Intermediate: 13,
	circadian.Late:         19,
}

// ActivityPattern returns an hourly series of the given length whose daily cycle
// peaks at the class's hour. Values stay inside the physiological band.
func ActivityPattern(class circadian.ChronotypeClass, hours int) []float64 {
	peak := PeakHours[class]
	out := make([]float64, hours)
	for h := range out {
		phase := 2 * math.Pi * float64(h%circadian.HoursPerDay-peak) / circadian.HoursPerDay
		v := 0.5 + 0.45*math.Cos(phase)
		out[h] = math.Min(circadian.MaxActivity, math.Max(circadian.MinActivity, v))
	}
	return out
}

// FlatPattern returns a constant series.
func FlatPattern(value float64, hours int) []float64 {
	out := make([]float64, hours)
	for i := range out {
		out[i] = value
	}
	return out
}
