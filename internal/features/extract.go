// Package features turns an hourly activity window into the 9-dimensional vector
// consumed by the chronotype classifier. The same Extract is used to build training
// matrices and to score live samples.
package features

import (
	"fmt"

	"chronorate/domain/circadian"
	"chronorate/domain/core"

	"github.com/montanaflynn/stats"
)

// WindowHours is the number of leading samples summarized.
const WindowHours = circadian.HoursPerDay

// RatioEpsilon guards the morning/evening ratio against a zero evening mean. It
// assumes activity in the physiological band [MinActivity, MaxActivity]; an evening
// mean near -RatioEpsilon makes the ratio unbounded.
const RatioEpsilon = 1e-6

// Hour ranges, half open.
const (
	nightStart   = 0
	nightEnd     = 6
	morningStart = 6
	morningEnd   = 12
	eveningStart = 18
	eveningEnd   = 24
)

// Extract summarizes the first 24 samples. An empty input yields the zero vector.
// Inputs are expected in the physiological band, as every generated and perturbed
// signal is; raw serving samples outside it are summarized as given.
func Extract(values []float64) circadian.FeatureVector {
	fv, err := ExtractStrict(values)
	if err != nil {
		return circadian.FeatureVector{}
	}
	return fv
}

// ExtractStrict is Extract but reports an empty input as core.ErrDataShape.
func ExtractStrict(values []float64) (circadian.FeatureVector, error) {
	var fv circadian.FeatureVector
	if len(values) == 0 {
		return fv, fmt.Errorf("extract features: %w", core.ErrDataShape)
	}

	window := Window(values)

	peak, trough := 0, 0
	for i, v := range window {
		if v > window[peak] {
			peak = i
		}
		if v < window[trough] {
			trough = i
		}
	}

	mean, _ := stats.Mean(window)
	std, _ := stats.StandardDeviationPopulation(window)
	morning, _ := stats.Mean(window[morningStart:morningEnd])
	evening, _ := stats.Mean(window[eveningStart:eveningEnd])
	night, _ := stats.Mean(window[nightStart:nightEnd])

	fv[circadian.FeaturePeakHour] = float64(peak)
	fv[circadian.FeatureTroughHour] = float64(trough)
	fv[circadian.FeatureMeanActivity] = mean
	fv[circadian.FeatureStdActivity] = std
	fv[circadian.FeatureMorningMean] = morning
	fv[circadian.FeatureEveningMean] = evening
	fv[circadian.FeatureNightMean] = night
	fv[circadian.FeatureMorningEveningRatio] = morning / (evening + RatioEpsilon)
	fv[circadian.FeatureNormalizedPeakOffset] = (float64(peak) - 12) / 12
	return fv, nil
}

// Window returns a fresh 24-sample window: the first 24 values, padded with the
// mean of the available values when shorter. Empty input returns nil.
func Window(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	window := make([]float64, WindowHours)
	n := copy(window, values)
	if n < WindowHours {
		fill, _ := stats.Mean(values[:n])
		for i := n; i < WindowHours; i++ {
			window[i] = fill
		}
	}
	return window
}
