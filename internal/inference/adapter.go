// Package inference scores one activity pattern against the external chronotype
// models. Infer never returns an error: failures are reported inside the result with
// a safe default label, since a rate must always be produced downstream.
package inference

import (
	"context"
	"fmt"
	"math"

	"chronorate/domain/circadian"
	"chronorate/domain/core"
	"chronorate/internal"
	"chronorate/internal/errors"
	"chronorate/internal/features"

	"github.com/montanaflynn/stats"
)

// InputWidth is the window the encoder expects: 30 days of hourly samples.
const InputWidth = 30 * circadian.HoursPerDay

// FallbackWidth is how many raw values stand in for the encoding when the encoder
// is unavailable.
const FallbackWidth = 32

// Adapter runs the encode, feature, scale and classify sequence.
type Adapter struct {
	bundle *ModelBundle
	logger *internal.Logger
}

// NewAdapter wraps a model bundle. A nil bundle behaves as an empty one.
func NewAdapter(bundle *ModelBundle, logger *internal.Logger) *Adapter {
	if bundle == nil {
		bundle = EmptyBundle()
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Adapter{bundle: bundle, logger: logger}
}

// Bundle exposes the models in use.
func (a *Adapter) Bundle() *ModelBundle {
	return a.bundle
}

// Infer classifies raw hourly activity.
func (a *Adapter) Infer(ctx context.Context, raw []float64) circadian.InferenceResult {
	if !a.bundle.Loaded() {
		a.logger.Warn("chronotype models not loaded, returning default label")
		return circadian.FailedInference(errors.ModelUnavailable("classifier and scaler"))
	}
	if len(raw) == 0 {
		return circadian.FailedInference(errors.DataShapeError("empty activity pattern"))
	}

	window := FitWidth(raw, InputWidth)

	encoded, degraded := a.encode(ctx, window)
	engineered := features.Extract(raw)

	combined := make([]float64, 0, len(encoded)+circadian.FeatureDim)
	combined = append(combined, encoded...)
	combined = append(combined, engineered.Slice()...)

	scaled, err := a.bundle.scaler.Transform(ctx, [][]float64{combined})
	if err != nil {
		return circadian.FailedInference(errors.Wrap(err, "scale features"))
	}
	if len(scaled) != 1 || len(scaled[0]) != len(combined) {
		return circadian.FailedInference(fmt.Errorf("%w: got %d rows", core.ErrScalerOutput, len(scaled)))
	}

	probs, err := a.bundle.classifier.Predict(ctx, scaled)
	if err != nil {
		return circadian.FailedInference(errors.Wrap(err, "classify"))
	}
	if len(probs) != 1 {
		return circadian.FailedInference(fmt.Errorf("%w: got %d rows", core.ErrClassifierOutput, len(probs)))
	}

	label, confidence, err := argmax(probs[0])
	if err != nil {
		return circadian.FailedInference(err)
	}

	return circadian.InferenceResult{
		Label:      label,
		LabelName:  label.Label(),
		Confidence: confidence,
		Success:    true,
		Degraded:   degraded,
	}
}

// encode returns the learned representation, or the first FallbackWidth raw values
// when the encoder is missing or fails.
func (a *Adapter) encode(ctx context.Context, window []float64) ([]float64, bool) {
	if a.bundle.EncoderLoaded() {
		out, err := a.bundle.encoder.Encode(ctx, [][]float64{window})
		if err == nil && len(out) == 1 && len(out[0]) > 0 {
			return out[0], false
		}
		if err == nil {
			err = core.ErrEncoderOutput
		}
		a.logger.Warn("encoder failed, using fallback features: %v", err)
	} else {
		a.logger.Warn("encoder not loaded, using fallback features")
	}

	fallback := make([]float64, FallbackWidth)
	copy(fallback, window)
	return fallback, true
}

// FitWidth pads with the mean of values, or truncates, to exactly width samples.
func FitWidth(values []float64, width int) []float64 {
	out := make([]float64, width)
	n := copy(out, values)
	if n < width && n > 0 {
		fill, _ := stats.Mean(values)
		for i := n; i < width; i++ {
			out[i] = fill
		}
	}
	return out
}

// argmax picks the first most probable class.
func argmax(dist []float64) (circadian.ChronotypeClass, float64, error) {
	if len(dist) != circadian.NumClasses {
		return circadian.Intermediate, 0, fmt.Errorf("%w: %d classes", core.ErrClassifierOutput, len(dist))
	}
	best := 0
	for i, p := range dist {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return circadian.Intermediate, 0, fmt.Errorf("%w: non-finite probability", core.ErrClassifierOutput)
		}
		if p > dist[best] {
			best = i
		}
	}
	return circadian.ChronotypeClass(best), dist[best], nil
}
