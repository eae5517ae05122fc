package app

import (
	"context"

	"chronorate/domain/circadian"
	"chronorate/internal"
	"chronorate/internal/inference"
	"chronorate/internal/rate"
)

// FallbackConfidence is reported when inference fails and the neutral
// Intermediate label is priced instead.
const FallbackConfidence = 0.5

// ScoringService prices a request from a live activity sample.
type ScoringService struct {
	adapter *inference.Adapter
	engine  *rate.Engine
	logger  *internal.Logger
}

// NewScoringService wires the service.
func NewScoringService(adapter *inference.Adapter, engine *rate.Engine, logger *internal.Logger) *ScoringService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ScoringService{adapter: adapter, engine: engine, logger: logger}
}

// ScoreResult pairs the inference outcome with the priced quote.
type ScoreResult struct {
	Inference circadian.InferenceResult `json:"inference"`
	Quote     rate.Quote                `json:"quote"`
	// Fallback is set when the quote used the default label.
	Fallback bool `json:"fallback"`
}

// Infer classifies an activity sample.
func (s *ScoringService) Infer(ctx context.Context, activity []float64) circadian.InferenceResult {
	return s.adapter.Infer(ctx, activity)
}

// Adjust prices a known label.
func (s *ScoringService) Adjust(baseRate int64, hour int, label circadian.ChronotypeClass, confidence float64) (rate.Quote, error) {
	return s.engine.Quote(baseRate, hour, label, confidence)
}

// Score infers the chronotype and prices the request. Inference failures never
// fail the call; only an overflowing rate does.
func (s *ScoringService) Score(ctx context.Context, baseRate int64, hour int, activity []float64) (*ScoreResult, error) {
	result := s.adapter.Infer(ctx, activity)

	label, confidence := result.Label, result.Confidence
	fallback := !result.Success
	if fallback {
		s.logger.Warn("chronotype inference failed, pricing as %s: %s", circadian.Intermediate.Label(), result.ErrorMessage())
		label, confidence = circadian.Intermediate, FallbackConfidence
	} else if result.Degraded {
		s.logger.Warn("chronotype inferred from fallback features")
	}

	quote, err := s.engine.Quote(baseRate, hour, label, confidence)
	if err != nil {
		return nil, err
	}
	return &ScoreResult{Inference: result, Quote: quote, Fallback: fallback}, nil
}
