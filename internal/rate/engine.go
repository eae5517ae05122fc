// Package rate applies time-of-day and chronotype multipliers to a base rate.
// All arithmetic is integer so independent evaluators reproduce results exactly.
package rate

import (
	"fmt"
	"math/big"

	"chronorate/domain/circadian"
	"chronorate/domain/core"
	"chronorate/internal"
)

// NeutralMultiplier is 1.0 in basis points.
const NeutralMultiplier int64 = 10000

// scale divides out both basis-point multipliers.
var scale = big.NewInt(NeutralMultiplier * NeutralMultiplier)

// HourlyMultipliers indexes basis points by hour of day.
var HourlyMultipliers = [circadian.HoursPerDay]int64{
	0: 9000, 1: 9000,
	2: 8500, 3: 8500, 4: 8500, 5: 8500, 6: 8500,
	7: 10000, 8: 10000,
	9: 11000, 10: 11000, 11: 11000, 12: 11000, 13: 11000,
	14: 11000, 15: 11000, 16: 11000, 17: 11000,
	18: 10000, 19: 10000, 20: 10000, 21: 10000,
	22: 9000, 23: 9000,
}

// ChronotypeMultipliers indexes basis points by class label.
var ChronotypeMultipliers = [circadian.NumClasses]int64{
	circadian.Early:        9500,
	circadian.Intermediate: 10000,
	circadian.Late:         10500,
}

// Quote is the full breakdown of one adjustment.
type Quote struct {
	BaseRate             int64                     `json:"base_rate"`
	AdjustedRate         int64                     `json:"adjusted_rate"`
	Hour                 int                       `json:"hour"`
	Chronotype           circadian.ChronotypeClass `json:"chronotype"`
	ChronotypeName       string                    `json:"chronotype_name"`
	Confidence           float64                   `json:"confidence"`
	HourlyMultiplier     int64                     `json:"hourly_multiplier"`
	ChronotypeMultiplier int64                     `json:"chronotype_multiplier"`
}

// Engine is stateless apart from its logger and safe for concurrent use.
type Engine struct {
	logger *internal.Logger
}

func NewEngine(logger *internal.Logger) *Engine {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Engine{logger: logger}
}

// HourlyMultiplier returns the table entry, or neutral outside [0, 23].
func HourlyMultiplier(hour int) int64 {
	if hour < 0 || hour >= len(HourlyMultipliers) {
		return NeutralMultiplier
	}
	return HourlyMultipliers[hour]
}

// ChronotypeMultiplier returns the table entry, or neutral for unknown labels.
func ChronotypeMultiplier(label circadian.ChronotypeClass) int64 {
	if !label.Valid() {
		return NeutralMultiplier
	}
	return ChronotypeMultipliers[label]
}

// Adjust computes floor(base × hourly × chronotype / 10^8). Confidence is logged
// and has no effect on the result.
func (e *Engine) Adjust(baseRate int64, hour int, label circadian.ChronotypeClass, confidence float64) (int64, error) {
	q, err := e.Quote(baseRate, hour, label, confidence)
	if err != nil {
		return 0, err
	}
	return q.AdjustedRate, nil
}

// Quote is Adjust with the multipliers used.
func (e *Engine) Quote(baseRate int64, hour int, label circadian.ChronotypeClass, confidence float64) (Quote, error) {
	hourly := HourlyMultiplier(hour)
	chrono := ChronotypeMultiplier(label)

	product := new(big.Int).Mul(big.NewInt(baseRate), big.NewInt(hourly))
	product.Mul(product, big.NewInt(chrono))
	// Div is Euclidean; with a positive divisor that is floor division.
	adjusted := new(big.Int).Div(product, scale)
	if !adjusted.IsInt64() {
		return Quote{}, fmt.Errorf("%w: base rate %d", core.ErrRateOverflow, baseRate)
	}

	q := Quote{
		BaseRate:             baseRate,
		AdjustedRate:         adjusted.Int64(),
		Hour:                 hour,
		Chronotype:           label,
		ChronotypeName:       label.Label(),
		Confidence:           confidence,
		HourlyMultiplier:     hourly,
		ChronotypeMultiplier: chrono,
	}
	e.logger.Debug("rate adjusted: base=%d hour=%d chronotype=%s confidence=%.3f hourly=%d chrono=%d adjusted=%d",
		baseRate, hour, q.ChronotypeName, confidence, hourly, chrono, q.AdjustedRate)
	return q, nil
}
