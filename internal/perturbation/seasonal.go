package perturbation

import (
	"math"
	"math/rand"

	"chronorate/domain/circadian"
)

// SeasonalAmplitude is the per-chronotype strength of the yearly modulation.
var SeasonalAmplitude = [circadian.NumClasses]float64{
	circadian.Early:        0.05,
	circadian.Intermediate: 0.10,
	circadian.Late:         0.20,
}

const (
	daysPerYear = 365
	// seasonalPhaseDay is the day-of-year offset of the cosine.
	seasonalPhaseDay = 80
)

// SeasonalModulation multiplies activity by 1 + A·cos(2π·(day−80)/365).
type SeasonalModulation struct{}

func (SeasonalModulation) Name() string { return circadian.VariantSeasonal }

func (SeasonalModulation) Apply(subject *circadian.Subject, _ *rand.Rand) (circadian.ActivitySignal, []circadian.Event) {
	out := subject.Base.Clone()
	amplitude := classIntensity(SeasonalAmplitude, subject.Class)

	for i, hour := range out.Hours {
		out.Values[i] = circadian.Clamp(out.Values[i] * SeasonalFactor(hour, amplitude))
	}
	return out, nil
}

// SeasonalFactor is the multiplier applied at an absolute hour index.
func SeasonalFactor(hour int, amplitude float64) float64 {
	dayOfYear := (hour / circadian.HoursPerDay) % daysPerYear
	return 1 + amplitude*math.Cos(2*math.Pi*float64(dayOfYear-seasonalPhaseDay)/daysPerYear)
}
