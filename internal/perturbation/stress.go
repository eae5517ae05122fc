package perturbation

import (
	"math/rand"

	"chronorate/domain/circadian"
)

// StressSensitivity is how strongly each chronotype reacts to a stress day.
var StressSensitivity = [circadian.NumClasses]float64{
	circadian.Early:        0.05,
	circadian.Intermediate: 0.10,
	circadian.Late:         0.15,
}

// Share of days selected as stress days.
const (
	minStressShare = 0.05
	maxStressShare = 0.10
)

// StressInjection dampens activity and adds variability on randomly chosen days.
type StressInjection struct{}

func (StressInjection) Name() string { return circadian.VariantStress }

func (StressInjection) Apply(subject *circadian.Subject, rng *rand.Rand) (circadian.ActivitySignal, []circadian.Event) {
	out := subject.Base.Clone()
	sensitivity := classIntensity(StressSensitivity, subject.Class)

	days := out.Len() / circadian.HoursPerDay
	count := int(uniform(rng, minStressShare, maxStressShare) * float64(days))
	selected := rng.Perm(days)[:count]

	events := make([]circadian.Event, 0, count)
	for _, day := range selected {
		disruptDay(out.Values, day, 1-sensitivity, sensitivity*0.5, rng)
		events = append(events, circadian.Event{Kind: circadian.EventStress, Day: day})
	}

	out.ClampAll()
	return out, events
}
