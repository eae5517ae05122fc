package perturbation

import (
	"math/rand"

	"chronorate/domain/circadian"
)

// Days of week counted from hour 0, which falls on a Monday.
const (
	friday   = 4
	saturday = 5
	sunday   = 6
)

// weekendStartHour is when Friday starts counting as weekend.
const weekendStartHour = 18

// SocialJetlag emulates later weekend schedules. Within Friday evening, Saturday and
// Sunday each sample is replaced by the value 1 or 2 hours ahead, reading from the
// unshifted sequence; a shift past the end keeps the original value. This is a
// per-sample lookahead, not a phase shift of the whole curve.
type SocialJetlag struct{}

func (SocialJetlag) Name() string { return circadian.VariantSocialJetlag }

func (SocialJetlag) Apply(subject *circadian.Subject, rng *rand.Rand) (circadian.ActivitySignal, []circadian.Event) {
	base := subject.Base
	out := base.Clone()
	n := base.Len()

	for i, hour := range base.Hours {
		if !isWeekend(hour) {
			continue
		}
		shift := int(uniform(rng, 1, 3))
		if i+shift < n {
			out.Values[i] = base.Values[i+shift]
		}
	}

	out.ClampAll()
	return out, nil
}

func isWeekend(hour int) bool {
	day := (hour / circadian.HoursPerDay) % 7
	hourOfDay := hour % circadian.HoursPerDay
	return day == saturday || day == sunday || (day == friday && hourOfDay >= weekendStartHour)
}
