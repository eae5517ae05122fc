package perturbation

import (
	"math"
	"math/rand"

	"chronorate/domain/circadian"
)

// DefaultTrips is the number of trips requested per subject.
const DefaultTrips = 2

// TimezoneShifts are the candidate hour offsets of a trip.
var TimezoneShifts = []int{-8, -6, -3, 3, 6, 8}

const (
	// tripMarginDays keeps trips away from both ends of the record.
	tripMarginDays  = 7
	minRecoveryDays = 3
	maxRecoveryDays = 7
	// maxShiftHours normalizes the shift strength.
	maxShiftHours = 8.0
)

// TravelJetlag injects trips whose disruption fades linearly over a recovery window.
// Overlapping trips compound in selection order.
type TravelJetlag struct {
	Trips int
}

func (TravelJetlag) Name() string { return circadian.VariantTravelJetlag }

func (t TravelJetlag) Apply(subject *circadian.Subject, rng *rand.Rand) (circadian.ActivitySignal, []circadian.Event) {
	out := subject.Base.Clone()
	totalDays := out.Len() / circadian.HoursPerDay

	if t.Trips <= 0 || totalDays <= tripMarginDays {
		return out, nil
	}

	candidates := totalDays - 2*tripMarginDays
	if candidates <= 0 {
		return out, nil
	}
	count := t.Trips
	if limit := totalDays / 10; limit < count {
		count = limit
	}
	if candidates < count {
		count = candidates
	}
	if count <= 0 {
		return out, nil
	}

	picks := rng.Perm(candidates)[:count]
	events := make([]circadian.Event, 0, count)
	for _, p := range picks {
		startDay := tripMarginDays + p
		shift := TimezoneShifts[rng.Intn(len(TimezoneShifts))]
		recovery := minRecoveryDays + rng.Intn(maxRecoveryDays-minRecoveryDays+1)

		events = append(events, circadian.Event{
			Kind:          circadian.EventTravel,
			Day:           startDay,
			TimezoneShift: shift,
			RecoveryDays:  recovery,
		})

		for d := 0; d < recovery; d++ {
			day := startDay + d
			if day >= totalDays {
				break
			}
			strength := ShiftStrength(shift, d, recovery)
			disruptDay(out.Values, day, 1-0.3*strength, 0.2*strength, rng)
		}
	}

	out.ClampAll()
	return out, events
}

// ShiftStrength is |shift|·(1 − d/recovery)/8 for day d of the recovery window.
func ShiftStrength(timezoneShift, dayIntoRecovery, recoveryDays int) float64 {
	recoveryFactor := float64(dayIntoRecovery) / float64(recoveryDays)
	return math.Abs(float64(timezoneShift)) * (1 - recoveryFactor) / maxShiftHours
}
