package circadian

// ActivitySignal is an hourly activity series. Hours and Values always have equal
// length; Hours is strictly increasing and starts at 0 for generated signals.
type ActivitySignal struct {
	Hours  []int     `json:"time_hours"`
	Values []float64 `json:"activity_level"`
}

// NewActivitySignal pairs values with consecutive hour indices starting at 0.
func NewActivitySignal(values []float64) ActivitySignal {
	hours := make([]int, len(values))
	for i := range hours {
		hours[i] = i
	}
	return ActivitySignal{Hours: hours, Values: values}
}

// Len returns the number of hourly samples.
func (s ActivitySignal) Len() int {
	return len(s.Values)
}

// Days returns the number of complete days covered.
func (s ActivitySignal) Days() int {
	return len(s.Values) / HoursPerDay
}

// Clone deep-copies both sequences.
func (s ActivitySignal) Clone() ActivitySignal {
	hours := make([]int, len(s.Hours))
	copy(hours, s.Hours)
	values := make([]float64, len(s.Values))
	copy(values, s.Values)
	return ActivitySignal{Hours: hours, Values: values}
}

// ClampAll enforces the physiological band in place.
func (s ActivitySignal) ClampAll() {
	for i, v := range s.Values {
		s.Values[i] = Clamp(v)
	}
}

// InBand reports whether every sample lies within [MinActivity, MaxActivity].
func (s ActivitySignal) InBand() bool {
	for _, v := range s.Values {
		if v < MinActivity || v > MaxActivity {
			return false
		}
	}
	return true
}

// Clamp limits v to the physiological band.
func Clamp(v float64) float64 {
	if v < MinActivity {
		return MinActivity
	}
	if v > MaxActivity {
		return MaxActivity
	}
	return v
}
