package perturbation

import (
	"math/rand"

	"chronorate/domain/circadian"
)

// Stack applies a fixed sequence of transforms to a subject.
type Stack struct {
	transforms []Transform
}

// NewStack returns the standard stack: social jetlag, stress, seasonal, travel.
func NewStack(trips int) *Stack {
	return NewCustomStack(
		SocialJetlag{},
		StressInjection{},
		SeasonalModulation{},
		TravelJetlag{Trips: trips},
	)
}

// NewCustomStack applies the given transforms in order.
func NewCustomStack(transforms ...Transform) *Stack {
	return &Stack{transforms: transforms}
}

// Names lists the derived signal names produced by the stack.
func (s *Stack) Names() []string {
	names := make([]string, len(s.transforms))
	for i, t := range s.transforms {
		names[i] = t.Name()
	}
	return names
}

// Apply returns a copy of subject with every derived signal attached and the
// transforms' events appended to its log. The input subject is not modified.
func (s *Stack) Apply(subject *circadian.Subject, rng *rand.Rand) *circadian.Subject {
	out := *subject
	out.Derived = make(map[string]circadian.ActivitySignal, len(subject.Derived)+len(s.transforms))
	for name, sig := range subject.Derived {
		out.Derived[name] = sig
	}
	out.Events = append([]circadian.Event(nil), subject.Events...)

	for _, t := range s.transforms {
		sig, events := t.Apply(subject, rng)
		out.Derived[t.Name()] = sig
		out.Events = append(out.Events, events...)
	}
	return &out
}
