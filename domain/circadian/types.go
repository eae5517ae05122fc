package circadian

import (
	"fmt"
	"math"
	"strings"
	"time"

	"chronorate/domain/core"
)

// Physiological activity band. Every signal produced or transformed by the
// pipeline is clamped into [MinActivity, MaxActivity].
const (
	MinActivity = 0.05
	MaxActivity = 1.0
)

// HoursPerDay is the resampled resolution of every ActivitySignal.
const HoursPerDay = 24

// ChronotypeClass is an individual's intrinsic circadian phase preference.
// The integer values are the classifier labels.
type ChronotypeClass int

const (
	Early ChronotypeClass = iota
	Intermediate
	Late
)

// NumClasses is the size of the classifier's output distribution.
const NumClasses = 3

var chronotypeNames = [NumClasses]string{"early", "intermediate", "late"}
var chronotypeLabels = [NumClasses]string{"Early", "Intermediate", "Late"}

// Valid reports whether c is one of the three declared classes.
func (c ChronotypeClass) Valid() bool {
	return c >= Early && c <= Late
}

// String returns the lower-case name used in persisted records.
func (c ChronotypeClass) String() string {
	if !c.Valid() {
		return fmt.Sprintf("chronotype(%d)", int(c))
	}
	return chronotypeNames[c]
}

// Label returns the display name reported with inference results.
func (c ChronotypeClass) Label() string {
	if !c.Valid() {
		return "Unknown"
	}
	return chronotypeLabels[c]
}

// ParseChronotype accepts either the persisted name or the display label.
func ParseChronotype(s string) (ChronotypeClass, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for i, name := range chronotypeNames {
		if name == needle {
			return ChronotypeClass(i), nil
		}
	}
	return Intermediate, fmt.Errorf("unknown chronotype %q", s)
}

// GenerationOrder is the fixed class order used when assigning subject ids.
var GenerationOrder = []ChronotypeClass{Early, Late, Intermediate}

// OscillatorParameters are sampled once per subject and never mutated.
type OscillatorParameters struct {
	Mu         float64 `json:"mu"`
	Tau        float64 `json:"tau"`
	NoiseLevel float64 `json:"noise_level"`
}

// Omega is the angular frequency 2π/τ in radians per hour.
func (p OscillatorParameters) Omega() float64 {
	return 2 * math.Pi / p.Tau
}

// Validate checks the parameter domain.
func (p OscillatorParameters) Validate() error {
	if p.Mu <= 0 || p.Mu > 3 {
		return fmt.Errorf("mu %.4f outside (0, 3]", p.Mu)
	}
	if p.Tau < 22 || p.Tau > 26 {
		return fmt.Errorf("tau %.4f outside [22, 26]", p.Tau)
	}
	if p.NoiseLevel <= 0 || p.NoiseLevel > 0.3 {
		return fmt.Errorf("noise level %.4f outside (0, 0.3]", p.NoiseLevel)
	}
	return nil
}

// Variant names of derived signals.
const (
	VariantBase         = "base"
	VariantSocialJetlag = "social_jetlag"
	VariantStress       = "stress"
	VariantSeasonal     = "seasonal"
	VariantTravelJetlag = "travel_jetlag"
)

// DerivedVariants lists the perturbation outputs in application order.
var DerivedVariants = []string{VariantSocialJetlag, VariantStress, VariantSeasonal, VariantTravelJetlag}

// EventKind distinguishes entries of a subject's event log.
type EventKind string

const (
	EventStress EventKind = "stress"
	EventTravel EventKind = "travel"
)

// Event is one perturbation event. Stress events only use Day.
type Event struct {
	Kind          EventKind `json:"kind"`
	Day           int       `json:"day"`
	TimezoneShift int       `json:"timezone_shift,omitempty"`
	RecoveryDays  int       `json:"recovery_days,omitempty"`
}

// Subject is one synthetic individual.
type Subject struct {
	ID      core.SubjectID            `json:"id"`
	Index   int                       `json:"index"`
	Class   ChronotypeClass           `json:"chronotype"`
	Params  OscillatorParameters      `json:"parameters"`
	Base    ActivitySignal            `json:"base"`
	Derived map[string]ActivitySignal `json:"derived,omitempty"`
	Events  []Event                   `json:"events,omitempty"`
}

// Signal returns the base signal for VariantBase, otherwise the named derived signal.
func (s *Subject) Signal(variant string) (ActivitySignal, bool) {
	if variant == VariantBase || variant == "" {
		return s.Base, true
	}
	sig, ok := s.Derived[variant]
	return sig, ok
}

// EventsOf filters the event log by kind, preserving order.
func (s *Subject) EventsOf(kind EventKind) []Event {
	var out []Event
	for _, e := range s.Events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// ClassRatios is the requested chronotype mix.
type ClassRatios struct {
	Early        float64 `json:"early"`
	Intermediate float64 `json:"intermediate"`
	Late         float64 `json:"late"`
}

// RatioTolerance is the allowed deviation of a ClassRatios sum from 1.
const RatioTolerance = 1e-9

// Sum adds the three class shares.
func (r ClassRatios) Sum() float64 {
	return r.Early + r.Intermediate + r.Late
}

// DefaultClassRatios is the research-based 25/50/25 split.
func DefaultClassRatios() ClassRatios {
	return ClassRatios{Early: 0.25, Intermediate: 0.5, Late: 0.25}
}

// Metadata describes how a population was generated.
type Metadata struct {
	TotalSubjects  int                     `json:"total_subjects"`
	DaysPerSubject int                     `json:"days_per_subject"`
	Ratios         ClassRatios             `json:"ratios"`
	Counts         map[ChronotypeClass]int `json:"counts"`
	Seed           int64                   `json:"seed"`
	SamplesPerHour int                     `json:"samples_per_hour"`
	Substeps       int                     `json:"substeps"`
	GeneratedAt    time.Time               `json:"generated_at"`
	Perturbed      bool                    `json:"perturbed"`
}

// Population maps subject ids to subjects. Order holds the ids in generation order.
type Population struct {
	RunID    core.RunID                  `json:"run_id"`
	Order    []core.SubjectID            `json:"order"`
	Subjects map[core.SubjectID]*Subject `json:"subjects"`
	Metadata Metadata                    `json:"metadata"`
}

// Ordered returns the subjects in generation order.
func (p *Population) Ordered() []*Subject {
	out := make([]*Subject, 0, len(p.Order))
	for _, id := range p.Order {
		if s, ok := p.Subjects[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// CountByClass tallies the realized class mix.
func (p *Population) CountByClass() map[ChronotypeClass]int {
	counts := make(map[ChronotypeClass]int, NumClasses)
	for _, s := range p.Subjects {
		counts[s.Class]++
	}
	return counts
}

// Fingerprint hashes every base signal in subject order. Two runs with the same
// seed and settings produce the same fingerprint regardless of worker count.
func (p *Population) Fingerprint() core.Hash {
	series := make([][]float64, 0, len(p.Order))
	for _, s := range p.Ordered() {
		series = append(series, s.Base.Values)
	}
	return core.HashFloats(series...)
}

// InferenceResult is produced fresh per request and never persisted.
type InferenceResult struct {
	Label      ChronotypeClass `json:"chronotype"`
	LabelName  string          `json:"chronotype_name"`
	Confidence float64         `json:"confidence"`
	Success    bool            `json:"success"`
	// Degraded is set when the encoder was unavailable and raw values stood in
	// for the learned representation.
	Degraded bool  `json:"degraded"`
	Err      error `json:"-"`
}

// ErrorMessage is the failure text, empty on success.
func (r InferenceResult) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// FailedInference is the safe default handed to callers when models are unusable.
func FailedInference(err error) InferenceResult {
	return InferenceResult{
		Label:     Intermediate,
		LabelName: Intermediate.Label(),
		Success:   false,
		Err:       err,
	}
}
