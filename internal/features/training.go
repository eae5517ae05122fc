package features

import (
	"fmt"

	"chronorate/domain/circadian"
	"chronorate/domain/core"
)

// SubjectSummary is the per-row metadata carried alongside a training matrix.
type SubjectSummary struct {
	SubjectID    core.SubjectID            `json:"user_id"`
	Class        circadian.ChronotypeClass `json:"chronotype"`
	Mu           float64                   `json:"mu"`
	Tau          float64                   `json:"tau"`
	NoiseLevel   float64                   `json:"noise_level"`
	StressEvents int                       `json:"n_stress_events"`
	TravelEvents int                       `json:"n_travel_events"`
}

// TrainingSet is a feature matrix over one signal variant of a population.
type TrainingSet struct {
	Variant           string                            `json:"variant"`
	Rows              []circadian.FeatureVector         `json:"features"`
	Labels            []circadian.ChronotypeClass       `json:"labels"`
	Subjects          []SubjectSummary                  `json:"subjects"`
	ClassDistribution map[circadian.ChronotypeClass]int `json:"class_distribution"`
}

// Len returns the number of rows.
func (t *TrainingSet) Len() int {
	return len(t.Rows)
}

// Matrix flattens the rows into [][]float64 for model fitting.
func (t *TrainingSet) Matrix() [][]float64 {
	out := make([][]float64, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row.Slice()
	}
	return out
}

// BuildTrainingSet extracts one row per subject, in generation order, from the
// named variant. Every subject must carry the variant.
func BuildTrainingSet(pop *circadian.Population, variant string) (*TrainingSet, error) {
	if variant == "" {
		variant = circadian.VariantBase
	}

	subjects := pop.Ordered()
	set := &TrainingSet{
		Variant:           variant,
		Rows:              make([]circadian.FeatureVector, 0, len(subjects)),
		Labels:            make([]circadian.ChronotypeClass, 0, len(subjects)),
		Subjects:          make([]SubjectSummary, 0, len(subjects)),
		ClassDistribution: make(map[circadian.ChronotypeClass]int, circadian.NumClasses),
	}

	for _, s := range subjects {
		sig, ok := s.Signal(variant)
		if !ok {
			return nil, fmt.Errorf("subject %s has no %q signal: %w", s.ID, variant, core.ErrDataShape)
		}
		set.Rows = append(set.Rows, Extract(sig.Values))
		set.Labels = append(set.Labels, s.Class)
		set.ClassDistribution[s.Class]++
		set.Subjects = append(set.Subjects, SubjectSummary{
			SubjectID:    s.ID,
			Class:        s.Class,
			Mu:           s.Params.Mu,
			Tau:          s.Params.Tau,
			NoiseLevel:   s.Params.NoiseLevel,
			StressEvents: len(s.EventsOf(circadian.EventStress)),
			TravelEvents: len(s.EventsOf(circadian.EventTravel)),
		})
	}
	return set, nil
}
