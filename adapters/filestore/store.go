// Package filestore exports generated corpora as JSON files for the training stage.
package filestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"chronorate/domain/circadian"
	"chronorate/domain/core"
)

// File names written into the output directory.
const (
	PopulationFile = "population_data_enhanced.json"
	FeaturesFile   = "ml_features_enhanced.json"
	SummaryFile    = "data_summary.json"
)

// Store reads and writes corpus artifacts under BaseDir.
type Store struct {
	BaseDir string
}

// NewStore creates a store rooted at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{BaseDir: baseDir}
}

// EnsureBaseDir creates the base directory if it doesn't exist
func (s *Store) EnsureBaseDir() error {
	return os.MkdirAll(s.BaseDir, 0755)
}

type travelRecord struct {
	Day           int `json:"day"`
	TimezoneShift int `json:"timezone_shift"`
	RecoveryDays  int `json:"recovery_days"`
}

type subjectRecord struct {
	Chronotype       string                         `json:"chronotype"`
	UserID           core.SubjectID                 `json:"user_id"`
	Index            int                            `json:"index"`
	Parameters       circadian.OscillatorParameters `json:"parameters"`
	TimeHours        []int                          `json:"time_hours"`
	ActivityLevel    []float64                      `json:"activity_level"`
	WithSocialJetlag []float64                      `json:"activity_level_with_social_jetlag,omitempty"`
	WithStress       []float64                      `json:"activity_level_with_stress,omitempty"`
	WithSeasonal     []float64                      `json:"activity_level_with_seasonal,omitempty"`
	WithJetlag       []float64                      `json:"activity_level_with_jetlag,omitempty"`
	StressEvents     []int                          `json:"stress_events"`
	TravelEvents     []travelRecord                 `json:"travel_events"`
}

type populationDocument struct {
	RunID    core.RunID                       `json:"run_id"`
	Metadata circadian.Metadata               `json:"metadata"`
	Users    map[core.SubjectID]subjectRecord `json:"users"`
}

// derivedFields pairs each variant with its record field.
func (r *subjectRecord) derivedFields() map[string]*[]float64 {
	return map[string]*[]float64{
		circadian.VariantSocialJetlag: &r.WithSocialJetlag,
		circadian.VariantStress:       &r.WithStress,
		circadian.VariantSeasonal:     &r.WithSeasonal,
		circadian.VariantTravelJetlag: &r.WithJetlag,
	}
}

// WritePopulation writes every subject record and the population metadata.
func (s *Store) WritePopulation(pop *circadian.Population) (string, error) {
	doc := populationDocument{
		RunID:    pop.RunID,
		Metadata: pop.Metadata,
		Users:    make(map[core.SubjectID]subjectRecord, len(pop.Subjects)),
	}
	for _, subj := range pop.Ordered() {
		doc.Users[subj.ID] = toRecord(subj)
	}
	return s.writeJSON(PopulationFile, doc)
}

// ReadPopulation loads the population written by WritePopulation.
func (s *Store) ReadPopulation() (*circadian.Population, error) {
	var doc populationDocument
	if err := s.readJSON(PopulationFile, &doc); err != nil {
		return nil, err
	}

	pop := &circadian.Population{
		RunID:    doc.RunID,
		Metadata: doc.Metadata,
		Subjects: make(map[core.SubjectID]*circadian.Subject, len(doc.Users)),
		Order:    make([]core.SubjectID, 0, len(doc.Users)),
	}
	for id, rec := range doc.Users {
		subj, err := fromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("subject %s: %w", id, err)
		}
		pop.Subjects[id] = subj
		pop.Order = append(pop.Order, id)
	}
	sort.Slice(pop.Order, func(i, j int) bool {
		return pop.Subjects[pop.Order[i]].Index < pop.Subjects[pop.Order[j]].Index
	})
	return pop, nil
}

// WriteJSON writes any artifact, typically a summary or training set.
func (s *Store) WriteJSON(name string, v interface{}) (string, error) {
	return s.writeJSON(name, v)
}

func (s *Store) writeJSON(name string, v interface{}) (string, error) {
	if err := s.EnsureBaseDir(); err != nil {
		return "", fmt.Errorf("failed to create base directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	path := filepath.Join(s.BaseDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return path, nil
}

func (s *Store) readJSON(name string, v interface{}) error {
	data, err := os.ReadFile(filepath.Join(s.BaseDir, name))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", core.ErrPopulationNotFound, filepath.Join(s.BaseDir, name))
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

func toRecord(subj *circadian.Subject) subjectRecord {
	rec := subjectRecord{
		Chronotype:    subj.Class.String(),
		UserID:        subj.ID,
		Index:         subj.Index,
		Parameters:    subj.Params,
		TimeHours:     subj.Base.Hours,
		ActivityLevel: subj.Base.Values,
		StressEvents:  []int{},
		TravelEvents:  []travelRecord{},
	}
	for variant, field := range rec.derivedFields() {
		if sig, ok := subj.Derived[variant]; ok {
			*field = sig.Values
		}
	}
	for _, e := range subj.Events {
		switch e.Kind {
		case circadian.EventStress:
			rec.StressEvents = append(rec.StressEvents, e.Day)
		case circadian.EventTravel:
			rec.TravelEvents = append(rec.TravelEvents, travelRecord{
				Day:           e.Day,
				TimezoneShift: e.TimezoneShift,
				RecoveryDays:  e.RecoveryDays,
			})
		}
	}
	return rec
}

func fromRecord(rec subjectRecord) (*circadian.Subject, error) {
	class, err := circadian.ParseChronotype(rec.Chronotype)
	if err != nil {
		return nil, err
	}
	if len(rec.TimeHours) != len(rec.ActivityLevel) {
		return nil, fmt.Errorf("%w: %d hours for %d samples", core.ErrDataShape, len(rec.TimeHours), len(rec.ActivityLevel))
	}

	subj := &circadian.Subject{
		ID:      rec.UserID,
		Index:   rec.Index,
		Class:   class,
		Params:  rec.Parameters,
		Base:    circadian.ActivitySignal{Hours: rec.TimeHours, Values: rec.ActivityLevel},
		Derived: map[string]circadian.ActivitySignal{},
	}
	for variant, field := range rec.derivedFields() {
		if *field == nil {
			continue
		}
		hours := make([]int, len(rec.TimeHours))
		copy(hours, rec.TimeHours)
		subj.Derived[variant] = circadian.ActivitySignal{Hours: hours, Values: *field}
	}
	for _, day := range rec.StressEvents {
		subj.Events = append(subj.Events, circadian.Event{Kind: circadian.EventStress, Day: day})
	}
	for _, t := range rec.TravelEvents {
		subj.Events = append(subj.Events, circadian.Event{
			Kind:          circadian.EventTravel,
			Day:           t.Day,
			TimezoneShift: t.TimezoneShift,
			RecoveryDays:  t.RecoveryDays,
		})
	}
	return subj, nil
}
