package filestore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"chronorate/domain/circadian"
	"chronorate/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() *circadian.Population {
	pop := &circadian.Population{
		RunID:    core.NewRunID(),
		Subjects: map[core.SubjectID]*circadian.Subject{},
		Metadata: circadian.Metadata{
			TotalSubjects:  12,
			DaysPerSubject: 1,
			Seed:           7,
			GeneratedAt:    time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC),
		},
	}
	// Twelve subjects so lexical and numeric id order would differ if indexes were ignored.
	for i := 0; i < 12; i++ {
		values := make([]float64, 24)
		for h := range values {
			values[h] = 0.2 + float64((h+i)%24)/40
		}
		id := core.SubjectIDFor(i)
		subj := &circadian.Subject{
			ID:     id,
			Index:  i,
			Class:  circadian.GenerationOrder[i%3],
			Params: circadian.OscillatorParameters{Mu: 1.2, Tau: 24.1, NoiseLevel: 0.08},
			Base:   circadian.NewActivitySignal(values),
			Derived: map[string]circadian.ActivitySignal{
				circadian.VariantStress:       circadian.NewActivitySignal(values),
				circadian.VariantTravelJetlag: circadian.NewActivitySignal(values),
			},
			Events: []circadian.Event{
				{Kind: circadian.EventStress, Day: 0},
				{Kind: circadian.EventTravel, Day: 0, TimezoneShift: 8, RecoveryDays: 3},
			},
		}
		pop.Order = append(pop.Order, id)
		pop.Subjects[id] = subj
	}
	return pop
}

func TestPopulationRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "synthetic"))
	pop := fixture()

	path, err := store.WritePopulation(pop)
	require.NoError(t, err)
	assert.Equal(t, PopulationFile, filepath.Base(path))

	loaded, err := store.ReadPopulation()
	require.NoError(t, err)

	assert.Equal(t, pop.RunID, loaded.RunID)
	assert.Equal(t, pop.Order, loaded.Order)
	assert.Equal(t, pop.Fingerprint(), loaded.Fingerprint())
	assert.True(t, pop.Metadata.GeneratedAt.Equal(loaded.Metadata.GeneratedAt))

	subj := loaded.Subjects[core.SubjectIDFor(4)]
	assert.Equal(t, circadian.Late, subj.Class)
	assert.Equal(t, pop.Subjects[subj.ID].Events, subj.Events)
	assert.Len(t, subj.Derived, 2)
	_, hasSeasonal := subj.Derived[circadian.VariantSeasonal]
	assert.False(t, hasSeasonal)
}

func TestPopulationFileLayout(t *testing.T) {
	store := NewStore(t.TempDir())
	path, err := store.WritePopulation(fixture())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc struct {
		Users map[string]map[string]interface{} `json:"users"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	user := doc.Users["user_0001"]
	assert.Equal(t, "late", user["chronotype"])
	assert.Contains(t, user, "activity_level")
	assert.Contains(t, user, "activity_level_with_jetlag")
	assert.NotContains(t, user, "activity_level_with_seasonal")
	assert.Equal(t, []interface{}{0.0}, user["stress_events"])
	trips := user["travel_events"].([]interface{})
	require.Len(t, trips, 1)
	assert.Equal(t, 8.0, trips[0].(map[string]interface{})["timezone_shift"])
}

func TestReadMissingPopulation(t *testing.T) {
	_, err := NewStore(t.TempDir()).ReadPopulation()
	require.Error(t, err)
	assert.True(t, core.IsNotFoundError(err))
}

func TestWriteJSON(t *testing.T) {
	store := NewStore(t.TempDir())
	path, err := store.WriteJSON(SummaryFile, map[string]int{"total_users": 3})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_users": 3}`, string(data))
}
