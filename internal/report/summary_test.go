package report

import (
	"testing"

	"chronorate/domain/circadian"
	"chronorate/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func population() *circadian.Population {
	pop := &circadian.Population{
		RunID:    core.RunID("run-1"),
		Subjects: map[core.SubjectID]*circadian.Subject{},
		Metadata: circadian.Metadata{DaysPerSubject: 2, Seed: 9},
	}
	specs := []struct {
		class circadian.ChronotypeClass
		mu    float64
		peak  int
	}{
		{circadian.Early, 1.0, 7},
		{circadian.Early, 2.0, 9},
		{circadian.Late, 1.5, 20},
	}
	for i, sp := range specs {
		values := make([]float64, 48)
		for h := range values {
			values[h] = 0.2
		}
		values[sp.peak] = 0.9
		values[24+sp.peak] = 0.9

		id := core.SubjectIDFor(i)
		subj := &circadian.Subject{
			ID:      id,
			Index:   i,
			Class:   sp.class,
			Params:  circadian.OscillatorParameters{Mu: sp.mu, Tau: 24, NoiseLevel: 0.1},
			Base:    circadian.NewActivitySignal(values),
			Derived: map[string]circadian.ActivitySignal{circadian.VariantStress: circadian.NewActivitySignal(values)},
			Events: []circadian.Event{
				{Kind: circadian.EventStress, Day: 1},
			},
		}
		pop.Order = append(pop.Order, id)
		pop.Subjects[id] = subj
	}
	return pop
}

func TestSummarize(t *testing.T) {
	s := Summarize(population())

	assert.Equal(t, 3, s.TotalUsers)
	assert.Equal(t, map[string]int{"early": 2, "late": 1}, s.ChronotypeDistribution)
	assert.Equal(t, 3, s.StressEvents)
	assert.Equal(t, 0, s.TravelEvents)

	require.Len(t, s.Classes, 3)
	early := s.Classes[0]
	assert.Equal(t, "early", early.Class)
	assert.Equal(t, 2, early.Count)
	assert.InDelta(t, 1.5, early.Mu.Mean, 1e-12)
	assert.InDelta(t, 0.5, early.Mu.Std, 1e-12)
	assert.InDelta(t, 8.0, early.PeakHour.Mean, 1e-12)
	// sample sd 0.7071, t(0.975, 1) = 12.7062
	assert.InDelta(t, 1.5-6.3531, early.Mu.CI95Low, 1e-3)
	assert.InDelta(t, 1.5+6.3531, early.Mu.CI95High, 1e-3)

	intermediate := s.Classes[1]
	assert.Equal(t, 0, intermediate.Count)
	assert.Equal(t, Distribution{}, intermediate.Mu)

	assert.InDelta(t, 20.0, s.Classes[2].PeakHour.Mean, 1e-12)
	assert.Equal(t, 1.5, s.Classes[2].Mu.CI95Low)
	assert.Equal(t, 1.5, s.Classes[2].Mu.CI95High)

	assert.Equal(t, []string{circadian.VariantBase, circadian.VariantStress}, s.Variants())
	assert.InDelta(t, (0.2*23+0.9)/24, s.MeanActivity[circadian.VariantBase].Mean, 1e-12)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(&circadian.Population{})
	assert.Equal(t, 0, s.TotalUsers)
	assert.Len(t, s.Classes, 3)
	assert.Empty(t, s.MeanActivity)
}

func TestRender(t *testing.T) {
	s := Summarize(population())

	md := s.Markdown()
	assert.Contains(t, md, "# Population run-1")
	assert.Contains(t, md, "| early | 2 |")
	assert.Contains(t, md, "| stress |")

	html := s.HTML()
	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "<td>early</td>")
}
