package circadian

import (
	"testing"

	"chronorate/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChronotypeNames(t *testing.T) {
	tests := []struct {
		class ChronotypeClass
		name  string
		label string
	}{
		{Early, "early", "Early"},
		{Intermediate, "intermediate", "Intermediate"},
		{Late, "late", "Late"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.name, tt.class.String())
		assert.Equal(t, tt.label, tt.class.Label())

		parsed, err := ParseChronotype(tt.label)
		require.NoError(t, err)
		assert.Equal(t, tt.class, parsed)
	}

	_, err := ParseChronotype("owl")
	assert.Error(t, err)
	assert.False(t, ChronotypeClass(3).Valid())
	assert.Equal(t, "Unknown", ChronotypeClass(-1).Label())
}

func TestActivitySignal(t *testing.T) {
	sig := NewActivitySignal([]float64{0.0, 0.5, 1.7})
	assert.Equal(t, []int{0, 1, 2}, sig.Hours)
	assert.False(t, sig.InBand())

	clone := sig.Clone()
	clone.ClampAll()
	assert.Equal(t, []float64{MinActivity, 0.5, MaxActivity}, clone.Values)
	assert.True(t, clone.InBand())
	// Clone is deep.
	assert.Equal(t, 0.0, sig.Values[0])
}

func TestPopulationOrderedAndCounts(t *testing.T) {
	pop := &Population{
		Subjects: map[core.SubjectID]*Subject{},
	}
	classes := []ChronotypeClass{Early, Late, Intermediate, Intermediate}
	for i, c := range classes {
		id := core.SubjectIDFor(i)
		pop.Order = append(pop.Order, id)
		pop.Subjects[id] = &Subject{ID: id, Index: i, Class: c, Base: NewActivitySignal([]float64{float64(i)})}
	}

	ordered := pop.Ordered()
	require.Len(t, ordered, 4)
	for i, s := range ordered {
		assert.Equal(t, i, s.Index)
	}

	counts := pop.CountByClass()
	assert.Equal(t, 1, counts[Early])
	assert.Equal(t, 1, counts[Late])
	assert.Equal(t, 2, counts[Intermediate])
	assert.False(t, pop.Fingerprint().IsEmpty())
}

func TestFailedInference(t *testing.T) {
	res := FailedInference(core.ErrModelUnavailable)
	assert.False(t, res.Success)
	assert.Equal(t, Intermediate, res.Label)
	assert.Equal(t, "Intermediate", res.LabelName)
	assert.Equal(t, core.ErrModelUnavailable.Error(), res.ErrorMessage())
}

func TestOscillatorParametersValidate(t *testing.T) {
	assert.NoError(t, OscillatorParameters{Mu: 1, Tau: 24, NoiseLevel: 0.1}.Validate())
	assert.Error(t, OscillatorParameters{Mu: 0, Tau: 24, NoiseLevel: 0.1}.Validate())
	assert.Error(t, OscillatorParameters{Mu: 1, Tau: 27, NoiseLevel: 0.1}.Validate())
	assert.Error(t, OscillatorParameters{Mu: 1, Tau: 24, NoiseLevel: 0.4}.Validate())
}
