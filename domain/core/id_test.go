package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

func TestSubjectIDFor(t *testing.T) {
	assert.Equal(t, SubjectID("user_0000"), SubjectIDFor(0))
	assert.Equal(t, SubjectID("user_0042"), SubjectIDFor(42))
	assert.Equal(t, SubjectID("user_12345"), SubjectIDFor(12345))
}

func TestParseRunID(t *testing.T) {
	run := NewRunID()
	parsed, err := ParseRunID(run.String())
	require.NoError(t, err)
	assert.Equal(t, run, parsed)

	_, err = ParseRunID("   ")
	assert.Error(t, err)

	_, err = ParseRunID("not-a-uuid")
	assert.Error(t, err)
}

func TestHashFloats(t *testing.T) {
	a := []float64{0.1, 0.2, 0.3}
	b := []float64{0.1, 0.2, 0.3}
	assert.Equal(t, HashFloats(a), HashFloats(b))
	assert.NotEqual(t, HashFloats(a), HashFloats([]float64{0.1, 0.2, 0.30000000000000004}))

	// Series boundaries are part of the hash.
	assert.NotEqual(t, HashFloats([]float64{1, 2}, []float64{3}), HashFloats([]float64{1}, []float64{2, 3}))
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsGenerationError(ErrInvalidRatios))
	assert.True(t, IsNotFoundError(ErrPopulationNotFound))
	assert.True(t, IsModelOutputError(ErrClassifierOutput))
	assert.False(t, IsModelUnavailable(ErrDataShape))
}
