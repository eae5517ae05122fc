package rng

import (
	"context"
	"math/rand"

	"chronorate/ports"
)

// SeededAdapter derives independent deterministic streams from a base seed.
type SeededAdapter struct{}

// NewSeededAdapter returns the default RNGPort implementation.
func NewSeededAdapter() ports.RNGPort {
	return &SeededAdapter{}
}

// Stream creates the stream for one subject in one stage. The stage hash occupies
// the high word and the subject hash the low word, so distinct (stage, subject)
// pairs do not alias under the same base seed.
func (r *SeededAdapter) Stream(ctx context.Context, stage, subjectKey string, baseSeed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewSource(mix(baseSeed, hashString(stage), hashString(subjectKey)))), nil
}

func mix(seed int64, high, low uint32) int64 {
	return seed ^ int64(uint64(high)<<32|uint64(low))
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2 algorithm
	}
	return hash
}
