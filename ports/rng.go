package ports

import (
	"context"
	"math/rand"
)

// Stage names for per-subject random streams.
const (
	StageOscillator   = "oscillator"
	StagePerturbation = "perturbation"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// Stream creates an independent RNG stream for one subject in one pipeline stage.
	// The stream depends only on (stage, subjectKey, baseSeed), never on scheduling,
	// so results are identical for any degree of parallelism.
	Stream(ctx context.Context, stage, subjectKey string, baseSeed int64) (*rand.Rand, error)
}
