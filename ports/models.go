package ports

import "context"

// Encoder compresses fixed-length activity windows into learned representations.
type Encoder interface {
	// Encode maps each input vector (InputWidth values) to a fixed-width vector.
	Encode(ctx context.Context, batch [][]float64) ([][]float64, error)
	// IsLoaded reports whether a trained encoder is available.
	IsLoaded() bool
}

// Classifier produces a probability distribution over the chronotype classes.
type Classifier interface {
	Predict(ctx context.Context, batch [][]float64) ([][]float64, error)
}

// Scaler applies an externally fitted standardization.
type Scaler interface {
	Transform(ctx context.Context, batch [][]float64) ([][]float64, error)
}
