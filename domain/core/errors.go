package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Generation errors
	ErrGeneration    = errors.New("population generation failed")
	ErrInvalidRatios = fmt.Errorf("%w: invalid class ratios", ErrGeneration)

	// Signal errors
	ErrDataShape = errors.New("signal has no samples")

	// Model errors
	ErrModelUnavailable = errors.New("required model capability not loaded")
	ErrClassifierOutput = errors.New("classifier returned malformed probabilities")
	ErrEncoderOutput    = errors.New("encoder returned malformed representation")
	ErrScalerOutput     = errors.New("scaler returned malformed features")

	// Persistence errors
	ErrNotFound           = errors.New("resource not found")
	ErrPopulationNotFound = fmt.Errorf("%w: population", ErrNotFound)
	ErrConflict           = errors.New("resource already exists")
	ErrPopulationExists   = fmt.Errorf("%w: population", ErrConflict)

	// Rate errors
	ErrRateOverflow = errors.New("adjusted rate overflows int64")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// Error checking helpers
func IsGenerationError(err error) bool {
	return errors.Is(err, ErrGeneration)
}

func IsDataShapeError(err error) bool {
	return errors.Is(err, ErrDataShape)
}

func IsModelUnavailable(err error) bool {
	return errors.Is(err, ErrModelUnavailable)
}

func IsModelOutputError(err error) bool {
	return errors.Is(err, ErrClassifierOutput) ||
		errors.Is(err, ErrEncoderOutput) ||
		errors.Is(err, ErrScalerOutput)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflictError(err error) bool {
	return errors.Is(err, ErrConflict)
}
