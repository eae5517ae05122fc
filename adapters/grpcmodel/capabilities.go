package grpcmodel

import (
	"context"
	"fmt"

	"chronorate/domain/core"
	"chronorate/internal"
	"chronorate/internal/inference"
	"chronorate/ports"
)

// Encoder is the remote autoencoder.
type Encoder struct {
	client *Client
	loaded bool
}

func (e *Encoder) Encode(ctx context.Context, batch [][]float64) ([][]float64, error) {
	out, err := e.client.Batch(ctx, MethodEncode, batch)
	if err != nil {
		return nil, err
	}
	if len(out) != len(batch) {
		return nil, fmt.Errorf("%w: %d rows for %d inputs", core.ErrEncoderOutput, len(out), len(batch))
	}
	return out, nil
}

func (e *Encoder) IsLoaded() bool {
	return e.loaded
}

// Classifier is the remote chronotype classifier.
type Classifier struct {
	client *Client
}

func (c *Classifier) Predict(ctx context.Context, batch [][]float64) ([][]float64, error) {
	return c.client.Batch(ctx, MethodPredict, batch)
}

// Scaler is the remote standardizer fitted alongside the classifier.
type Scaler struct {
	client *Client
}

func (s *Scaler) Transform(ctx context.Context, batch [][]float64) ([][]float64, error) {
	return s.client.Batch(ctx, MethodTransform, batch)
}

var (
	_ ports.Encoder    = (*Encoder)(nil)
	_ ports.Classifier = (*Classifier)(nil)
	_ ports.Scaler     = (*Scaler)(nil)
)

// LoadBundle asks the service once which models it holds and returns a bundle with
// only those capabilities. An unreachable service yields an empty bundle and the
// error, so callers can keep serving degraded results.
func LoadBundle(ctx context.Context, client *Client, logger *internal.Logger) (*inference.ModelBundle, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}

	loaded, err := client.Status(ctx)
	if err != nil {
		logger.Warn("model service status failed: %v", err)
		return inference.EmptyBundle(), err
	}

	var (
		encoder    ports.Encoder
		classifier ports.Classifier
		scaler     ports.Scaler
	)
	if loaded[CapabilityEncoder] {
		encoder = &Encoder{client: client, loaded: true}
	}
	if loaded[CapabilityClassifier] {
		classifier = &Classifier{client: client}
	}
	if loaded[CapabilityScaler] {
		scaler = &Scaler{client: client}
	}

	bundle := inference.NewModelBundle(encoder, classifier, scaler)
	logger.Info("model service capabilities: encoder=%t classifier=%t scaler=%t",
		loaded[CapabilityEncoder], loaded[CapabilityClassifier], loaded[CapabilityScaler])
	return bundle, nil
}
