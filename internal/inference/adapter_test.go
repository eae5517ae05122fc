package inference

import (
	"context"
	"errors"
	"math"
	"testing"

	"chronorate/domain/circadian"
	"chronorate/domain/core"
	"chronorate/internal"
	"chronorate/internal/features"
	"chronorate/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEncoder struct {
	mock.Mock
}

func (m *MockEncoder) Encode(ctx context.Context, batch [][]float64) ([][]float64, error) {
	args := m.Called(ctx, batch)
	out, _ := args.Get(0).([][]float64)
	return out, args.Error(1)
}

func (m *MockEncoder) IsLoaded() bool {
	return m.Called().Bool(0)
}

type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Predict(ctx context.Context, batch [][]float64) ([][]float64, error) {
	args := m.Called(ctx, batch)
	out, _ := args.Get(0).([][]float64)
	return out, args.Error(1)
}

type MockScaler struct {
	mock.Mock
}

func (m *MockScaler) Transform(ctx context.Context, batch [][]float64) ([][]float64, error) {
	args := m.Called(ctx, batch)
	out, _ := args.Get(0).([][]float64)
	return out, args.Error(1)
}

// passthroughScaler returns its input unchanged.
type passthroughScaler struct{}

func (passthroughScaler) Transform(_ context.Context, batch [][]float64) ([][]float64, error) {
	return batch, nil
}

func pattern(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = 0.1 + 0.8*float64(i%24)/23
	}
	return values
}

func TestInferWithoutModels(t *testing.T) {
	tests := []struct {
		name   string
		bundle *ModelBundle
	}{
		{"nil bundle", nil},
		{"empty bundle", EmptyBundle()},
		{"scaler only", NewModelBundle(nil, nil, &MockScaler{})},
		{"classifier only", NewModelBundle(nil, &MockClassifier{}, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := NewAdapter(tt.bundle, internal.NewDiscardLogger())
			result := adapter.Infer(context.Background(), pattern(720))

			assert.False(t, result.Success)
			assert.Equal(t, circadian.Intermediate, result.Label)
			assert.Equal(t, "Intermediate", result.LabelName)
			assert.True(t, core.IsModelUnavailable(result.Err))
			assert.Contains(t, result.ErrorMessage(), "not loaded")
		})
	}
}

func TestInferEmptyPattern(t *testing.T) {
	classifier := &MockClassifier{}
	adapter := NewAdapter(NewModelBundle(nil, classifier, passthroughScaler{}), internal.NewDiscardLogger())

	result := adapter.Infer(context.Background(), nil)

	assert.False(t, result.Success)
	assert.Equal(t, circadian.Intermediate, result.Label)
	assert.True(t, core.IsDataShapeError(result.Err))
	classifier.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
}

func TestInferWithEncoder(t *testing.T) {
	raw := pattern(100)

	encoder := &MockEncoder{}
	encoder.On("IsLoaded").Return(true)
	encoder.On("Encode", mock.Anything, mock.MatchedBy(func(batch [][]float64) bool {
		return len(batch) == 1 && len(batch[0]) == InputWidth
	})).Return([][]float64{{1, 2, 3, 4}}, nil).Once()

	classifier := &MockClassifier{}
	classifier.On("Predict", mock.Anything, mock.MatchedBy(func(batch [][]float64) bool {
		return len(batch) == 1 && len(batch[0]) == 4+circadian.FeatureDim
	})).Return([][]float64{{0.1, 0.2, 0.7}}, nil).Once()

	adapter := NewAdapter(NewModelBundle(encoder, classifier, passthroughScaler{}), internal.NewDiscardLogger())
	result := adapter.Infer(context.Background(), raw)

	require.True(t, result.Success, result.ErrorMessage())
	assert.False(t, result.Degraded)
	assert.Equal(t, circadian.Late, result.Label)
	assert.Equal(t, "Late", result.LabelName)
	assert.Equal(t, 0.7, result.Confidence)
	encoder.AssertExpectations(t)
	classifier.AssertExpectations(t)
}

func TestInferConcatenatesEncodingAndFeatures(t *testing.T) {
	raw := pattern(48)

	encoder := &MockEncoder{}
	encoder.On("IsLoaded").Return(true)
	encoder.On("Encode", mock.Anything, mock.Anything).Return([][]float64{{9, 8}}, nil)

	var seen []float64
	scaler := &MockScaler{}
	scaler.On("Transform", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		seen = args.Get(1).([][]float64)[0]
	}).Return([][]float64{make([]float64, 2+circadian.FeatureDim)}, nil)

	classifier := &MockClassifier{}
	classifier.On("Predict", mock.Anything, mock.Anything).Return([][]float64{{0.6, 0.3, 0.1}}, nil)

	adapter := NewAdapter(NewModelBundle(encoder, classifier, scaler), internal.NewDiscardLogger())
	result := adapter.Infer(context.Background(), raw)

	require.True(t, result.Success)
	assert.Equal(t, circadian.Early, result.Label)
	require.Len(t, seen, 2+circadian.FeatureDim)
	assert.Equal(t, []float64{9, 8}, seen[:2])
	assert.Equal(t, features.Extract(raw).Slice(), seen[2:])
}

func TestInferFallsBackWithoutEncoder(t *testing.T) {
	raw := pattern(720)

	classifier := &MockClassifier{}
	classifier.On("Predict", mock.Anything, mock.MatchedBy(func(batch [][]float64) bool {
		return len(batch[0]) == FallbackWidth+circadian.FeatureDim &&
			batch[0][0] == raw[0] && batch[0][FallbackWidth-1] == raw[FallbackWidth-1]
	})).Return([][]float64{{0.2, 0.5, 0.3}}, nil)

	unloaded := &MockEncoder{}
	unloaded.On("IsLoaded").Return(false)

	for name, encoder := range map[string]*MockEncoder{"missing": nil, "not loaded": unloaded} {
		t.Run(name, func(t *testing.T) {
			var bundle *ModelBundle
			if encoder == nil {
				bundle = NewModelBundle(nil, classifier, passthroughScaler{})
			} else {
				bundle = NewModelBundle(encoder, classifier, passthroughScaler{})
			}
			result := NewAdapter(bundle, internal.NewDiscardLogger()).Infer(context.Background(), raw)

			require.True(t, result.Success)
			assert.True(t, result.Degraded)
			assert.Equal(t, circadian.Intermediate, result.Label)
			assert.Equal(t, 0.5, result.Confidence)
		})
	}
	unloaded.AssertNotCalled(t, "Encode", mock.Anything, mock.Anything)
}

func TestInferFallsBackWhenEncoderFails(t *testing.T) {
	encoder := &MockEncoder{}
	encoder.On("IsLoaded").Return(true)
	encoder.On("Encode", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	classifier := &MockClassifier{}
	classifier.On("Predict", mock.Anything, mock.Anything).Return([][]float64{{0.2, 0.3, 0.5}}, nil)

	adapter := NewAdapter(NewModelBundle(encoder, classifier, passthroughScaler{}), internal.NewDiscardLogger())
	result := adapter.Infer(context.Background(), pattern(10))

	require.True(t, result.Success)
	assert.True(t, result.Degraded)
	assert.Equal(t, circadian.Late, result.Label)
}

func TestInferModelFailures(t *testing.T) {
	tests := []struct {
		name     string
		scaled   [][]float64
		scaleErr error
		probs    [][]float64
		predict  error
		checkErr func(error) bool
	}{
		{
			name:     "scaler error",
			scaleErr: errors.New("scaler offline"),
			checkErr: func(err error) bool { return err != nil },
		},
		{
			name:     "scaler drops rows",
			scaled:   [][]float64{},
			checkErr: func(err error) bool { return errors.Is(err, core.ErrScalerOutput) },
		},
		{
			name:     "classifier error",
			scaled:   nil,
			predict:  errors.New("predict failed"),
			checkErr: func(err error) bool { return err != nil },
		},
		{
			name:     "wrong class count",
			probs:    [][]float64{{0.5, 0.5}},
			checkErr: core.IsModelOutputError,
		},
		{
			name:     "nan probability",
			probs:    [][]float64{{math.NaN(), 0.5, 0.5}},
			checkErr: core.IsModelOutputError,
		},
		{
			name:     "empty batch",
			probs:    [][]float64{},
			checkErr: core.IsModelOutputError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var scaler ports.Scaler = passthroughScaler{}
			if tt.scaled != nil || tt.scaleErr != nil {
				m := &MockScaler{}
				m.On("Transform", mock.Anything, mock.Anything).Return(tt.scaled, tt.scaleErr)
				scaler = m
			}
			classifier := &MockClassifier{}
			classifier.On("Predict", mock.Anything, mock.Anything).Return(tt.probs, tt.predict).Maybe()

			adapter := NewAdapter(NewModelBundle(nil, classifier, scaler), internal.NewDiscardLogger())
			result := adapter.Infer(context.Background(), pattern(24))

			assert.False(t, result.Success)
			assert.Equal(t, circadian.Intermediate, result.Label)
			assert.True(t, tt.checkErr(result.Err), "unexpected error %v", result.Err)
		})
	}
}

func TestArgmaxPicksFirstOnTie(t *testing.T) {
	label, confidence, err := argmax([]float64{0.4, 0.4, 0.2})
	require.NoError(t, err)
	assert.Equal(t, circadian.Early, label)
	assert.Equal(t, 0.4, confidence)
}

func TestFitWidth(t *testing.T) {
	padded := FitWidth([]float64{1, 2, 3}, 6)
	assert.Equal(t, []float64{1, 2, 3, 2, 2, 2}, padded)

	truncated := FitWidth(pattern(800), InputWidth)
	assert.Len(t, truncated, InputWidth)
	assert.Equal(t, pattern(800)[:InputWidth], truncated)

	exact := []float64{1, 2}
	out := FitWidth(exact, 2)
	out[0] = 5
	assert.Equal(t, 1.0, exact[0])
}

func TestBundleStatus(t *testing.T) {
	encoder := &MockEncoder{}
	encoder.On("IsLoaded").Return(true)

	bundle := NewModelBundle(encoder, &MockClassifier{}, nil)
	assert.False(t, bundle.Loaded())
	assert.True(t, bundle.EncoderLoaded())
	assert.Equal(t, map[string]bool{"encoder": true, "classifier": true, "scaler": false}, bundle.Status())
}
