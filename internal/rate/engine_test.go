package rate

import (
	"math"
	"testing"

	"chronorate/domain/circadian"
	"chronorate/domain/core"
	"chronorate/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjust(t *testing.T) {
	engine := NewEngine(internal.NewDiscardLogger())

	tests := []struct {
		name  string
		base  int64
		hour  int
		label circadian.ChronotypeClass
		want  int64
	}{
		{"night discount early", 10000, 3, circadian.Early, 8075},
		{"peak premium late", 10000, 10, circadian.Late, 11550},
		{"neutral", 10000, 8, circadian.Intermediate, 10000},
		{"late night", 10000, 23, circadian.Intermediate, 9000},
		{"floor of fraction", 1, 10, circadian.Late, 1},
		{"zero base", 0, 12, circadian.Early, 0},
		{"negative base floors down", -1, 3, circadian.Early, -1},
		{"hour out of range", 10000, 24, circadian.Late, 10500},
		{"negative hour", 10000, -1, circadian.Early, 9500},
		{"unknown label", 10000, 10, circadian.ChronotypeClass(7), 11000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Adjust(tt.base, tt.hour, tt.label, 0.9)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdjustIgnoresConfidence(t *testing.T) {
	engine := NewEngine(internal.NewDiscardLogger())
	for hour := 0; hour < 24; hour++ {
		for label := circadian.Early; label <= circadian.Late; label++ {
			want, err := engine.Adjust(123457, hour, label, 0)
			require.NoError(t, err)
			for _, c := range []float64{0.01, 0.5, 0.99, 1, math.NaN()} {
				got, err := engine.Adjust(123457, hour, label, c)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
		}
	}
}

func TestAdjustLargeBaseIsExact(t *testing.T) {
	engine := NewEngine(internal.NewDiscardLogger())

	// base × 8500 × 9500 exceeds int64 but the quotient fits.
	got, err := engine.Adjust(math.MaxInt64/2, 3, circadian.Early, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3723936459880115731), got)
}

func TestAdjustOverflow(t *testing.T) {
	engine := NewEngine(internal.NewDiscardLogger())

	_, err := engine.Adjust(math.MaxInt64, 10, circadian.Late, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrRateOverflow)
}

func TestQuoteBreakdown(t *testing.T) {
	engine := NewEngine(internal.NewDiscardLogger())

	q, err := engine.Quote(20000, 15, circadian.Early, 0.42)
	require.NoError(t, err)
	assert.Equal(t, Quote{
		BaseRate:             20000,
		AdjustedRate:         20900,
		Hour:                 15,
		Chronotype:           circadian.Early,
		ChronotypeName:       "Early",
		Confidence:           0.42,
		HourlyMultiplier:     11000,
		ChronotypeMultiplier: 9500,
	}, q)
}

func TestHourlyTable(t *testing.T) {
	want := map[int]int64{}
	for _, h := range []int{2, 3, 4, 5, 6} {
		want[h] = 8500
	}
	for h := 9; h <= 17; h++ {
		want[h] = 11000
	}
	for _, h := range []int{22, 23, 0, 1} {
		want[h] = 9000
	}
	for h := 0; h < 24; h++ {
		expected, ok := want[h]
		if !ok {
			expected = NeutralMultiplier
		}
		assert.Equal(t, expected, HourlyMultiplier(h), "hour %d", h)
	}
}
