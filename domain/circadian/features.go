package circadian

// FeatureDim is the length of the engineered feature vector.
const FeatureDim = 9

// Positions within a FeatureVector.
const (
	FeaturePeakHour = iota
	FeatureTroughHour
	FeatureMeanActivity
	FeatureStdActivity
	FeatureMorningMean
	FeatureEveningMean
	FeatureNightMean
	FeatureMorningEveningRatio
	FeatureNormalizedPeakOffset
)

// FeatureNames matches the FeatureVector layout.
var FeatureNames = [FeatureDim]string{
	"peak_hour",
	"trough_hour",
	"mean_activity",
	"std_activity",
	"morning_mean",
	"evening_mean",
	"night_mean",
	"morning_evening_ratio",
	"normalized_peak_offset",
}

// FeatureVector is the fixed 9-dimensional summary of a 24-hour window.
type FeatureVector [FeatureDim]float64

func (f FeatureVector) PeakHour() float64              { return f[FeaturePeakHour] }
func (f FeatureVector) TroughHour() float64            { return f[FeatureTroughHour] }
func (f FeatureVector) MeanActivity() float64          { return f[FeatureMeanActivity] }
func (f FeatureVector) StdActivity() float64           { return f[FeatureStdActivity] }
func (f FeatureVector) MorningMean() float64           { return f[FeatureMorningMean] }
func (f FeatureVector) EveningMean() float64           { return f[FeatureEveningMean] }
func (f FeatureVector) NightMean() float64             { return f[FeatureNightMean] }
func (f FeatureVector) MorningToEveningRatio() float64 { return f[FeatureMorningEveningRatio] }
func (f FeatureVector) NormalizedPeakOffset() float64  { return f[FeatureNormalizedPeakOffset] }

// Slice returns a fresh copy suitable for concatenation into model inputs.
func (f FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureDim)
	copy(out, f[:])
	return out
}
