// Package report summarizes a generated population for operators and for the
// data_summary.json artifact.
package report

import (
	"math"
	"sort"
	"time"

	"chronorate/domain/circadian"
	"chronorate/domain/core"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution is the mean and population standard deviation of one quantity.
type Distribution struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	// CI95Low and CI95High bound the mean with a Student-t interval. Both equal
	// Mean below two observations.
	CI95Low  float64 `json:"ci95_low"`
	CI95High float64 `json:"ci95_high"`
}

// ClassSummary describes the subjects of one chronotype.
type ClassSummary struct {
	Class      string       `json:"chronotype"`
	Count      int          `json:"count"`
	Mu         Distribution `json:"mu"`
	Tau        Distribution `json:"tau"`
	NoiseLevel Distribution `json:"noise_level"`
	PeakHour   Distribution `json:"peak_hour"`
}

// Summary is the population-level report.
type Summary struct {
	RunID                  core.RunID              `json:"run_id"`
	TotalUsers             int                     `json:"total_users"`
	DaysPerSubject         int                     `json:"days_per_subject"`
	Seed                   int64                   `json:"seed"`
	GeneratedAt            time.Time               `json:"generated_at"`
	ChronotypeDistribution map[string]int          `json:"chronotype_distribution"`
	Classes                []ClassSummary          `json:"classes"`
	MeanActivity           map[string]Distribution `json:"mean_activity_by_variant"`
	StressEvents           int                     `json:"stress_events"`
	TravelEvents           int                     `json:"travel_events"`
	DataFiles              []string                `json:"data_files,omitempty"`
}

// Summarize computes the report. Empty populations produce zero distributions.
func Summarize(pop *circadian.Population) *Summary {
	subjects := pop.Ordered()
	s := &Summary{
		RunID:                  pop.RunID,
		TotalUsers:             len(subjects),
		DaysPerSubject:         pop.Metadata.DaysPerSubject,
		Seed:                   pop.Metadata.Seed,
		GeneratedAt:            pop.Metadata.GeneratedAt,
		ChronotypeDistribution: make(map[string]int, circadian.NumClasses),
		MeanActivity:           make(map[string]Distribution),
	}

	byClass := make(map[circadian.ChronotypeClass][]*circadian.Subject, circadian.NumClasses)
	variantMeans := make(map[string][]float64)

	for _, subj := range subjects {
		byClass[subj.Class] = append(byClass[subj.Class], subj)
		s.ChronotypeDistribution[subj.Class.String()]++
		s.StressEvents += len(subj.EventsOf(circadian.EventStress))
		s.TravelEvents += len(subj.EventsOf(circadian.EventTravel))

		if m, err := stats.Mean(subj.Base.Values); err == nil {
			variantMeans[circadian.VariantBase] = append(variantMeans[circadian.VariantBase], m)
		}
		for name, sig := range subj.Derived {
			if m, err := stats.Mean(sig.Values); err == nil {
				variantMeans[name] = append(variantMeans[name], m)
			}
		}
	}

	for class := circadian.Early; class <= circadian.Late; class++ {
		group := byClass[class]
		cs := ClassSummary{Class: class.String(), Count: len(group)}
		var mu, tau, noise, peaks []float64
		for _, subj := range group {
			mu = append(mu, subj.Params.Mu)
			tau = append(tau, subj.Params.Tau)
			noise = append(noise, subj.Params.NoiseLevel)
			if len(subj.Base.Values) > 0 {
				peaks = append(peaks, float64(peakHour(subj.Base.Values)))
			}
		}
		cs.Mu = describe(mu)
		cs.Tau = describe(tau)
		cs.NoiseLevel = describe(noise)
		cs.PeakHour = describe(peaks)
		s.Classes = append(s.Classes, cs)
	}

	for name, means := range variantMeans {
		s.MeanActivity[name] = describe(means)
	}
	return s
}

// Variants lists the summarized signal variants in a stable order.
func (s *Summary) Variants() []string {
	names := make([]string, 0, len(s.MeanActivity))
	for name := range s.MeanActivity {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func describe(data []float64) Distribution {
	if len(data) == 0 {
		return Distribution{}
	}
	var d Distribution
	d.Mean, _ = stats.Mean(data)
	d.Std, _ = stats.StandardDeviationPopulation(data)
	d.Min, _ = stats.Min(data)
	d.Max, _ = stats.Max(data)
	d.CI95Low, d.CI95High = meanInterval(data, d.Mean, 0.95)
	return d
}

func meanInterval(data []float64, mean, level float64) (float64, float64) {
	n := len(data)
	if n < 2 {
		return mean, mean
	}
	sd, _ := stats.StandardDeviationSample(data)
	tCritical := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 1)}.Quantile(1 - (1-level)/2)
	half := tCritical * sd / math.Sqrt(float64(n))
	return mean - half, mean + half
}

// peakHour is the hour of day with the highest average activity across all days.
func peakHour(values []float64) int {
	var sums [circadian.HoursPerDay]float64
	for i, v := range values {
		sums[i%circadian.HoursPerDay] += v
	}
	best := 0
	for h, v := range sums {
		if v > sums[best] {
			best = h
		}
	}
	return best
}
