package population

import (
	"context"
	"fmt"
	"math"
	"time"

	"chronorate/domain/circadian"
	"chronorate/domain/core"
	"chronorate/internal"
	"chronorate/internal/errors"
	"chronorate/internal/oscillator"
	"chronorate/ports"

	"golang.org/x/sync/errgroup"
)

// Request describes one population to synthesize.
type Request struct {
	TotalSubjects  int
	DaysPerSubject int
	Ratios         circadian.ClassRatios
	Seed           int64
	// Workers bounds concurrent subject simulations. Values below 1 mean 1.
	Workers int
}

// DefaultRequest mirrors the reference corpus: 1000 subjects, 30 days, 25/50/25.
func DefaultRequest() Request {
	return Request{
		TotalSubjects:  1000,
		DaysPerSubject: 30,
		Ratios:         circadian.DefaultClassRatios(),
		Seed:           42,
		Workers:        1,
	}
}

// Generator drives the sampler and simulator across a population.
type Generator struct {
	simulator *oscillator.Simulator
	rng       ports.RNGPort
	logger    *internal.Logger
	now       func() time.Time
}

// NewGenerator wires a generator.
func NewGenerator(simulator *oscillator.Simulator, rng ports.RNGPort, logger *internal.Logger) *Generator {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Generator{
		simulator: simulator,
		rng:       rng,
		logger:    logger,
		now:       time.Now,
	}
}

// PlanCounts splits total across classes: floor(ratio×total) for early and late,
// intermediate absorbs the remainder so the counts always sum to total.
func PlanCounts(total int, ratios circadian.ClassRatios) (map[circadian.ChronotypeClass]int, error) {
	if total < 1 {
		return nil, errors.GenerationError(fmt.Sprintf("totalSubjects must be at least 1, got %d", total))
	}
	if err := validateRatios(ratios); err != nil {
		return nil, err
	}
	early := int(math.Floor(ratios.Early * float64(total)))
	late := int(math.Floor(ratios.Late * float64(total)))
	return map[circadian.ChronotypeClass]int{
		circadian.Early:        early,
		circadian.Late:         late,
		circadian.Intermediate: total - early - late,
	}, nil
}

func validateRatios(r circadian.ClassRatios) error {
	for _, v := range []float64{r.Early, r.Intermediate, r.Late} {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return &errors.AppError{
				Code:    errors.CodeGenerationError,
				Message: fmt.Sprintf("class ratios must lie in [0, 1], got %+v", r),
				Cause:   core.ErrInvalidRatios,
			}
		}
	}
	if r.Early+r.Late > 1 {
		return &errors.AppError{
			Code:    errors.CodeGenerationError,
			Message: fmt.Sprintf("early + late ratios exceed 1 (%.3f)", r.Early+r.Late),
			Cause:   core.ErrInvalidRatios,
		}
	}
	if sum := r.Sum(); math.Abs(sum-1) > circadian.RatioTolerance {
		return &errors.AppError{
			Code:    errors.CodeGenerationError,
			Message: fmt.Sprintf("class ratios must sum to 1, got %.6f", sum),
			Cause:   core.ErrInvalidRatios,
		}
	}
	return nil
}

type job struct {
	index int
	class circadian.ChronotypeClass
}

// Generate synthesizes the population. Each subject gets its own RNG stream keyed by
// its id, so the output is identical for any worker count. Subjects are written to
// disjoint slots and merged into the population map after all workers finish.
func (g *Generator) Generate(ctx context.Context, req Request) (*circadian.Population, error) {
	if req.DaysPerSubject < 1 {
		return nil, errors.GenerationError(fmt.Sprintf("daysPerSubject must be at least 1, got %d", req.DaysPerSubject))
	}
	counts, err := PlanCounts(req.TotalSubjects, req.Ratios)
	if err != nil {
		return nil, err
	}

	jobs := make([]job, 0, req.TotalSubjects)
	for _, class := range circadian.GenerationOrder {
		for i := 0; i < counts[class]; i++ {
			jobs = append(jobs, job{index: len(jobs), class: class})
		}
	}

	workers := req.Workers
	if workers < 1 {
		workers = 1
	}

	g.logger.Info("Generating %d subjects x %d days (early=%d late=%d intermediate=%d, workers=%d)",
		req.TotalSubjects, req.DaysPerSubject,
		counts[circadian.Early], counts[circadian.Late], counts[circadian.Intermediate], workers)

	subjects := make([]*circadian.Subject, len(jobs))
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for _, j := range jobs {
		eg.Go(func() error {
			subject, err := g.generateSubject(egctx, j, req)
			if err != nil {
				return err
			}
			subjects[j.index] = subject
			if (j.index+1)%100 == 0 {
				g.logger.Debug("  generated %d/%d subjects", j.index+1, len(jobs))
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, errors.Wrap(err, "population generation failed")
	}

	pop := &circadian.Population{
		RunID:    core.NewRunID(),
		Order:    make([]core.SubjectID, 0, len(subjects)),
		Subjects: make(map[core.SubjectID]*circadian.Subject, len(subjects)),
		Metadata: circadian.Metadata{
			TotalSubjects:  req.TotalSubjects,
			DaysPerSubject: req.DaysPerSubject,
			Ratios:         req.Ratios,
			Counts:         counts,
			Seed:           req.Seed,
			SamplesPerHour: g.simulator.Settings().SamplesPerHour,
			Substeps:       g.simulator.Settings().Substeps,
			GeneratedAt:    g.now().UTC(),
		},
	}
	for _, s := range subjects {
		pop.Order = append(pop.Order, s.ID)
		pop.Subjects[s.ID] = s
	}

	g.logger.Info("Generated population %s with %d subjects", pop.RunID, len(pop.Subjects))
	return pop, nil
}

func (g *Generator) generateSubject(ctx context.Context, j job, req Request) (*circadian.Subject, error) {
	id := core.SubjectIDFor(j.index)
	rng, err := g.rng.Stream(ctx, ports.StageOscillator, id.String(), req.Seed)
	if err != nil {
		return nil, err
	}

	params, err := oscillator.Sample(j.class, rng)
	if err != nil {
		return nil, errors.Wrapf(err, "sample parameters for %s", id)
	}
	signal, err := g.simulator.Simulate(params, req.DaysPerSubject, rng)
	if err != nil {
		return nil, errors.Wrapf(err, "simulate %s", id)
	}

	return &circadian.Subject{
		ID:      id,
		Index:   j.index,
		Class:   j.class,
		Params:  params,
		Base:    signal,
		Derived: map[string]circadian.ActivitySignal{},
	}, nil
}
