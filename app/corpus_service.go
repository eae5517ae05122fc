package app

import (
	"context"

	"chronorate/domain/circadian"
	"chronorate/domain/core"
	"chronorate/internal"
	"chronorate/internal/errors"
	"chronorate/internal/features"
	"chronorate/internal/perturbation"
	"chronorate/internal/population"
	"chronorate/internal/report"
	"chronorate/ports"

	"golang.org/x/sync/errgroup"
)

// Artifact names written by Build.
const (
	PopulationArtifact = "population_data_enhanced.json"
	FeaturesArtifact   = "ml_features_enhanced.json"
	SummaryArtifact    = "data_summary.json"
)

// CorpusService builds training corpora: generate, perturb, persist, summarize.
type CorpusService struct {
	generator *population.Generator
	stack     *perturbation.Stack
	rngPort   ports.RNGPort
	repo      ports.PopulationRepository
	store     ports.ArtifactStore
	logger    *internal.Logger
}

// NewCorpusService wires the service. repo and store may be nil.
func NewCorpusService(
	generator *population.Generator,
	stack *perturbation.Stack,
	rngPort ports.RNGPort,
	repo ports.PopulationRepository,
	store ports.ArtifactStore,
	logger *internal.Logger,
) *CorpusService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &CorpusService{
		generator: generator,
		stack:     stack,
		rngPort:   rngPort,
		repo:      repo,
		store:     store,
		logger:    logger,
	}
}

// BuildRequest extends a generation request with the pipeline stages to run.
type BuildRequest struct {
	population.Request
	Perturb bool
	Persist bool
	Export  bool
}

// BuildResult is what one Build produced.
type BuildResult struct {
	Population *circadian.Population
	Summary    *report.Summary
	Files      []string
}

// Build runs the corpus pipeline. Generation errors are returned unchanged.
func (s *CorpusService) Build(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	pop, err := s.generator.Generate(ctx, req.Request)
	if err != nil {
		return nil, err
	}

	if req.Perturb {
		if err := s.Perturb(ctx, pop, req.Seed, req.Workers); err != nil {
			return nil, err
		}
	}

	if req.Persist {
		if s.repo == nil {
			return nil, errors.ConfigInvalid("persistence requested but DATABASE_URL is not set")
		}
		if err := s.repo.Save(ctx, pop); err != nil {
			return nil, errors.Wrap(err, "failed to persist population")
		}
		s.logger.Info("Stored population %s", pop.RunID)
	}

	result := &BuildResult{Population: pop, Summary: report.Summarize(pop)}

	if req.Export {
		files, err := s.export(pop, result.Summary)
		if err != nil {
			return nil, err
		}
		result.Files = files
	}
	return result, nil
}

// Perturb attaches every derived signal to every subject in parallel. Each subject
// draws from its own stream, so the result does not depend on the worker count.
func (s *CorpusService) Perturb(ctx context.Context, pop *circadian.Population, seed int64, workers int) error {
	if workers < 1 {
		workers = 1
	}
	subjects := pop.Ordered()
	enriched := make([]*circadian.Subject, len(subjects))

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, subj := range subjects {
		eg.Go(func() error {
			out, err := s.ApplyPerturbations(egctx, subj, seed)
			if err != nil {
				return err
			}
			enriched[i] = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return errors.Wrap(err, "perturbation failed")
	}

	for _, subj := range enriched {
		pop.Subjects[subj.ID] = subj
	}
	pop.Metadata.Perturbed = true
	s.logger.Info("Applied %d perturbations to %d subjects", len(s.stack.Names()), len(enriched))
	return nil
}

// ApplyPerturbations returns a copy of one subject with derived signals attached.
func (s *CorpusService) ApplyPerturbations(ctx context.Context, subj *circadian.Subject, seed int64) (*circadian.Subject, error) {
	rng, err := s.rngPort.Stream(ctx, ports.StagePerturbation, subj.ID.String(), seed)
	if err != nil {
		return nil, err
	}
	return s.stack.Apply(subj, rng), nil
}

// TrainingSet builds the feature matrix for one variant.
func (s *CorpusService) TrainingSet(pop *circadian.Population, variant string) (*features.TrainingSet, error) {
	return features.BuildTrainingSet(pop, variant)
}

// TrainingSets builds a matrix for the base signal and each derived variant
// present on every subject.
func (s *CorpusService) TrainingSets(pop *circadian.Population) (map[string]*features.TrainingSet, error) {
	sets := make(map[string]*features.TrainingSet)
	for _, variant := range append([]string{circadian.VariantBase}, circadian.DerivedVariants...) {
		set, err := features.BuildTrainingSet(pop, variant)
		if core.IsDataShapeError(err) && variant != circadian.VariantBase {
			continue
		}
		if err != nil {
			return nil, err
		}
		sets[variant] = set
	}
	return sets, nil
}

// Load reads a stored population, from the database when configured and otherwise
// from the exported artifact.
func (s *CorpusService) Load(ctx context.Context, runID core.RunID) (*circadian.Population, error) {
	if s.repo != nil && runID != "" {
		return s.repo.Load(ctx, runID)
	}
	if s.store == nil {
		return nil, errors.ConfigInvalid("no population source configured")
	}
	pop, err := s.store.ReadPopulation()
	if err != nil {
		return nil, err
	}
	if runID != "" && pop.RunID != runID {
		return nil, core.NewNotFoundError("population", runID.String())
	}
	return pop, nil
}

// List returns stored populations, newest first.
func (s *CorpusService) List(ctx context.Context, limit int) ([]ports.PopulationSummaryRow, error) {
	if s.repo == nil {
		return nil, errors.ConfigInvalid("DATABASE_URL is required to list populations")
	}
	return s.repo.List(ctx, limit)
}

func (s *CorpusService) export(pop *circadian.Population, summary *report.Summary) ([]string, error) {
	if s.store == nil {
		return nil, errors.ConfigInvalid("export requested but no output directory is configured")
	}

	var files []string
	path, err := s.store.WritePopulation(pop)
	if err != nil {
		return nil, errors.Wrap(err, "failed to export population")
	}
	files = append(files, path)

	sets, err := s.TrainingSets(pop)
	if err != nil {
		return nil, err
	}
	if path, err = s.store.WriteJSON(FeaturesArtifact, sets); err != nil {
		return nil, errors.Wrap(err, "failed to export features")
	}
	files = append(files, path)

	summary.DataFiles = []string{PopulationArtifact, FeaturesArtifact}
	if path, err = s.store.WriteJSON(SummaryArtifact, summary); err != nil {
		return nil, errors.Wrap(err, "failed to export summary")
	}
	files = append(files, path)

	s.logger.Info("Exported %d artifacts", len(files))
	return files, nil
}
