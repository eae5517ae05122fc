package testkit

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"chronorate/adapters/rng"
	"chronorate/app"
	"chronorate/domain/circadian"
	"chronorate/domain/core"
	"chronorate/internal"
	"chronorate/internal/oscillator"
	"chronorate/internal/perturbation"
	"chronorate/internal/population"
	"chronorate/ports"
)

// TestKit provides testing utilities and fixtures
type TestKit struct {
	Logger    *internal.Logger
	RNG       ports.RNGPort
	Generator *population.Generator
	Stack     *perturbation.Stack
	Repo      *InMemoryPopulationRepository // Shared repository instance
	Store     *InMemoryArtifactStore
	Corpus    *app.CorpusService
}

// NewTestKit creates a kit backed by in-memory adapters and a coarse simulator
func NewTestKit() (*TestKit, error) {
	logger := internal.NewDiscardLogger()
	simulator, err := oscillator.NewSimulator(oscillator.Settings{SamplesPerHour: oscillator.MinSamplesPerHour, Substeps: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to create simulator: %w", err)
	}

	kit := &TestKit{
		Logger: logger,
		RNG:    rng.NewSeededAdapter(),
		Stack:  perturbation.NewStack(3),
		Repo:   NewInMemoryPopulationRepository(),
		Store:  NewInMemoryArtifactStore(),
	}
	kit.Generator = population.NewGenerator(simulator, kit.RNG, logger)
	kit.Corpus = app.NewCorpusService(kit.Generator, kit.Stack, kit.RNG, kit.Repo, kit.Store, logger)
	return kit, nil
}

// SmallRequest is a 12 subject, 14 day build that persists and exports.
func SmallRequest(seed int64) app.BuildRequest {
	return app.BuildRequest{
		Request: population.Request{
			TotalSubjects:  12,
			DaysPerSubject: 14,
			Ratios:         circadian.DefaultClassRatios(),
			Seed:           seed,
			Workers:        2,
		},
		Perturb: true,
		Persist: true,
		Export:  true,
	}
}

// CreateTestPopulation builds, perturbs, stores and exports a small population
func (t *TestKit) CreateTestPopulation(ctx context.Context, seed int64) (*circadian.Population, error) {
	result, err := t.Corpus.Build(ctx, SmallRequest(seed))
	if err != nil {
		return nil, err
	}
	return result.Population, nil
}

// InMemoryPopulationRepository keeps populations in a map
type InMemoryPopulationRepository struct {
	mu          sync.RWMutex
	populations map[core.RunID]*circadian.Population
}

// NewInMemoryPopulationRepository creates an empty repository
func NewInMemoryPopulationRepository() *InMemoryPopulationRepository {
	return &InMemoryPopulationRepository{
		populations: make(map[core.RunID]*circadian.Population),
	}
}

// Save stores the population. Run ids are write-once.
func (r *InMemoryPopulationRepository) Save(ctx context.Context, pop *circadian.Population) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.populations[pop.RunID]; exists {
		return fmt.Errorf("%w: %s", core.ErrPopulationExists, pop.RunID)
	}
	r.populations[pop.RunID] = pop
	return nil
}

// Load returns a stored population
func (r *InMemoryPopulationRepository) Load(ctx context.Context, runID core.RunID) (*circadian.Population, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pop, ok := r.populations[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrPopulationNotFound, runID)
	}
	return pop, nil
}

// List returns summaries newest first
func (r *InMemoryPopulationRepository) List(ctx context.Context, limit int) ([]ports.PopulationSummaryRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := make([]ports.PopulationSummaryRow, 0, len(r.populations))
	for _, pop := range r.populations {
		counts := pop.CountByClass()
		rows = append(rows, ports.PopulationSummaryRow{
			RunID:          pop.RunID,
			TotalSubjects:  pop.Metadata.TotalSubjects,
			DaysPerSubject: pop.Metadata.DaysPerSubject,
			EarlyCount:     counts[circadian.Early],
			Intermediate:   counts[circadian.Intermediate],
			LateCount:      counts[circadian.Late],
			Seed:           pop.Metadata.Seed,
			CreatedAt:      pop.Metadata.GeneratedAt,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].RunID > rows[j].RunID
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// Delete removes a stored population
func (r *InMemoryPopulationRepository) Delete(ctx context.Context, runID core.RunID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.populations[runID]; !ok {
		return fmt.Errorf("%w: %s", core.ErrPopulationNotFound, runID)
	}
	delete(r.populations, runID)
	return nil
}

// InMemoryArtifactStore records exported artifacts instead of writing files
type InMemoryArtifactStore struct {
	mu         sync.RWMutex
	population *circadian.Population
	artifacts  map[string]interface{}
}

// NewInMemoryArtifactStore creates an empty store
func NewInMemoryArtifactStore() *InMemoryArtifactStore {
	return &InMemoryArtifactStore{artifacts: make(map[string]interface{})}
}

// WritePopulation keeps the latest population
func (s *InMemoryArtifactStore) WritePopulation(pop *circadian.Population) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.population = pop
	return "memory://" + app.PopulationArtifact, nil
}

// ReadPopulation returns the latest population
func (s *InMemoryArtifactStore) ReadPopulation() (*circadian.Population, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.population == nil {
		return nil, core.ErrPopulationNotFound
	}
	return s.population, nil
}

// WriteJSON records an auxiliary artifact under its name
func (s *InMemoryArtifactStore) WriteJSON(name string, v interface{}) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[name] = v
	return "memory://" + name, nil
}

// Artifact returns a recorded artifact
func (s *InMemoryArtifactStore) Artifact(name string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.artifacts[name]
	return v, ok
}

// ArtifactNames lists recorded artifacts in name order
func (s *InMemoryArtifactStore) ArtifactNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.artifacts))
	for name := range s.artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	_ ports.PopulationRepository = (*InMemoryPopulationRepository)(nil)
	_ ports.ArtifactStore        = (*InMemoryArtifactStore)(nil)
)
