package container

import (
	"context"
	"fmt"

	"chronorate/adapters/filestore"
	"chronorate/adapters/grpcmodel"
	"chronorate/adapters/postgres"
	"chronorate/adapters/rng"
	"chronorate/app"
	"chronorate/domain/circadian"
	"chronorate/internal"
	"chronorate/internal/config"
	"chronorate/internal/inference"
	"chronorate/internal/oscillator"
	"chronorate/internal/perturbation"
	"chronorate/internal/population"
	"chronorate/internal/rate"
	"chronorate/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB          *sqlx.DB
	ModelClient *grpcmodel.Client

	// Adapters
	RNG            ports.RNGPort
	PopulationRepo ports.PopulationRepository
	Store          ports.ArtifactStore

	// Engines
	Simulator  *oscillator.Simulator
	Generator  *population.Generator
	Stack      *perturbation.Stack
	Models     *inference.ModelBundle
	Inference  *inference.Adapter
	RateEngine *rate.Engine

	// Services
	Corpus  *app.CorpusService
	Scoring *app.ScoringService
}

// New creates a new dependency injection container. Database and model service
// connections are opened separately by InitWithDatabase and InitModels.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))

	simulator, err := oscillator.NewSimulator(oscillator.Settings{
		SamplesPerHour: cfg.Generation.SamplesPerHour,
		Substeps:       cfg.Generation.Substeps,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create simulator: %w", err)
	}

	c := &Container{
		Config:     cfg,
		Logger:     logger,
		RNG:        rng.NewSeededAdapter(),
		Store:      filestore.NewStore(cfg.Output.Dir),
		Simulator:  simulator,
		Stack:      perturbation.NewStack(cfg.Generation.Trips),
		Models:     inference.EmptyBundle(),
		RateEngine: rate.NewEngine(logger),
	}
	c.Generator = population.NewGenerator(simulator, c.RNG, logger)
	c.wireServices()
	return c, nil
}

// InitWithDatabase opens the configured database and enables persistence. It is a
// no-op when DATABASE_URL is unset.
func (c *Container) InitWithDatabase(ctx context.Context) error {
	if !c.Config.Database.Enabled() {
		c.Logger.Debug("DATABASE_URL not set, persistence disabled")
		return nil
	}

	db, err := postgres.Open(ctx, c.Config.Database.Driver, c.Config.Database.URL)
	if err != nil {
		return err
	}
	c.DB = db
	c.PopulationRepo = postgres.NewPopulationRepository(db)
	c.wireServices()

	c.Logger.Info("Database initialized (%s)", c.Config.Database.Driver)
	return nil
}

// InitModels connects to the model service and loads whatever it reports. A
// missing or unreachable service leaves the empty bundle in place.
func (c *Container) InitModels(ctx context.Context) error {
	if c.Config.Models.ServiceAddr == "" {
		c.Logger.Warn("MODEL_SERVICE_ADDR not set, inference will return the default label")
		return nil
	}

	client, err := grpcmodel.Dial(c.Config.Models.ServiceAddr, c.Config.Models.Timeout)
	if err != nil {
		return err
	}
	c.ModelClient = client

	bundle, err := grpcmodel.LoadBundle(ctx, client, c.Logger)
	if err != nil {
		c.Logger.Warn("Continuing without models: %v", err)
	}
	c.Models = bundle
	c.wireServices()
	return nil
}

// UseModels replaces the model bundle, for callers that host models in-process.
func (c *Container) UseModels(bundle *inference.ModelBundle) {
	c.Models = bundle
	c.wireServices()
}

// BuildRequest maps the generation settings onto a corpus build.
func (c *Container) BuildRequest() app.BuildRequest {
	gen := c.Config.Generation
	return app.BuildRequest{
		Request: population.Request{
			TotalSubjects:  gen.Subjects,
			DaysPerSubject: gen.Days,
			Ratios: circadian.ClassRatios{
				Early:        gen.EarlyRatio,
				Intermediate: gen.IntermediateRatio,
				Late:         gen.LateRatio,
			},
			Seed:    gen.Seed,
			Workers: gen.Workers,
		},
		Perturb: true,
		Persist: c.PopulationRepo != nil,
		Export:  true,
	}
}

func (c *Container) wireServices() {
	c.Inference = inference.NewAdapter(c.Models, c.Logger)
	c.Corpus = app.NewCorpusService(c.Generator, c.Stack, c.RNG, c.PopulationRepo, c.Store, c.Logger)
	c.Scoring = app.NewScoringService(c.Inference, c.RateEngine, c.Logger)
}

// Shutdown closes the database and model service connections
func (c *Container) Shutdown(ctx context.Context) error {
	var firstErr error
	if c.ModelClient != nil {
		if err := c.ModelClient.Close(); err != nil {
			firstErr = err
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
