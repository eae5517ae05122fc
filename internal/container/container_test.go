package container

import (
	"context"
	"testing"
	"time"

	"chronorate/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Generation: config.GenerationConfig{
			Subjects:          6,
			Days:              10,
			Seed:              3,
			Workers:           2,
			EarlyRatio:        0.25,
			LateRatio:         0.25,
			IntermediateRatio: 0.5,
			Trips:             2,
			SamplesPerHour:    4,
			Substeps:          4,
		},
		Models:   config.ModelConfig{Timeout: time.Second},
		Output:   config.OutputConfig{Dir: t.TempDir()},
		LogLevel: "ERROR",
	}
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestNewWiresServicesWithoutInfrastructure(t *testing.T) {
	c, err := New(testConfig(t))
	require.NoError(t, err)

	require.NoError(t, c.InitWithDatabase(context.Background()))
	require.NoError(t, c.InitModels(context.Background()))
	assert.Nil(t, c.DB)
	assert.Nil(t, c.PopulationRepo)
	assert.False(t, c.Models.Loaded())

	req := c.BuildRequest()
	assert.False(t, req.Persist)
	assert.Equal(t, 6, req.TotalSubjects)
	assert.Equal(t, 0.5, req.Ratios.Intermediate)

	result, err := c.Corpus.Build(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, result.Files, 3)

	score, err := c.Scoring.Score(context.Background(), 10000, 12, []float64{0.4, 0.6})
	require.NoError(t, err)
	assert.True(t, score.Fallback)

	assert.NoError(t, c.Shutdown(context.Background()))
}

func TestInitWithSQLite(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database = config.DatabaseConfig{URL: ":memory:", Driver: "sqlite"}

	c, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, c.InitWithDatabase(context.Background()))
	defer c.Shutdown(context.Background())

	req := c.BuildRequest()
	assert.True(t, req.Persist)

	result, err := c.Corpus.Build(context.Background(), req)
	require.NoError(t, err)

	rows, err := c.Corpus.List(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, result.Population.RunID, rows[0].RunID)
}

func TestNewRejectsCoarseSampling(t *testing.T) {
	cfg := testConfig(t)
	cfg.Generation.SamplesPerHour = 2
	_, err := New(cfg)
	assert.Error(t, err)
}
