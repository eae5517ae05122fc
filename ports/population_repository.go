package ports

import (
	"context"
	"time"

	"chronorate/domain/circadian"
	"chronorate/domain/core"
)

// PopulationSummaryRow is the listing view of a persisted population.
type PopulationSummaryRow struct {
	RunID          core.RunID `db:"run_id" json:"run_id"`
	TotalSubjects  int        `db:"total_subjects" json:"total_subjects"`
	DaysPerSubject int        `db:"days_per_subject" json:"days_per_subject"`
	EarlyCount     int        `db:"early_count" json:"early_count"`
	Intermediate   int        `db:"intermediate_count" json:"intermediate_count"`
	LateCount      int        `db:"late_count" json:"late_count"`
	Seed           int64      `db:"seed" json:"seed"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// PopulationRepository persists generated corpora for the training stage.
type PopulationRepository interface {
	Save(ctx context.Context, pop *circadian.Population) error
	Load(ctx context.Context, runID core.RunID) (*circadian.Population, error)
	List(ctx context.Context, limit int) ([]PopulationSummaryRow, error)
	Delete(ctx context.Context, runID core.RunID) error
}
