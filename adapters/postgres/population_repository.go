package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"chronorate/domain/circadian"
	"chronorate/domain/core"
	"chronorate/internal/errors"
	"chronorate/ports"

	"github.com/jmoiron/sqlx"
)

// PopulationRepository implements ports.PopulationRepository over sqlx. Signal
// sequences are stored as JSON text so the same schema works on PostgreSQL and
// SQLite.
type PopulationRepository struct {
	db *sqlx.DB
}

// NewPopulationRepository creates a new population repository
func NewPopulationRepository(db *sqlx.DB) ports.PopulationRepository {
	return &PopulationRepository{db: db}
}

type populationRow struct {
	ports.PopulationSummaryRow
	Metadata string `db:"metadata"`
}

type subjectRow struct {
	RunID      string  `db:"run_id"`
	SubjectID  string  `db:"subject_id"`
	Index      int     `db:"idx"`
	Chronotype string  `db:"chronotype"`
	Mu         float64 `db:"mu"`
	Tau        float64 `db:"tau"`
	NoiseLevel float64 `db:"noise_level"`
	Hours      string  `db:"time_hours"`
	Base       string  `db:"base_signal"`
	Derived    string  `db:"derived_signals"`
	Events     string  `db:"events"`
}

// Save stores the population and all of its subjects in one transaction.
func (r *PopulationRepository) Save(ctx context.Context, pop *circadian.Population) error {
	if pop == nil || pop.RunID == "" {
		return errors.InvalidInput("population must have a run id")
	}

	metadata, err := json.Marshal(pop.Metadata)
	if err != nil {
		return errors.Wrap(err, "failed to encode population metadata")
	}
	counts := pop.CountByClass()

	createdAt := pop.Metadata.GeneratedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO populations (run_id, total_subjects, days_per_subject, early_count, intermediate_count, late_count, seed, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), pop.RunID.String(), len(pop.Subjects), pop.Metadata.DaysPerSubject,
		counts[circadian.Early], counts[circadian.Intermediate], counts[circadian.Late],
		pop.Metadata.Seed, string(metadata), createdAt.UTC())
	if err != nil {
		if c := conflict(err, pop.RunID); c != err {
			return c
		}
		return errors.DatabaseError("failed to insert population", err)
	}

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(`
		INSERT INTO subjects (run_id, subject_id, idx, chronotype, mu, tau, noise_level, time_hours, base_signal, derived_signals, events)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return errors.DatabaseError("failed to prepare subject insert", err)
	}
	defer stmt.Close()

	for _, s := range pop.Ordered() {
		row, err := encodeSubject(pop.RunID, s)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx, row.RunID, row.SubjectID, row.Index, row.Chronotype,
			row.Mu, row.Tau, row.NoiseLevel, row.Hours, row.Base, row.Derived, row.Events)
		if err != nil {
			return errors.DatabaseError(fmt.Sprintf("failed to insert subject %s", s.ID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit population", err)
	}
	return nil
}

// Load reads a population back with subjects in generation order.
func (r *PopulationRepository) Load(ctx context.Context, runID core.RunID) (*circadian.Population, error) {
	var header populationRow
	err := r.db.GetContext(ctx, &header, r.db.Rebind(`
		SELECT run_id, total_subjects, days_per_subject, early_count, intermediate_count, late_count, seed, metadata, created_at
		FROM populations
		WHERE run_id = ?
	`), runID.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrPopulationNotFound, runID)
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to load population", err)
	}

	pop := &circadian.Population{
		RunID:    runID,
		Subjects: make(map[core.SubjectID]*circadian.Subject, header.TotalSubjects),
		Order:    make([]core.SubjectID, 0, header.TotalSubjects),
	}
	if err := json.Unmarshal([]byte(header.Metadata), &pop.Metadata); err != nil {
		return nil, errors.Wrap(err, "failed to decode population metadata")
	}

	var rows []subjectRow
	err = r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT run_id, subject_id, idx, chronotype, mu, tau, noise_level, time_hours, base_signal, derived_signals, events
		FROM subjects
		WHERE run_id = ?
		ORDER BY idx
	`), runID.String())
	if err != nil {
		return nil, errors.DatabaseError("failed to load subjects", err)
	}

	for _, row := range rows {
		s, err := decodeSubject(row)
		if err != nil {
			return nil, err
		}
		pop.Order = append(pop.Order, s.ID)
		pop.Subjects[s.ID] = s
	}
	return pop, nil
}

// List returns the most recent populations first. A limit of 0 returns all.
func (r *PopulationRepository) List(ctx context.Context, limit int) ([]ports.PopulationSummaryRow, error) {
	query := `
		SELECT run_id, total_subjects, days_per_subject, early_count, intermediate_count, late_count, seed, created_at
		FROM populations
		ORDER BY created_at DESC, run_id
	`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows := []ports.PopulationSummaryRow{}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, errors.DatabaseError("failed to list populations", err)
	}
	return rows, nil
}

// Delete removes a population and its subjects.
func (r *PopulationRepository) Delete(ctx context.Context, runID core.RunID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM subjects WHERE run_id = ?`), runID.String()); err != nil {
		return errors.DatabaseError("failed to delete subjects", err)
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM populations WHERE run_id = ?`), runID.String())
	if err != nil {
		return errors.DatabaseError("failed to delete population", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", core.ErrPopulationNotFound, runID)
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit delete", err)
	}
	return nil
}

func encodeSubject(runID core.RunID, s *circadian.Subject) (subjectRow, error) {
	derived := make(map[string][]float64, len(s.Derived))
	for name, sig := range s.Derived {
		derived[name] = sig.Values
	}
	events := s.Events
	if events == nil {
		events = []circadian.Event{}
	}

	row := subjectRow{
		RunID:      runID.String(),
		SubjectID:  s.ID.String(),
		Index:      s.Index,
		Chronotype: s.Class.String(),
		Mu:         s.Params.Mu,
		Tau:        s.Params.Tau,
		NoiseLevel: s.Params.NoiseLevel,
	}
	fields := []struct {
		dst *string
		v   interface{}
	}{
		{&row.Hours, s.Base.Hours},
		{&row.Base, s.Base.Values},
		{&row.Derived, derived},
		{&row.Events, events},
	}
	for _, f := range fields {
		b, err := json.Marshal(f.v)
		if err != nil {
			return subjectRow{}, errors.Wrapf(err, "failed to encode subject %s", s.ID)
		}
		*f.dst = string(b)
	}
	return row, nil
}

func decodeSubject(row subjectRow) (*circadian.Subject, error) {
	class, err := circadian.ParseChronotype(row.Chronotype)
	if err != nil {
		return nil, errors.Wrapf(err, "subject %s", row.SubjectID)
	}

	var (
		hours   []int
		base    []float64
		derived map[string][]float64
		events  []circadian.Event
	)
	for _, f := range []struct {
		src string
		dst interface{}
	}{
		{row.Hours, &hours},
		{row.Base, &base},
		{row.Derived, &derived},
		{row.Events, &events},
	} {
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return nil, errors.Wrapf(err, "failed to decode subject %s", row.SubjectID)
		}
	}

	s := &circadian.Subject{
		ID:      core.SubjectID(row.SubjectID),
		Index:   row.Index,
		Class:   class,
		Params:  circadian.OscillatorParameters{Mu: row.Mu, Tau: row.Tau, NoiseLevel: row.NoiseLevel},
		Base:    circadian.ActivitySignal{Hours: hours, Values: base},
		Derived: make(map[string]circadian.ActivitySignal, len(derived)),
		Events:  events,
	}
	for name, values := range derived {
		sigHours := make([]int, len(hours))
		copy(sigHours, hours)
		s.Derived[name] = circadian.ActivitySignal{Hours: sigHours, Values: values}
	}
	return s, nil
}
