// Package jobstore records the outcome of every try-on request in Postgres.
// Images are never persisted here.
package jobstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tryon/internal/domain"
	"tryon/internal/infra"
	"tryon/internal/sqlinline"
)

const maxRecent = 100

type Store struct {
	sql infra.SQLExecutor
	now func() time.Time
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql, now: time.Now}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.sql.Exec(ctx, sqlinline.QEnsureJobsTable); err != nil {
		return fmt.Errorf("jobstore: ensure schema: %w", err)
	}
	return nil
}

// Record inserts or updates rec. A missing ID or CreatedAt is filled in.
func (s *Store) Record(ctx context.Context, rec domain.JobRecord) (domain.JobRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	} else if _, err := uuid.Parse(rec.ID); err != nil {
		return rec, fmt.Errorf("jobstore: invalid job id %q: %w", rec.ID, err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}
	_, err := s.sql.Exec(ctx, sqlinline.QUpsertJob,
		rec.ID, string(rec.Transport), string(rec.Status), rec.Error, rec.ProcessingTime, rec.CreatedAt)
	if err != nil {
		return rec, fmt.Errorf("jobstore: record %s: %w", rec.ID, err)
	}
	return rec, nil
}

// Get returns domain.ErrNotFound when id is unknown or not a UUID.
func (s *Store) Get(ctx context.Context, id string) (domain.JobRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.JobRecord{}, domain.ErrNotFound
	}
	var (
		rec       domain.JobRecord
		transport string
		status    string
	)
	row := s.sql.QueryRow(ctx, sqlinline.QSelectJob, id)
	if err := row.Scan(&rec.ID, &transport, &status, &rec.Error, &rec.ProcessingTime, &rec.CreatedAt); err != nil {
		if infra.IsNoRows(err) {
			return domain.JobRecord{}, domain.ErrNotFound
		}
		return domain.JobRecord{}, fmt.Errorf("jobstore: get %s: %w", id, err)
	}
	rec.Transport = domain.Transport(transport)
	rec.Status = domain.JobStatus(status)
	return rec, nil
}

// Recent lists the latest records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.JobRecord, error) {
	if limit <= 0 || limit > maxRecent {
		limit = maxRecent
	}
	rows, err := s.sql.Query(ctx, sqlinline.QSelectRecentJobs, limit)
	if err != nil {
		return nil, fmt.Errorf("jobstore: recent: %w", err)
	}
	defer rows.Close()

	var out []domain.JobRecord
	for rows.Next() {
		var (
			rec       domain.JobRecord
			transport string
			status    string
		)
		if err := rows.Scan(&rec.ID, &transport, &status, &rec.Error, &rec.ProcessingTime, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("jobstore: scan recent: %w", err)
		}
		rec.Transport = domain.Transport(transport)
		rec.Status = domain.JobStatus(status)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("jobstore: recent rows: %w", err)
	}
	return out, nil
}
