package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"SendWave/internal/models"
)

// Store records one row per dispatched campaign for operator history.
// It is not a queue: reports are written after the fact and nothing is
// read back into the dispatch path.
type Store struct {
	Pool *pgxpool.Pool
}

func New(conn string) (*Store, error) {
	pool, err := pgxpool.New(context.Background(), conn)
	if err != nil {
		return nil, err
	}

	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

// InsertReport persists a campaign's aggregated outcome and returns the
// generated campaign id.
func (s *Store) InsertReport(ctx context.Context, subject string, report *models.DispatchReport) (uuid.UUID, error) {
	id := uuid.New()

	_, err := s.Pool.Exec(ctx,
		`INSERT INTO campaign_reports
		 (id, subject, sent, failed, total, incomplete, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,NOW())`,
		id,
		subject,
		report.Sent,
		report.Failed,
		report.Total,
		report.Incomplete,
	)
	if err != nil {
		return uuid.Nil, err
	}

	return id, nil
}
