package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/picscan/internal/domain"
	"go.uber.org/zap"
)

const createImagesTable = `
CREATE TABLE IF NOT EXISTS images (
	run_id     TEXT        NOT NULL,
	ref        TEXT        NOT NULL,
	first_seen TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (run_id, ref)
)`

// Postgres catalogs discovered images. It only writes; nothing is read
// back to steer a crawl.
type Postgres struct {
	db      *pgxpool.Pool
	runID   string
	timeout time.Duration
	logger  *zap.Logger
}

func NewPostgres(ctx context.Context, connStr, runID string, logger *zap.Logger) (*Postgres, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if _, err := db.Exec(ctx, createImagesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create images table: %w", err)
	}
	return &Postgres{db: db, runID: runID, timeout: 5 * time.Second, logger: logger}, nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Postgres) Close() {
	s.db.Close()
}

func (s *Postgres) Notify(ref string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	rec := domain.ImageRecord{Ref: ref, RunID: s.runID, SeenAt: time.Now().UTC()}
	if err := s.Save(ctx, rec); err != nil {
		s.logger.Error("failed to record image", zap.String("image", ref), zap.Error(err))
	}
}

// Save inserts rec, keeping the first sighting when the image is already
// recorded for the run.
func (s *Postgres) Save(ctx context.Context, rec domain.ImageRecord) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO images (run_id, ref, first_seen) VALUES ($1, $2, $3)
		 ON CONFLICT (run_id, ref) DO NOTHING`,
		rec.RunID, rec.Ref, rec.SeenAt)
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

// Count returns how many images are recorded for the run.
func (s *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM images WHERE run_id = $1`, s.runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count images: %w", err)
	}
	return n, nil
}
