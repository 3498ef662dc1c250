package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/esim_api/internal/models"
)

// SyncRunRepository records catalog sync runs.
type SyncRunRepository struct {
	db *sqlx.DB
}

// NewSyncRunRepository creates a new SyncRunRepository.
func NewSyncRunRepository(db *sqlx.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

func (r *SyncRunRepository) Create(ctx context.Context, run *models.SyncRun) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO sync_runs (id, trigger, stage, fetched, skipped, written, deactivated, error, started_at, finished_at)
		VALUES (:id, :trigger, :stage, :fetched, :skipped, :written, :deactivated, :error, :started_at, :finished_at)`, run)
	return err
}

func (r *SyncRunRepository) Update(ctx context.Context, run *models.SyncRun) error {
	_, err := r.db.NamedExecContext(ctx, `
		UPDATE sync_runs SET
			stage = :stage,
			fetched = :fetched,
			skipped = :skipped,
			written = :written,
			deactivated = :deactivated,
			error = :error,
			finished_at = :finished_at
		WHERE id = :id`, run)
	return err
}

// ListRecent returns the latest runs, newest first.
func (r *SyncRunRepository) ListRecent(ctx context.Context, limit int) ([]models.SyncRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	runs := []models.SyncRun{}
	err := r.db.SelectContext(ctx, &runs, `SELECT * FROM sync_runs ORDER BY started_at DESC LIMIT $1`, limit)
	return runs, err
}
