package syncrun

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/logger"
)

// Repository is the Postgres ledger of batch sync runs.
type Repository struct {
	log logger.Logger
	db  *sqlx.DB
}

func NewRepository(log logger.Logger, db *sqlx.DB) *Repository {
	return &Repository{
		log: log,
		db:  db,
	}
}

func (r *Repository) Start(ctx context.Context, run models.SyncRun) error {
	const op = "repository.syncrun.Start"

	const query = `
		INSERT INTO sync_runs (id, sync_type, range_from, range_to, status, events, metrics, error, started_at, finished_at)
		VALUES (:id, :sync_type, :range_from, :range_to, :status, :events, :metrics, :error, :started_at, :finished_at)`

	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		r.log.Error(op, logger.Err(err))
		return fmt.Errorf("%s: execute statement: %w", op, err)
	}

	return nil
}

func (r *Repository) Finish(ctx context.Context, run models.SyncRun) error {
	const op = "repository.syncrun.Finish"

	const query = `
		UPDATE sync_runs
		SET status = :status, events = :events, metrics = :metrics, error = :error, finished_at = :finished_at
		WHERE id = :id`

	res, err := r.db.NamedExecContext(ctx, query, run)
	if err != nil {
		r.log.Error(op, logger.Err(err))
		return fmt.Errorf("%s: execute statement: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}

	// Start may have failed; keep the finished run anyway
	if affected == 0 {
		return r.Start(ctx, run)
	}

	return nil
}

func (r *Repository) List(ctx context.Context, limit int) ([]models.SyncRun, error) {
	const op = "repository.syncrun.List"

	const query = `
		SELECT id, sync_type, range_from, range_to, status, events, metrics, error, started_at, finished_at
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT $1`

	runs := make([]models.SyncRun, 0, limit)
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		r.log.Error(op, logger.Err(err))
		return nil, fmt.Errorf("%s: select: %w", op, err)
	}

	return runs, nil
}
