package syncrun

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/logger"
)

// Runs against the database in TEST_POSTGRES_DSN with migrations applied.
func TestRepository(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN is not set")
	}

	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(logger.NewDiscard(), db)
	ctx := context.Background()

	started := time.Now().UTC().Truncate(time.Millisecond)
	run := models.SyncRun{
		ID:        uuid.New(),
		Type:      models.SyncOrders,
		From:      started.Add(-time.Hour),
		To:        started,
		Status:    models.SyncRunRunning,
		StartedAt: started,
	}
	require.NoError(t, repo.Start(ctx, run))

	finished := started.Add(time.Second)
	run.Status = models.SyncRunSucceeded
	run.Events = 4
	run.Metrics = 11
	run.FinishedAt = &finished
	require.NoError(t, repo.Finish(ctx, run))

	orphan := run
	orphan.ID = uuid.New()
	orphan.StartedAt = started.Add(time.Minute)
	require.NoError(t, repo.Finish(ctx, orphan))

	runs, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, orphan.ID, runs[0].ID)
	require.Equal(t, run.ID, runs[1].ID)
	require.Equal(t, 11, runs[1].Metrics)
	require.NotNil(t, runs[1].FinishedAt)
}
