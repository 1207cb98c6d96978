package tasks

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/reelvault/reelvault/internal/catalog"
	"github.com/reelvault/reelvault/internal/scheduler"
	"github.com/reelvault/reelvault/internal/startup"
)

const CatalogSyncTaskID = "catalog-sync"

// CatalogSyncer is the part of the catalog service the sync task needs.
type CatalogSyncer interface {
	Sync(ctx context.Context, collection string) (*catalog.SyncResult, error)
	DefaultCollection() string
}

// CatalogSyncTask re-syncs the configured collection.
type CatalogSyncTask struct {
	syncer CatalogSyncer
	retry  startup.RetryConfig
	logger zerolog.Logger
}

// NewCatalogSyncTask creates a new catalog sync task. Network failures are
// retried with retryCfg.
func NewCatalogSyncTask(syncer CatalogSyncer, retryCfg startup.RetryConfig, logger zerolog.Logger) *CatalogSyncTask {
	return &CatalogSyncTask{
		syncer: syncer,
		retry:  retryCfg,
		logger: logger.With().Str("task", CatalogSyncTaskID).Logger(),
	}
}

// Run executes one sync of the default collection.
func (t *CatalogSyncTask) Run(ctx context.Context) error {
	collection := t.syncer.DefaultCollection()
	err := startup.WithRetry(ctx, "catalog sync", t.retry, func(ctx context.Context) error {
		_, err := t.syncer.Sync(ctx, collection)
		return err
	}, t.logger)

	// A manual sync of the same collection already covers this run.
	if errors.Is(err, catalog.ErrSyncInProgress) {
		t.logger.Info().Str("collection", collection).Msg("Catalog sync already running, skipping")
		return nil
	}
	return err
}

// RegisterCatalogSyncTask registers the catalog sync task with the scheduler.
func RegisterCatalogSyncTask(
	sched *scheduler.Scheduler,
	syncer CatalogSyncer,
	cron string,
	runOnStart bool,
	logger zerolog.Logger,
) error {
	task := NewCatalogSyncTask(syncer, startup.DefaultRetryConfig(), logger)

	return sched.RegisterTask(scheduler.TaskConfig{
		ID:          CatalogSyncTaskID,
		Name:        "Catalog Sync",
		Description: "Mirrors the configured archive collection into the local catalog",
		Cron:        cron,
		RunOnStart:  runOnStart,
		Func:        task.Run,
	})
}
