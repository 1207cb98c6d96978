package tasks

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelvault/reelvault/internal/catalog"
	"github.com/reelvault/reelvault/internal/scheduler"
	"github.com/reelvault/reelvault/internal/startup"
)

type fakeSyncer struct {
	errs        []error
	calls       int
	collections []string
}

func (f *fakeSyncer) Sync(_ context.Context, collection string) (*catalog.SyncResult, error) {
	f.calls++
	f.collections = append(f.collections, collection)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return &catalog.SyncResult{Collection: collection}, nil
}

func (f *fakeSyncer) DefaultCollection() string { return "feature_films" }

func fastRetry() startup.RetryConfig {
	return startup.RetryConfig{InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, MaxAttempts: 4}
}

func TestCatalogSyncTask_RetriesNetworkErrors(t *testing.T) {
	syncer := &fakeSyncer{errs: []error{
		errors.New("dial tcp: lookup archive.org: no such host"),
		errors.New("connection reset by peer"),
	}}
	task := NewCatalogSyncTask(syncer, fastRetry(), zerolog.Nop())

	if err := task.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if syncer.calls != 3 {
		t.Errorf("calls = %d, want 3", syncer.calls)
	}
	want := []string{"feature_films", "feature_films", "feature_films"}
	if !slices.Equal(syncer.collections, want) {
		t.Errorf("collections = %v, want %v", syncer.collections, want)
	}
}

func TestCatalogSyncTask_SkipsWhenAlreadySyncing(t *testing.T) {
	syncer := &fakeSyncer{errs: []error{catalog.ErrSyncInProgress}}
	task := NewCatalogSyncTask(syncer, fastRetry(), zerolog.Nop())

	if err := task.Run(context.Background()); err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}
	if syncer.calls != 1 {
		t.Errorf("calls = %d, want 1", syncer.calls)
	}
}

func TestCatalogSyncTask_ReturnsOtherErrors(t *testing.T) {
	boom := errors.New("upsert video: disk full")
	syncer := &fakeSyncer{errs: []error{boom}}
	task := NewCatalogSyncTask(syncer, fastRetry(), zerolog.Nop())

	if err := task.Run(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want %v", err, boom)
	}
	if syncer.calls != 1 {
		t.Errorf("calls = %d, want 1", syncer.calls)
	}
}

func TestRegisterCatalogSyncTask(t *testing.T) {
	sched, err := scheduler.New(zerolog.Nop())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	t.Cleanup(func() { _ = sched.Stop() })

	if err := RegisterCatalogSyncTask(sched, &fakeSyncer{}, "0 4 * * *", false, zerolog.Nop()); err != nil {
		t.Fatalf("register: %v", err)
	}

	info, err := sched.GetTask(CatalogSyncTaskID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if info.Name != "Catalog Sync" {
		t.Errorf("name = %q, want Catalog Sync", info.Name)
	}
}
