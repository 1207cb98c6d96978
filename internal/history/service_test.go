package history

import (
	"context"
	"testing"

	"github.com/reelvault/reelvault/internal/download"
	"github.com/reelvault/reelvault/internal/testutil"
)

func TestHistoryService_Create(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	service := NewService(tdb.Conn, testutil.NopLogger())
	ctx := context.Background()

	entry, err := service.Create(ctx, CreateInput{
		EventType: EventTypeDownloadCompleted,
		VideoID:   "metropolis",
		Title:     "Metropolis",
		Data:      map[string]any{"localPath": "/media/metropolis.mp4"},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if entry.ID == 0 {
		t.Error("Create() entry.ID = 0, want non-zero")
	}
	if entry.EventType != EventTypeDownloadCompleted {
		t.Errorf("Create() EventType = %q, want %q", entry.EventType, EventTypeDownloadCompleted)
	}
	if entry.VideoID != "metropolis" {
		t.Errorf("Create() VideoID = %q, want %q", entry.VideoID, "metropolis")
	}
	if entry.Title != "Metropolis" {
		t.Errorf("Create() Title = %q, want %q", entry.Title, "Metropolis")
	}
	if entry.Data["localPath"] != "/media/metropolis.mp4" {
		t.Errorf("Create() Data.localPath = %v", entry.Data["localPath"])
	}
	if entry.CreatedAt == "" {
		t.Error("Create() CreatedAt is empty")
	}
}

func TestHistoryService_LogDownloadFailed(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	service := NewService(tdb.Conn, testutil.NopLogger())
	ctx := context.Background()

	err := service.LogDownloadFailed(ctx, "nosferatu", "Nosferatu", DownloadFailedData{
		Error:      "server responded with 503",
		RetryCount: 3,
	})
	if err != nil {
		t.Fatalf("LogDownloadFailed() error = %v", err)
	}

	entries, err := service.ListByVideo(ctx, "nosferatu")
	if err != nil {
		t.Fatalf("ListByVideo() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("ListByVideo() returned %d entries, want 1", len(entries))
	}

	entry := entries[0]
	if entry.EventType != EventTypeDownloadFailed {
		t.Errorf("EventType = %q, want %q", entry.EventType, EventTypeDownloadFailed)
	}
	if entry.Data["error"] != "server responded with 503" {
		t.Errorf("Data.error = %v", entry.Data["error"])
	}
	// JSON numbers decode as float64.
	if entry.Data["retryCount"] != float64(3) {
		t.Errorf("Data.retryCount = %v, want 3", entry.Data["retryCount"])
	}
}

func TestHistoryService_LogCatalogSynced(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	service := NewService(tdb.Conn, testutil.NopLogger())
	ctx := context.Background()

	err := service.LogCatalogSynced(ctx, CatalogSyncedData{Collection: "feature_films", Found: 10, Synced: 9, Skipped: 1})
	if err != nil {
		t.Fatalf("LogCatalogSynced() error = %v", err)
	}

	resp, err := service.List(ctx, ListOptions{EventType: string(EventTypeCatalogSynced)})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(resp.Items) != 1 {
		t.Fatalf("List() returned %d items, want 1", len(resp.Items))
	}
	if resp.Items[0].Title != "feature_films" {
		t.Errorf("Title = %q, want %q", resp.Items[0].Title, "feature_films")
	}
	if resp.Items[0].VideoID != "" {
		t.Errorf("VideoID = %q, want empty", resp.Items[0].VideoID)
	}
}

func TestHistoryService_ListFiltered(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	service := NewService(tdb.Conn, testutil.NopLogger())
	ctx := context.Background()

	_ = service.LogDownloadCompleted(ctx, "a", "A", DownloadCompletedData{})
	_ = service.LogDownloadCancelled(ctx, "b", "B")
	_ = service.LogDownloadCancelled(ctx, "c", "C")

	resp, err := service.List(ctx, ListOptions{
		EventType: string(EventTypeDownloadCancelled),
		Page:      1,
		PageSize:  50,
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(resp.Items) != 2 {
		t.Errorf("List(event=download_cancelled) returned %d items, want 2", len(resp.Items))
	}
	if resp.TotalCount != 2 {
		t.Errorf("TotalCount = %d, want 2", resp.TotalCount)
	}

	// Newest first.
	if resp.Items[0].VideoID != "c" {
		t.Errorf("first item = %q, want %q", resp.Items[0].VideoID, "c")
	}
}

func TestHistoryService_DeleteAll(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	service := NewService(tdb.Conn, testutil.NopLogger())
	ctx := context.Background()

	_ = service.LogDownloadCancelled(ctx, "a", "")
	_ = service.LogDownloadCancelled(ctx, "b", "")

	if err := service.DeleteAll(ctx); err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}

	resp, _ := service.List(ctx, ListOptions{Page: 1, PageSize: 50})
	if len(resp.Items) != 0 {
		t.Errorf("After DeleteAll: %d items remain", len(resp.Items))
	}
}

func TestHistoryService_Pagination(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	service := NewService(tdb.Conn, testutil.NopLogger())
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		_ = service.LogDownloadCancelled(ctx, id, "")
	}

	resp, err := service.List(ctx, ListOptions{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(resp.Items) != 2 {
		t.Errorf("Page 1 items = %d, want 2", len(resp.Items))
	}
	if resp.TotalCount != 5 {
		t.Errorf("TotalCount = %d, want 5", resp.TotalCount)
	}
	if resp.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", resp.TotalPages)
	}

	resp, err = service.List(ctx, ListOptions{Page: 3, PageSize: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(resp.Items) != 1 {
		t.Errorf("Page 3 items = %d, want 1", len(resp.Items))
	}
}

func TestHistoryService_CleanupOldEntries(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	service := NewService(tdb.Conn, testutil.NopLogger())
	ctx := context.Background()

	_, err := tdb.Conn.ExecContext(ctx,
		`INSERT INTO history (event_type, video_id, created_at) VALUES ('download_failed', 'old', '2000-01-01 00:00:00')`)
	if err != nil {
		t.Fatalf("insert old entry: %v", err)
	}
	_ = service.LogDownloadCancelled(ctx, "new", "")

	if err := service.SaveRetentionSettings(ctx, RetentionSettings{Enabled: false, RetentionDays: 30}); err != nil {
		t.Fatalf("SaveRetentionSettings() error = %v", err)
	}
	n, err := service.CleanupOldEntries(ctx)
	if err != nil {
		t.Fatalf("CleanupOldEntries() error = %v", err)
	}
	if n != 0 {
		t.Errorf("disabled cleanup deleted %d entries", n)
	}

	if err := service.SaveRetentionSettings(ctx, RetentionSettings{Enabled: true, RetentionDays: 30}); err != nil {
		t.Fatalf("SaveRetentionSettings() error = %v", err)
	}
	n, err = service.CleanupOldEntries(ctx)
	if err != nil {
		t.Fatalf("CleanupOldEntries() error = %v", err)
	}
	if n != 1 {
		t.Errorf("CleanupOldEntries() deleted %d entries, want 1", n)
	}

	entries, _ := service.ListByVideo(ctx, "new")
	if len(entries) != 1 {
		t.Errorf("recent entry was removed")
	}
}

func TestHistoryService_RetentionSettings(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	service := NewService(tdb.Conn, testutil.NopLogger())
	ctx := context.Background()

	settings, err := service.GetRetentionSettings(ctx)
	if err != nil {
		t.Fatalf("GetRetentionSettings() error = %v", err)
	}
	if settings != DefaultRetentionSettings() {
		t.Errorf("GetRetentionSettings() = %+v, want defaults", settings)
	}

	if err := service.SaveRetentionSettings(ctx, RetentionSettings{Enabled: true, RetentionDays: -1}); err != ErrInvalidRetention {
		t.Errorf("SaveRetentionSettings(-1) error = %v, want %v", err, ErrInvalidRetention)
	}
}

func TestListener(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	service := NewService(tdb.Conn, testutil.NopLogger())
	ctx := context.Background()

	titles := func(_ context.Context, id string) string {
		if id == "metropolis" {
			return "Metropolis"
		}
		return ""
	}

	l := NewListener(service, titles, testutil.NopLogger())
	l.Start()

	l.Listen(download.Event{Type: download.EventQueued, ID: "metropolis"})
	l.Listen(download.Event{Type: download.EventStarted, ID: "metropolis"})
	l.Listen(download.Event{Type: download.EventCompleted, ID: "metropolis", Result: &download.Result{
		ID: "metropolis", LocalPath: "/media/m.mp4", SizeBytes: 2048, DurationMs: 1500,
	}})
	l.Listen(download.Event{Type: download.EventFailed, ID: "raw", Failure: &download.Failure{ID: "raw", Message: "boom", RetryCount: 3}})
	l.Listen(download.Event{Type: download.EventCancelled, ID: "other"})
	l.Stop()

	resp, err := service.List(ctx, ListOptions{Page: 1, PageSize: 50})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if resp.TotalCount != 3 {
		t.Fatalf("TotalCount = %d, want 3", resp.TotalCount)
	}

	entries, _ := service.ListByVideo(ctx, "metropolis")
	if len(entries) != 1 {
		t.Fatalf("metropolis entries = %d, want 1", len(entries))
	}
	if entries[0].Title != "Metropolis" {
		t.Errorf("Title = %q, want %q", entries[0].Title, "Metropolis")
	}
	if entries[0].Data["sizeHuman"] != "2.0 KiB" {
		t.Errorf("Data.sizeHuman = %v, want %q", entries[0].Data["sizeHuman"], "2.0 KiB")
	}
}

func TestEventTypeValid(t *testing.T) {
	for _, et := range []EventType{EventTypeDownloadCompleted, EventTypeDownloadFailed, EventTypeDownloadCancelled, EventTypeCatalogSynced} {
		if !et.Valid() {
			t.Errorf("%q should be valid", et)
		}
	}
	if EventType("grabbed").Valid() {
		t.Error("unknown event type reported valid")
	}
}
