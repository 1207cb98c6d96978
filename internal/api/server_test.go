package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/reelvault/reelvault/internal/catalog"
	"github.com/reelvault/reelvault/internal/config"
	"github.com/reelvault/reelvault/internal/database/sqlc"
	"github.com/reelvault/reelvault/internal/download"
	"github.com/reelvault/reelvault/internal/health"
	"github.com/reelvault/reelvault/internal/history"
	"github.com/reelvault/reelvault/internal/logger"
	"github.com/reelvault/reelvault/internal/progress"
	"github.com/reelvault/reelvault/internal/settings"
	"github.com/reelvault/reelvault/internal/testutil"
	"github.com/reelvault/reelvault/internal/websocket"
)

type staticLogs struct {
	entries []logger.LogEntry
}

func (s staticLogs) GetRecentLogs() []logger.LogEntry { return s.entries }
func (s staticLogs) GetLogFilePath() string          { return "" }

type testServer struct {
	*Server
	tdb     *testutil.TestDB
	manager *download.Manager
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tdb := testutil.NewTestDB(t)
	log := testutil.NopLogger()
	dir := filepath.Join(tdb.Dir, "downloads")

	manager, err := download.NewManager(download.Config{
		DownloadDir:      dir,
		MaxConcurrent:    2,
		MaxRetries:       0,
		ProgressInterval: 50 * time.Millisecond,
		StartPaused:      true,
	}, log)
	if err != nil {
		t.Fatalf("Failed to create download manager: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = manager.Shutdown(ctx)
	})

	progressMgr := progress.NewManager(nil, log)
	catalogSvc := catalog.NewService(tdb.Conn, nil, manager, progressMgr, catalog.Options{DefaultCollection: "feature_films"}, log)
	t.Cleanup(catalogSvc.Close)

	settingsSvc := settings.NewService(tdb.Conn, settings.Settings{DownloadPath: dir, MaxConcurrent: 2, AutoStart: false}, log)
	settingsSvc.SetApplier(manager)

	svc := Services{
		Downloads: manager,
		Catalog:   catalogSvc,
		History:   history.NewService(tdb.Conn, log),
		Health:    health.NewService(manager.DownloadDir, tdb.DB, log),
		Settings:  settingsSvc,
		Progress:  progressMgr,
		Logs:      staticLogs{entries: []logger.LogEntry{{Level: "info", Message: "one"}, {Level: "warn", Message: "two"}}},
	}

	server := NewServer(config.Default(), websocket.NewHub(log), svc, log)
	return &testServer{Server: server, tdb: tdb, manager: manager}
}

func (ts *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	ts.echo.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) seedVideo(t *testing.T, id, title string) {
	t.Helper()
	err := ts.tdb.Queries.UpsertVideo(context.Background(), sqlc.UpsertVideoParams{
		ID:              id,
		Title:           title,
		PublicDate:      sql.NullTime{Time: time.Now().UTC(), Valid: true},
		ThumbnailUrl:    "https://archive.org/services/img/" + id,
		PrimaryVideoUrl: "https://ia800.us.archive.org/1/items/" + id + "/" + id + ".mp4",
		PrimaryFormat:   "h.264",
		Collection:      "feature_films",
	})
	if err != nil {
		t.Fatalf("Failed to seed video: %v", err)
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("Failed to parse response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("HealthCheck status = %d, want %d", rec.Code, http.StatusOK)
	}

	var response map[string]string
	decode(t, rec, &response)
	if response["status"] != "ok" {
		t.Errorf("HealthCheck status = %q, want %q", response["status"], "ok")
	}
}

func TestGetStatus(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedVideo(t, "metropolis", "Metropolis")

	rec := ts.do(http.MethodGet, "/api/v1/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GetStatus status = %d, want %d", rec.Code, http.StatusOK)
	}

	var response map[string]any
	decode(t, rec, &response)

	for _, field := range []string{"version", "startTime", "downloads", "collection"} {
		if _, ok := response[field]; !ok {
			t.Errorf("GetStatus missing %s field", field)
		}
	}
	if response["videoCount"] != float64(1) {
		t.Errorf("videoCount = %v, want 1", response["videoCount"])
	}
	downloads, _ := response["downloads"].(map[string]any)
	if downloads["state"] != string(download.StatePaused) {
		t.Errorf("downloads.state = %v, want %q", downloads["state"], download.StatePaused)
	}
}

func TestSubmitDownload(t *testing.T) {
	ts := setupTestServer(t)

	body := `{"id":"raw-1","url":"https://example.org/a.mp4","filename":"a.mp4","priority":1}`
	rec := ts.do(http.MethodPost, "/api/v1/downloads", body)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("Submit status = %d, want %d: %s", rec.Code, http.StatusAccepted, rec.Body.String())
	}
	var accepted struct {
		ID       string `json:"id"`
		Position int    `json:"position"`
	}
	decode(t, rec, &accepted)
	if accepted.ID != "raw-1" || accepted.Position != 1 {
		t.Errorf("Submit response = %+v, want raw-1 at position 1", accepted)
	}

	rec = ts.do(http.MethodPost, "/api/v1/downloads", body)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate Submit status = %d, want %d", rec.Code, http.StatusConflict)
	}

	rec = ts.do(http.MethodPost, "/api/v1/downloads", `{"id":"raw-2","url":"https://example.org/b.mp4","filename":"../b.mp4"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid Submit status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var errBody map[string]string
	decode(t, rec, &errBody)
	if errBody["error"] == "" {
		t.Error("invalid Submit response has no error message")
	}

	rec = ts.do(http.MethodGet, "/api/v1/downloads/queue", "")
	var snap download.Snapshot
	decode(t, rec, &snap)
	if snap.QueueSize != 1 || snap.Queue[0].ID != "raw-1" {
		t.Errorf("queue = %+v, want raw-1 only", snap.Queue)
	}

	rec = ts.do(http.MethodDelete, "/api/v1/downloads/raw-1", "")
	if !strings.Contains(rec.Body.String(), `"cancelled":true`) {
		t.Errorf("cancel response = %s, want cancelled true", rec.Body.String())
	}
	rec = ts.do(http.MethodDelete, "/api/v1/downloads/raw-1", "")
	if !strings.Contains(rec.Body.String(), `"cancelled":false`) {
		t.Errorf("second cancel response = %s, want cancelled false", rec.Body.String())
	}
}

func TestPauseResumeStop(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(http.MethodPost, "/api/v1/downloads/resume", "")
	var snap download.Snapshot
	decode(t, rec, &snap)
	if snap.State != download.StateIdle {
		t.Errorf("after resume state = %q, want %q", snap.State, download.StateIdle)
	}

	rec = ts.do(http.MethodPost, "/api/v1/downloads/pause", "")
	decode(t, rec, &snap)
	if snap.State != download.StatePaused {
		t.Errorf("after pause state = %q, want %q", snap.State, download.StatePaused)
	}

	ts.do(http.MethodPost, "/api/v1/downloads/resume", "")
	rec = ts.do(http.MethodPost, "/api/v1/downloads/stop", "")
	decode(t, rec, &snap)
	if snap.State != download.StatePaused {
		t.Errorf("after stop state = %q, want %q", snap.State, download.StatePaused)
	}
}

func TestVideoDownloadQueuesRequest(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedVideo(t, "nosferatu", "Nosferatu")

	rec := ts.do(http.MethodPost, "/api/v1/videos/nosferatu/download", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("video download status = %d, want %d: %s", rec.Code, http.StatusAccepted, rec.Body.String())
	}

	rec = ts.do(http.MethodGet, "/api/v1/videos/nosferatu", "")
	if !strings.Contains(rec.Body.String(), `"downloadStatus":"queued"`) {
		t.Errorf("video = %s, want queued status", rec.Body.String())
	}

	snap := ts.manager.Snapshot()
	if snap.QueueSize != 1 || snap.Queue[0].ID != "nosferatu" {
		t.Errorf("queue = %+v, want nosferatu", snap.Queue)
	}

	rec = ts.do(http.MethodPost, "/api/v1/videos/missing/download", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing video download status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestSettings(t *testing.T) {
	ts := setupTestServer(t)
	newDir := filepath.Join(ts.tdb.Dir, "films")

	rec := ts.do(http.MethodPut, "/api/v1/settings", `{"downloadPath":"`+newDir+`","maxConcurrent":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update settings status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if got := ts.manager.DownloadDir(); got != newDir {
		t.Errorf("manager download dir = %q, want %q", got, newDir)
	}

	rec = ts.do(http.MethodGet, "/api/v1/settings", "")
	var got settings.Settings
	decode(t, rec, &got)
	if got.MaxConcurrent != 3 || got.DownloadPath != newDir {
		t.Errorf("settings = %+v, want maxConcurrent 3 at %s", got, newDir)
	}
}

func TestSystemEndpoints(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(http.MethodGet, "/api/v1/system/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("system health status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	rec = ts.do(http.MethodGet, "/api/v1/system/logs?limit=1", "")
	var logs []logger.LogEntry
	decode(t, rec, &logs)
	if len(logs) != 1 || logs[0].Message != "two" {
		t.Errorf("logs = %+v, want only the newest entry", logs)
	}

	rec = ts.do(http.MethodGet, "/api/v1/history", "")
	if rec.Code != http.StatusOK {
		t.Errorf("history status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = ts.do(http.MethodGet, "/api/v1/activities", "")
	if rec.Code != http.StatusOK {
		t.Errorf("activities status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestErrorsRenderAsJSON(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(http.MethodGet, "/api/v1/scheduler/tasks", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unregistered route status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	var body map[string]string
	decode(t, rec, &body)
	if body["error"] == "" {
		t.Errorf("error body = %s, want an error field", rec.Body.String())
	}
}
