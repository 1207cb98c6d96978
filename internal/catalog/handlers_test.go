package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/reelvault/reelvault/internal/download"
)

func newTestEcho(t *testing.T, svc *Service) *echo.Echo {
	t.Helper()
	e := echo.New()
	h := NewHandlers(svc)
	h.RegisterRoutes(e.Group("/api/v1/videos"))
	h.RegisterSyncRoutes(e.Group("/api/v1/catalog"))
	return e
}

func doRequest(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, want, rec.Body.String())
	}
}

func expectJSON(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	var got, expected any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	if err := json.Unmarshal([]byte(want), &expected); err != nil {
		t.Fatalf("decode expected %q: %v", want, err)
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("body = %s, want %s", rec.Body.String(), want)
	}
}

func TestHandlers_Videos(t *testing.T) {
	dl := &fakeDownloader{cancelOK: true}
	svc := newTestService(t, newFilmSource(), dl)
	syncFilms(t, svc)
	e := newTestEcho(t, svc)

	rec := doRequest(e, http.MethodGet, "/api/v1/videos?q=silent", "")
	expectStatus(t, rec, http.StatusOK)
	var videos []Video
	if err := json.Unmarshal(rec.Body.Bytes(), &videos); err != nil {
		t.Fatalf("decode videos: %v", err)
	}
	if len(videos) != 1 || videos[0].ID != "metropolis" {
		t.Errorf("search returned %+v, want only metropolis", videos)
	}

	rec = doRequest(e, http.MethodGet, "/api/v1/videos/nosferatu", "")
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"downloadStatus":"not_downloaded"`) {
		t.Errorf("body = %s, want not_downloaded status", rec.Body.String())
	}

	rec = doRequest(e, http.MethodGet, "/api/v1/videos/missing", "")
	expectStatus(t, rec, http.StatusNotFound)

	rec = doRequest(e, http.MethodPost, "/api/v1/videos/nosferatu/download", `{"priority":3}`)
	expectStatus(t, rec, http.StatusAccepted)
	expectJSON(t, rec, `{"id":"nosferatu","position":1}`)
	if len(dl.requests) != 1 || dl.requests[0].Priority != 3 {
		t.Errorf("requests = %+v, want one with priority 3", dl.requests)
	}

	rec = doRequest(e, http.MethodDelete, "/api/v1/videos/nosferatu/download", "")
	expectStatus(t, rec, http.StatusOK)
	expectJSON(t, rec, `{"cancelled":true}`)

	rec = doRequest(e, http.MethodGet, "/api/v1/videos/stats", "")
	expectStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `"total":2`) {
		t.Errorf("stats = %s, want total 2", rec.Body.String())
	}

	rec = doRequest(e, http.MethodDelete, "/api/v1/videos/metropolis", "")
	expectStatus(t, rec, http.StatusNoContent)
	rec = doRequest(e, http.MethodDelete, "/api/v1/videos/metropolis", "")
	expectStatus(t, rec, http.StatusNotFound)
}

func TestHandlers_DownloadDuplicate(t *testing.T) {
	dl := &fakeDownloader{submitErr: download.ErrDuplicateRequest}
	svc := newTestService(t, newFilmSource(), dl)
	syncFilms(t, svc)
	e := newTestEcho(t, svc)

	rec := doRequest(e, http.MethodPost, "/api/v1/videos/metropolis/download", "")
	expectStatus(t, rec, http.StatusConflict)
}

func TestHandlers_Sync(t *testing.T) {
	svc := newTestService(t, newFilmSource(), nil)
	e := newTestEcho(t, svc)

	if !svc.beginSync("feature_films") {
		t.Fatal("could not claim feature_films")
	}
	rec := doRequest(e, http.MethodPost, "/api/v1/catalog/sync", "")
	expectStatus(t, rec, http.StatusConflict)
	svc.endSync("feature_films")

	rec = doRequest(e, http.MethodPost, "/api/v1/catalog/sync", `{"collection":"silent_films"}`)
	expectStatus(t, rec, http.StatusAccepted)
	expectJSON(t, rec, `{"collection":"silent_films","activityId":"catalog-sync:silent_films"}`)
}
