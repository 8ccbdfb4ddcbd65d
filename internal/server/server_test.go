package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyperjump/manabu/internal/backend"
	"github.com/hyperjump/manabu/internal/config"
	"github.com/hyperjump/manabu/internal/models"
	"github.com/hyperjump/manabu/internal/remote"
	"github.com/hyperjump/manabu/internal/render"
	"github.com/hyperjump/manabu/internal/research"
)

type fakeBackend struct {
	subTopics string
	failOn    string
	err       error
}

func (f *fakeBackend) Decompose(ctx context.Context, topic string) (string, error) {
	return f.subTopics, f.err
}

func (f *fakeBackend) SearchContent(ctx context.Context, sub string) ([]models.ContentResult, error) {
	if sub == f.failOn {
		return nil, errors.New("index unavailable")
	}
	return []models.ContentResult{{Title: "Notes on " + sub, Score: 0.5}}, nil
}

func (f *fakeBackend) SearchVideos(ctx context.Context, sub string) ([]models.VideoResult, error) {
	return []models.VideoResult{{Title: "Video on " + sub, VideoID: "abc12345678"}}, nil
}

// newTestServer runs a backend over fb and returns a controller server calling it over HTTP.
func newTestServer(t *testing.T, fb *fakeBackend) http.Handler {
	t.Helper()
	be := backend.NewServer(backend.Dependencies{Decomposer: fb, Content: fb, Videos: fb},
		&config.BackendConfig{MaxUploadMB: 1}, zap.NewNop())
	srv := httptest.NewServer(be.Handler())
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Services.DecomposeURL = srv.URL + "/generate-sub-topics"
	cfg.Services.ContentURL = srv.URL + "/query-subtopic"
	cfg.Services.VideoURL = srv.URL + "/search_youtube"
	svc := remote.NewServices(cfg.Services)
	deps := research.Dependencies{Decompose: svc.Decompose, Content: svc.Content, Videos: svc.Videos}
	return NewServer(deps, cfg, zap.NewNop()).Handler()
}

func TestIndexAndStatic(t *testing.T) {
	h := newTestServer(t, &fakeBackend{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<div id="loader">`)
	assert.Contains(t, body, `<div id="results">`)
	assert.Contains(t, body, `action="/research"`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/menu.html", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<nav class="menu">`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func postForm(h http.Handler, topic string) *httptest.ResponseRecorder {
	form := url.Values{"topic": {topic}}
	req := httptest.NewRequest(http.MethodPost, "/research", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestResearchPage(t *testing.T) {
	h := newTestServer(t, &fakeBackend{subTopics: "Goroutines\nChannels", failOn: "Channels"})

	rec := postForm(h, "Go concurrency")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Equal(t, 2, strings.Count(body, `class="sub-topic`))
	assert.Contains(t, body, "<h2>Goroutines</h2>")
	assert.Contains(t, body, "Notes on Goroutines (Relevance Score: 0.50)")
	assert.Contains(t, body, `<div class="sub-topic sub-topic-failed">`)
	assert.Contains(t, body, "https://www.youtube.com/watch?v=abc12345678")

	on := strings.Index(body, "#loader{display:block}")
	off := strings.Index(body, "#loader{display:none}</style>")
	first := strings.Index(body, `class="sub-topic`)
	require.True(t, on >= 0 && off > on, "loader shown then hidden")
	assert.Less(t, off, first, "loader hidden before the first block")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(body), "</html>"))
}

func TestResearchPage_EmptyDecomposition(t *testing.T) {
	h := newTestServer(t, &fakeBackend{subTopics: "\n \n"})
	body := postForm(h, "nothing").Body.String()
	assert.Contains(t, body, render.NoSubTopicsText)
	assert.NotContains(t, body, `class="sub-topic`)
}

func TestResearchPage_DecompositionFailure(t *testing.T) {
	h := newTestServer(t, &fakeBackend{err: errors.New("model down")})
	body := postForm(h, "Go").Body.String()
	assert.Contains(t, body, research.DecomposeFailedText)
	assert.Contains(t, body, "#loader{display:none}")
}

func TestResearchPage_EmptyTopic(t *testing.T) {
	h := newTestServer(t, &fakeBackend{subTopics: "A"})
	body := postForm(h, "   ").Body.String()
	assert.Contains(t, body, EmptyTopicText)
	assert.NotContains(t, body, "#loader{display:block}")
}

func readEvents(t *testing.T, r io.Reader) []render.Event {
	t.Helper()
	var events []render.Event
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		var ev render.Event
		require.NoError(t, json.Unmarshal(sc.Bytes(), &ev))
		events = append(events, ev)
	}
	return events
}

func TestResearchAPI(t *testing.T) {
	h := newTestServer(t, &fakeBackend{subTopics: "A\nB\nC", failOn: "B"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/research", strings.NewReader(`{"topic":"letters"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))
	runID := rec.Header().Get("X-Run-Id")
	require.NotEmpty(t, runID)

	events := readEvents(t, rec.Body)
	require.NotEmpty(t, events)
	counts := map[string]int{}
	for _, ev := range events {
		counts[ev.Type]++
		assert.Equal(t, runID, ev.RunID)
	}
	assert.Equal(t, 2, counts[render.EventBusy])
	assert.Equal(t, 2, counts[render.EventRecord])
	assert.Equal(t, 1, counts[render.EventFailure])

	last := events[len(events)-1]
	assert.Equal(t, render.EventDone, last.Type)
	require.NotNil(t, last.Rendered)
	require.NotNil(t, last.Failed)
	assert.Equal(t, 3, *last.Rendered)
	assert.Equal(t, 1, *last.Failed)
}

func TestResearchAPI_BadRequests(t *testing.T) {
	h := newTestServer(t, &fakeBackend{})
	for _, body := range []string{`{"topic":""}`, `not json`} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/research", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestBackendOrigin(t *testing.T) {
	assert.Equal(t, "http://localhost:5000", backendOrigin("http://localhost:5000/generate-sub-topics"))
	assert.Equal(t, "", backendOrigin("not a url"))
}
