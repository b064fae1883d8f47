package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lidar-active-learning/internal/lidar/catalog"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/selection"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/session"
	"github.com/banshee-data/lidar-active-learning/internal/monitoring"
	"github.com/banshee-data/lidar-active-learning/internal/testutil"
)

func init() {
	monitoring.SetLogger(nil)
}

func newRunner(t *testing.T) *session.Runner {
	t.Helper()
	r, err := session.NewRunner(session.Options{
		Catalog:   catalog.New(80, catalog.NewRand(5)),
		Rand:      catalog.NewRand(6),
		Budget:    10,
		Threshold: 0.5,
	})
	require.NoError(t, err)
	return r
}

type fakeAPI struct{}

func (fakeAPI) AttachRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, testutil.NewTestRequest(http.MethodGet, path))
	return w
}

func TestUncertaintyTimelineChart(t *testing.T) {
	r := newRunner(t)
	for range 3 {
		r.Step()
	}
	v := r.Snapshot()

	bar := uncertaintyTimelineChart(v)
	bar.Validate()
	require.Len(t, bar.MultiSeries, 1)
	assert.Equal(t, "uncertainty", bar.MultiSeries[0].Name)
	assert.Len(t, bar.XAxisList[0].Data, selection.TimelineLimit)
}

func TestFrameCharts(t *testing.T) {
	r := newRunner(t)
	rec, _ := r.Step()

	models := modelChart(rec)
	models.Validate()
	require.Len(t, models.MultiSeries, 2)
	assert.Equal(t, "uncertainty", models.MultiSeries[0].Name)
	assert.Equal(t, "confidence", models.MultiSeries[1].Name)
	assert.Len(t, models.XAxisList[0].Data, 5)

	objects := objectChart(rec)
	objects.Validate()
	require.Len(t, objects.MultiSeries, 1)
	assert.Len(t, objects.XAxisList[0].Data, rec.Frame.ObjectCount)

	metrics := metricsChart(rec)
	metrics.Validate()
	assert.Len(t, metrics.XAxisList[0].Data, 4)
}

func TestRenderDashboard(t *testing.T) {
	r := newRunner(t)

	page, err := renderDashboard(r.Snapshot())
	require.NoError(t, err)
	assert.Contains(t, string(page), "Frame Uncertainty")
	assert.NotContains(t, string(page), "Ensemble Models", "no frame processed yet")

	r.Step()
	page, err = renderDashboard(r.Snapshot())
	require.NoError(t, err)
	assert.Contains(t, string(page), "Ensemble Models")
	assert.Contains(t, string(page), "Object Uncertainty")
	assert.NotContains(t, string(page), "Ensemble Metrics")

	r.SetShowDetails(true)
	page, err = renderDashboard(r.Snapshot())
	require.NoError(t, err)
	assert.Contains(t, string(page), "Ensemble Metrics")
}

func TestWebServerRoutes(t *testing.T) {
	r := newRunner(t)
	ws := NewWebServer(WebServerConfig{Address: "127.0.0.1:0", Runner: r, API: fakeAPI{}})
	h := ws.Handler()

	w := get(t, h, "/health")
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, false, health["ticking"])

	w = get(t, h, "/")
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	assert.Contains(t, w.Body.String(), "LiDAR Active Learning")
	assert.Contains(t, w.Body.String(), "marker-pending")

	w = get(t, h, "/dashboard")
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

	w = get(t, h, "/api/ping")
	assert.Equal(t, "pong", w.Body.String())

	w = get(t, h, "/missing")
	testutil.AssertStatusCode(t, w.Code, http.StatusNotFound)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, testutil.NewTestRequest(http.MethodPost, "/dashboard"))
	testutil.AssertStatusCode(t, w.Code, http.StatusMethodNotAllowed)
}

func TestStatusPageShowsAnalysis(t *testing.T) {
	r, err := session.NewRunner(session.Options{
		Catalog:   catalog.New(10, catalog.NewRand(5)),
		Rand:      testutil.ConstRand(0.9),
		Budget:    5,
		Threshold: 0.65,
	})
	require.NoError(t, err)
	r.Step()
	r.Step()
	a, err := r.OpenAnalysis(0)
	require.NoError(t, err)

	w := get(t, NewWebServer(WebServerConfig{Runner: r}).Handler(), "/")
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	body := w.Body.String()
	assert.Contains(t, body, "Analysis: frame 000000")
	assert.Contains(t, body, "marker-analyzing")
	assert.Contains(t, body, "marker-current")
	assert.Contains(t, body, a.Recommendation)
}

func TestStatusPageSelectedFramesOpenAnalysis(t *testing.T) {
	r, err := session.NewRunner(session.Options{
		Catalog:   catalog.New(10, catalog.NewRand(5)),
		Rand:      testutil.ConstRand(0.9),
		Budget:    5,
		Threshold: 0.65,
	})
	require.NoError(t, err)
	r.Step()
	r.Step()
	require.Equal(t, selection.MarkerCurrent, r.Snapshot().Timeline[1])

	w := get(t, NewWebServer(WebServerConfig{Runner: r}).Handler(), "/")
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	body := w.Body.String()

	// Frame 1 is current and selected: clickable marker plus the button.
	assert.Equal(t, 2, strings.Count(body, "/api/analysis/1"))
	assert.Contains(t, body, "View analysis")
	assert.Equal(t, 1, strings.Count(body, "/api/analysis/0"))
	assert.NotContains(t, body, "/api/analysis/2", "pending frames are not clickable")
}

func TestMiddlewareWraps(t *testing.T) {
	called := false
	mw := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			next.ServeHTTP(w, r)
		})
	}
	ws := NewWebServer(WebServerConfig{Runner: newRunner(t), Middleware: mw})
	get(t, ws.Handler(), "/health")
	assert.True(t, called)
}

func TestStartStopsOnCancel(t *testing.T) {
	ws := NewWebServer(WebServerConfig{Address: "127.0.0.1:0", Runner: newRunner(t)})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ws.Start(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
