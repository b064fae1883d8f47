package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lidar-active-learning/internal/db"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/catalog"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/explain"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/selection"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/session"
	"github.com/banshee-data/lidar-active-learning/internal/lidar/storage/sqlite"
	"github.com/banshee-data/lidar-active-learning/internal/monitoring"
	"github.com/banshee-data/lidar-active-learning/internal/testutil"
	"github.com/banshee-data/lidar-active-learning/internal/version"
)

func init() {
	monitoring.SetLogger(nil)
}

// ConstRand(0.9) puts every frame at uncertainty 0.74, above the default
// threshold.
func setupTestServer(t *testing.T) (*Server, *session.Runner) {
	t.Helper()
	r, err := session.NewRunner(session.Options{
		Catalog:   catalog.New(8, catalog.NewRand(1)),
		Rand:      testutil.ConstRand(0.9),
		Budget:    3,
		Threshold: 0.65,
	})
	require.NoError(t, err)
	return NewServer(r, nil, nil), r
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
		req = httptest.NewRequest(method, path, &buf)
	} else {
		req = testutil.NewTestRequest(method, path)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestStateAndCatalog(t *testing.T) {
	s, _ := setupTestServer(t)
	mux := s.ServeMux()

	w := do(t, mux, http.MethodGet, "/api/state", nil)
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	v := decode[session.View](t, w)
	assert.False(t, v.Ticking)
	assert.Equal(t, 8, v.CatalogSize)
	assert.Equal(t, 500, v.SpeedMs)
	assert.Nil(t, v.Current)

	w = do(t, mux, http.MethodGet, "/api/catalog", nil)
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	frames := decode[[]catalog.Frame](t, w)
	require.Len(t, frames, 8)
	assert.Equal(t, "000007", frames[7].ID)

	for _, path := range []string{"/api/state", "/api/catalog", "/api/version"} {
		w = do(t, mux, http.MethodPost, path, nil)
		testutil.AssertStatusCode(t, w.Code, http.StatusMethodNotAllowed)
	}
}

func TestTickingControls(t *testing.T) {
	s, r := setupTestServer(t)
	mux := s.ServeMux()

	w := do(t, mux, http.MethodPost, "/api/start", nil)
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	assert.True(t, decode[session.View](t, w).Ticking)

	w = do(t, mux, http.MethodPost, "/api/pause", nil)
	assert.False(t, decode[session.View](t, w).Ticking)

	w = do(t, mux, http.MethodPost, "/api/toggle", nil)
	assert.True(t, decode[session.View](t, w).Ticking)

	r.Step()
	w = do(t, mux, http.MethodPost, "/api/reset", nil)
	v := decode[session.View](t, w)
	assert.False(t, v.Ticking)
	assert.Equal(t, 0, v.State.ProcessedFrames)

	for _, path := range []string{"/api/start", "/api/pause", "/api/toggle", "/api/reset", "/api/step"} {
		w = do(t, mux, http.MethodGet, path, nil)
		testutil.AssertStatusCode(t, w.Code, http.StatusMethodNotAllowed)
	}
}

func TestStep(t *testing.T) {
	s, _ := setupTestServer(t)
	mux := s.ServeMux()

	w := do(t, mux, http.MethodPost, "/api/step", nil)
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	resp := decode[StepResponse](t, w)
	assert.Equal(t, 0, resp.FrameIndex)
	assert.Equal(t, "000000", resp.FrameID)
	assert.Equal(t, string(selection.DecisionSelected), resp.Decision)
	assert.InDelta(t, 0.74, resp.Uncertainty, 1e-9)

	resp = decode[StepResponse](t, do(t, mux, http.MethodPost, "/api/step", nil))
	assert.Equal(t, 1, resp.FrameIndex)
}

func TestSpeedAndThreshold(t *testing.T) {
	s, _ := setupTestServer(t)
	mux := s.ServeMux()

	tests := []struct {
		name string
		path string
		body interface{}
		want int
	}{
		{"speed ok", "/api/speed", map[string]int{"speed_ms": 250}, http.StatusOK},
		{"speed too fast", "/api/speed", map[string]int{"speed_ms": 50}, http.StatusBadRequest},
		{"speed too slow", "/api/speed", map[string]int{"speed_ms": 5000}, http.StatusBadRequest},
		{"speed overflowing duration", "/api/speed", map[string]int64{"speed_ms": 500 + 1<<58}, http.StatusBadRequest},
		{"speed negative", "/api/speed", map[string]int{"speed_ms": -500}, http.StatusBadRequest},
		{"speed missing", "/api/speed", map[string]int{}, http.StatusBadRequest},
		{"speed unknown field", "/api/speed", map[string]int{"speed": 250}, http.StatusBadRequest},
		{"threshold ok", "/api/threshold", map[string]float64{"threshold": 0.75}, http.StatusOK},
		{"threshold off grid", "/api/threshold", map[string]float64{"threshold": 0.73}, http.StatusBadRequest},
		{"threshold too low", "/api/threshold", map[string]float64{"threshold": 0.1}, http.StatusBadRequest},
		{"threshold missing", "/api/threshold", map[string]float64{}, http.StatusBadRequest},
		{"details ok", "/api/details", map[string]bool{"show": true}, http.StatusOK},
		{"details missing", "/api/details", map[string]bool{}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, mux, http.MethodPut, tt.path, tt.body)
			testutil.AssertStatusCode(t, w.Code, tt.want)
			if tt.want != http.StatusOK {
				assert.Contains(t, decode[map[string]string](t, w), "error")
			}
		})
	}

	v := decode[session.View](t, do(t, mux, http.MethodGet, "/api/state", nil))
	assert.Equal(t, 250, v.SpeedMs)
	assert.InDelta(t, 0.75, v.State.Threshold, 1e-12)
	assert.True(t, v.ShowDetails)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/api/speed", bytes.NewBufferString("{not json")))
	testutil.AssertStatusCode(t, w.Code, http.StatusBadRequest)

	for _, path := range []string{"/api/speed", "/api/threshold", "/api/details"} {
		w = do(t, mux, http.MethodPost, path, nil)
		testutil.AssertStatusCode(t, w.Code, http.StatusMethodNotAllowed)
	}
}

func TestAnalysisPanel(t *testing.T) {
	s, r := setupTestServer(t)
	mux := s.ServeMux()

	w := do(t, mux, http.MethodGet, "/api/analysis", nil)
	testutil.AssertStatusCode(t, w.Code, http.StatusNotFound)

	r.Step() // frame 0 selected
	require.NoError(t, r.SetThreshold(0.90))
	r.Step() // frame 1 below threshold

	tests := []struct {
		name string
		path string
		want int
	}{
		{"selected", "/api/analysis/0", http.StatusOK},
		{"not selected", "/api/analysis/1", http.StatusConflict},
		{"out of range", "/api/analysis/42", http.StatusNotFound},
		{"negative", "/api/analysis/-1", http.StatusNotFound},
		{"not a number", "/api/analysis/abc", http.StatusBadRequest},
		{"missing", "/api/analysis/", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, mux, http.MethodPost, tt.path, nil)
			testutil.AssertStatusCode(t, w.Code, tt.want)
		})
	}

	w = do(t, mux, http.MethodGet, "/api/analysis", nil)
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	a := decode[explain.FrameAnalysis](t, w)
	assert.Equal(t, "000000", a.FrameID)
	assert.True(t, a.ShouldSelect)

	w = do(t, mux, http.MethodDelete, "/api/analysis", nil)
	testutil.AssertStatusCode(t, w.Code, http.StatusNoContent)
	w = do(t, mux, http.MethodGet, "/api/analysis", nil)
	testutil.AssertStatusCode(t, w.Code, http.StatusNotFound)

	w = do(t, mux, http.MethodGet, "/api/analysis/0", nil)
	testutil.AssertStatusCode(t, w.Code, http.StatusMethodNotAllowed)
	w = do(t, mux, http.MethodPut, "/api/analysis", nil)
	testutil.AssertStatusCode(t, w.Code, http.StatusMethodNotAllowed)
}

func TestVersion(t *testing.T) {
	s, _ := setupTestServer(t)
	w := do(t, s.ServeMux(), http.MethodGet, "/api/version", nil)
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	resp := decode[VersionResponse](t, w)
	assert.Equal(t, version.Version, resp.Version)
	assert.NotEmpty(t, resp.GoVersion)
}

func TestRunsDisabled(t *testing.T) {
	s, _ := setupTestServer(t)
	mux := s.ServeMux()
	testutil.AssertStatusCode(t, do(t, mux, http.MethodGet, "/api/runs", nil).Code, http.StatusNotFound)
	testutil.AssertStatusCode(t, do(t, mux, http.MethodGet, "/api/runs/x/selections", nil).Code, http.StatusNotFound)
}

func TestRunsFromAuditLog(t *testing.T) {
	database, err := db.NewDB(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer database.Close()
	store := sqlite.NewRunStore(database.DB)

	r, err := session.NewRunner(session.Options{
		Catalog:   catalog.New(5, catalog.NewRand(3)),
		Rand:      testutil.ConstRand(0.9),
		Budget:    2,
		Threshold: 0.65,
	})
	require.NoError(t, err)
	rec := sqlite.NewRecorder(store, nil, sqlite.RunInfo{Seed: 3, CatalogSize: 5, LabelingBudget: 2})
	require.NoError(t, rec.Begin(0.65))

	_, events := r.Subscribe()
	for range 3 {
		r.Step()
		require.NoError(t, rec.Handle(<-events))
	}

	mux := NewServer(r, store, rec.RunID).ServeMux()

	w := do(t, mux, http.MethodGet, "/api/runs", nil)
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	runs := decode[[]sqlite.Run](t, w)
	require.Len(t, runs, 1)
	assert.Equal(t, rec.RunID(), runs[0].RunID)

	w = do(t, mux, http.MethodGet, "/api/runs/current", nil)
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	assert.Equal(t, 2, decode[sqlite.Run](t, w).SelectedFrames)

	w = do(t, mux, http.MethodGet, "/api/runs/current/selections", nil)
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	sels := decode[[]sqlite.Selection](t, w)
	require.Len(t, sels, 2)
	assert.Equal(t, "000000", sels[0].FrameID)
	assert.Equal(t, "000001", sels[1].FrameID)

	w = do(t, mux, http.MethodGet, "/api/runs/"+rec.RunID()+"/selections", nil)
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)

	testutil.AssertStatusCode(t, do(t, mux, http.MethodGet, "/api/runs/nope", nil).Code, http.StatusNotFound)
	testutil.AssertStatusCode(t, do(t, mux, http.MethodGet, "/api/runs/nope/selections", nil).Code, http.StatusNotFound)
	testutil.AssertStatusCode(t, do(t, mux, http.MethodGet, "/api/runs/current/other", nil).Code, http.StatusNotFound)
	testutil.AssertStatusCode(t, do(t, mux, http.MethodGet, "/api/runs?limit=x", nil).Code, http.StatusBadRequest)
	testutil.AssertStatusCode(t, do(t, mux, http.MethodDelete, "/api/runs/current", nil).Code, http.StatusMethodNotAllowed)

	require.NoError(t, rec.End())
	testutil.AssertStatusCode(t, do(t, mux, http.MethodGet, "/api/runs/current", nil).Code, http.StatusNotFound)
}

func TestLoggingMiddleware(t *testing.T) {
	var lines []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, format)
	})
	defer monitoring.SetLogger(nil)

	s, _ := setupTestServer(t)
	h := LoggingMiddleware(s.ServeMux())
	w := do(t, h, http.MethodGet, "/api/state", nil)
	testutil.AssertStatusCode(t, w.Code, http.StatusOK)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "[api]")

	assert.Contains(t, statusCodeColor(200), "200")
	assert.Contains(t, statusCodeColor(302), colorYellow)
	assert.Contains(t, statusCodeColor(404), colorBoldRed)
	assert.Equal(t, "100", statusCodeColor(100))
}
