package api

import (
	"net/http"
	"runtime"

	"github.com/banshee-data/lidar-active-learning/internal/httputil"
	"github.com/banshee-data/lidar-active-learning/internal/version"
)

// VersionResponse is returned by GET /api/version.
type VersionResponse struct {
	Version   string `json:"version"`
	GitSHA    string `json:"git_sha"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, VersionResponse{
		Version:   version.Version,
		GitSHA:    version.GitSHA,
		BuildTime: version.BuildTime,
		GoVersion: runtime.Version(),
	})
}
