package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/seantiz/edgemgmt/internal/edgelet"
	"github.com/seantiz/edgemgmt/internal/mgmtapi"
)

// loggingMiddleware logs each request using the structured logger.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"api_version", r.URL.Query().Get(mgmtapi.VersionParam),
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// versionMiddleware rejects requests without a supported api-version.
func (s *Server) versionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := r.URL.Query().Get(mgmtapi.VersionParam)
		if v == "" {
			s.writeError(w, http.StatusBadRequest, "missing "+mgmtapi.VersionParam+" query parameter")
			return
		}
		if _, err := edgelet.ParseVersion(v); err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// faultMiddleware answers 503 until the configured number of faults is spent.
func (s *Server) faultMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.faults.Load() > 0 && s.faults.Add(-1) >= 0 {
			faultsInjected.Inc()
			s.logger.Warn("injecting fault", "method", r.Method, "path", r.URL.Path)
			s.writeError(w, http.StatusServiceUnavailable, "simulated runtime fault")
			return
		}
		next.ServeHTTP(w, r)
	})
}
