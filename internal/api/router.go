package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/fundscope/internal/api/handlers"
	"github.com/wonny/fundscope/pkg/logger"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(
	snapshotHandler *handlers.SnapshotHandler,
	fundHandler *handlers.FundHandler,
	stream *handlers.StatusStream,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// Progress stream
	r.HandleFunc("/ws/snapshots/status", stream.Serve).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Snapshot endpoints
	api.HandleFunc("/snapshots", snapshotHandler.CreateSnapshot).Methods("POST")
	api.HandleFunc("/snapshots", snapshotHandler.ListSnapshots).Methods("GET")
	api.HandleFunc("/snapshots/status", snapshotHandler.GetStatus).Methods("GET")
	api.HandleFunc("/snapshots/latest", snapshotHandler.GetLatest).Methods("GET")
	api.HandleFunc("/snapshots/latest/funds", snapshotHandler.GetLatestFunds).Methods("GET")

	// Fund endpoints
	api.HandleFunc("/funds/{code:[0-9]{6}}", fundHandler.GetFund).Methods("GET")

	// Task log
	api.HandleFunc("/build-logs", snapshotHandler.GetBuildLogs).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "fundscope-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
