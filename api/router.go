package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// NewRouter registers every route on a gorilla/mux router.
func NewRouter(svc Service, log zerolog.Logger) *mux.Router {
	h := &Handlers{svc: svc, log: log.With().Str("component", "api").Logger()}

	r := mux.NewRouter()
	r.Use(loggingMiddleware(h.log))

	r.HandleFunc("/analyze", h.HandleAnalyze).Methods(http.MethodPost)

	entries := r.PathPrefix("/entries").Subrouter()
	entries.HandleFunc("", h.HandleCommit).Methods(http.MethodPost)
	entries.HandleFunc("/today", h.HandleToday).Methods(http.MethodGet)
	entries.HandleFunc("/history", h.HandleHistory).Methods(http.MethodGet)
	entries.HandleFunc("/export.csv", h.HandleExport).Methods(http.MethodGet)

	r.HandleFunc("/profile", h.HandleGetProfile).Methods(http.MethodGet)
	r.HandleFunc("/profile", h.HandlePutProfile).Methods(http.MethodPut)
	r.HandleFunc("/trainer", h.HandleGetTrainer).Methods(http.MethodGet)
	r.HandleFunc("/trainer", h.HandlePutTrainer).Methods(http.MethodPut)
	r.HandleFunc("/reset", h.HandleReset).Methods(http.MethodPost)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(log zerolog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
