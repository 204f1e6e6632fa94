package handlers

import (
	"net/http"
	"time"

	"media-indexer/internal/indexer"

	"github.com/gorilla/mux"
)

// Indexer is the part of the orchestrator the ops surface reads.
type Indexer interface {
	State() indexer.State
	Stats() indexer.Status
}

type Handlers struct {
	indexer   Indexer
	startedAt time.Time
}

func New(idx Indexer) *Handlers {
	return &Handlers{
		indexer:   idx,
		startedAt: time.Now(),
	}
}

// Router registers every ops route on a new router.
func (h *Handlers) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HealthCheck).Methods("GET").Name("health")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET").Name("healthz")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD").Name("livez")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET").Name("readyz")
	r.HandleFunc("/version", h.GetVersion).Methods("GET").Name("version")
	r.Handle("/metrics", h.MetricsHandler()).Methods("GET").Name("metrics")

	r.HandleFunc("/api/stats", h.GetStats).Methods("GET").Name("stats")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	return r
}
