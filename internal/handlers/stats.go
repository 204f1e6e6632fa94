package handlers

import (
	"net/http"

	"media-indexer/internal/indexer"
	"media-indexer/internal/startup"
)

// StatsResponse combines catalog counts, the last run and build info.
type StatsResponse struct {
	indexer.Status
	Build startup.BuildInfo `json:"build"`
}

// GetStats returns the catalog summary as JSON
func (h *Handlers) GetStats(w http.ResponseWriter, _ *http.Request) {
	response := StatsResponse{
		Status: h.indexer.Stats(),
		Build:  startup.GetBuildInfo(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, response)
}
