package handlers

import (
	"net/http"
)

// ConnectorLister reports which source connectors are registered.
type ConnectorLister interface {
	Connectors() []string
}

// SourceHandler handles source-related HTTP requests.
type SourceHandler struct {
	pipeline ConnectorLister
}

// NewSourceHandler creates a new source handler.
func NewSourceHandler(pipeline ConnectorLister) *SourceHandler {
	return &SourceHandler{
		pipeline: pipeline,
	}
}

// GetSources lists the registered source connectors.
func (h *SourceHandler) GetSources(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"sources": h.pipeline.Connectors(),
	})
}
