package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"narratrack/internal/adapter/storage"
	"narratrack/internal/domain/narrative"
)

// NarrativeHandler handles narrative-related HTTP requests.
type NarrativeHandler struct {
	detector narrative.Detector
}

// NewNarrativeHandler creates a new narrative handler.
func NewNarrativeHandler(detector narrative.Detector) *NarrativeHandler {
	return &NarrativeHandler{
		detector: detector,
	}
}

// GetNarratives returns narratives matching the query parameters.
func (h *NarrativeHandler) GetNarratives(w http.ResponseWriter, r *http.Request) {
	minScore, _ := strconv.ParseFloat(r.URL.Query().Get("min_score"), 64)
	if minScore <= 0 {
		minScore = 10.0
	}

	filter := narrative.Filter{
		MinScore: minScore,
		Keyword:  r.URL.Query().Get("keyword"),
	}

	if source := r.URL.Query().Get("source"); source != "" {
		filter.Sources = []string{source}
	}

	if since := r.URL.Query().Get("since"); since != "" {
		ts, err := parseSince(since)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid since parameter", err)
			return
		}
		filter.Since = ts
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		filter.Limit, _ = strconv.Atoi(limit)
	}

	narratives, err := h.detector.GetNarratives(r.Context(), filter)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get narratives", err)
		return
	}

	respondWithJSON(w, http.StatusOK, narratives)
}

// GetNarrative returns a specific narrative by ID.
func (h *NarrativeHandler) GetNarrative(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Missing narrative ID", nil)
		return
	}

	n, err := h.detector.GetNarrativeByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Narrative not found", nil)
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to get narrative", err)
		}
		return
	}

	respondWithJSON(w, http.StatusOK, n)
}

// parseSince accepts either an RFC3339 timestamp or a relative
// duration such as "24h".
func parseSince(raw string) (time.Time, error) {
	if d, err := time.ParseDuration(raw); err == nil {
		return time.Now().Add(-d), nil
	}
	return time.Parse(time.RFC3339, raw)
}
