package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"narratrack/internal/domain/document"
	"narratrack/internal/domain/narrative"
)

// AnalyzeHandler exposes ad-hoc text analysis.
type AnalyzeHandler struct {
	analyzer narrative.Analyzer
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(analyzer narrative.Analyzer) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzer: analyzer,
	}
}

type analyzeRequest struct {
	Text string `json:"text"`
}

type analyzeResponse struct {
	Sentiment float64                  `json:"sentiment"`
	Entities  []document.EntityMention `json:"entities"`
	Keywords  []string                 `json:"keywords"`
}

// Analyze runs the analysis pipeline over a single piece of text.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Text == "" {
		respondWithError(w, http.StatusBadRequest, "Missing text", nil)
		return
	}

	sig, err := h.analyzer.Analyze(r.Context(), document.Document{
		Body:      req.Text,
		FetchedAt: time.Now(),
	})
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Analysis failed", err)
		return
	}

	respondWithJSON(w, http.StatusOK, analyzeResponse{
		Sentiment: sig.Sentiment,
		Entities:  sig.Entities,
		Keywords:  sig.Keywords,
	})
}
