package handlers

import (
	"context"
	"net/http"
	"strconv"

	"narratrack/internal/domain/document"
)

// DocumentFinder is the slice of document storage the handler needs.
type DocumentFinder interface {
	FindDocuments(ctx context.Context, filter document.Filter) ([]document.Document, error)
}

// DocumentHandler handles document-related HTTP requests.
type DocumentHandler struct {
	store DocumentFinder
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(store DocumentFinder) *DocumentHandler {
	return &DocumentHandler{
		store: store,
	}
}

// GetDocuments returns stored documents matching the query parameters.
func (h *DocumentHandler) GetDocuments(w http.ResponseWriter, r *http.Request) {
	filter := document.Filter{
		Source: r.URL.Query().Get("source"),
		Query:  r.URL.Query().Get("q"),
	}

	if since := r.URL.Query().Get("since"); since != "" {
		ts, err := parseSince(since)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid since parameter", err)
			return
		}
		filter.Since = ts
	}

	if until := r.URL.Query().Get("until"); until != "" {
		ts, err := parseSince(until)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid until parameter", err)
			return
		}
		filter.Until = ts
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		filter.Limit, _ = strconv.Atoi(limit)
	}

	docs, err := h.store.FindDocuments(r.Context(), filter)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to get documents", err)
		return
	}

	respondWithJSON(w, http.StatusOK, docs)
}
