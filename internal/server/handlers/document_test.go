package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"narratrack/internal/domain/document"
)

type fakeDocumentFinder struct {
	docs       []document.Document
	lastFilter document.Filter
}

func (f *fakeDocumentFinder) FindDocuments(_ context.Context, filter document.Filter) ([]document.Document, error) {
	f.lastFilter = filter
	return f.docs, nil
}

func TestGetDocuments(t *testing.T) {
	finder := &fakeDocumentFinder{
		docs: []document.Document{{ID: "d1", Source: "rss", Title: "hello"}},
	}
	h := NewDocumentHandler(finder)

	req := httptest.NewRequest(http.MethodGet, "/documents?source=rss&q=chip&limit=10", nil)
	rec := httptest.NewRecorder()

	h.GetDocuments(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got []document.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)

	require.Equal(t, "rss", finder.lastFilter.Source)
	require.Equal(t, "chip", finder.lastFilter.Query)
	require.Equal(t, 10, finder.lastFilter.Limit)
}

func TestGetDocumentsInvalidSince(t *testing.T) {
	h := NewDocumentHandler(&fakeDocumentFinder{})

	req := httptest.NewRequest(http.MethodGet, "/documents?since=lastweek", nil)
	rec := httptest.NewRecorder()

	h.GetDocuments(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
