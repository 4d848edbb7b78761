package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"narratrack/internal/service/analysis"
)

func TestAnalyze(t *testing.T) {
	h := NewAnalyzeHandler(analysis.NewAnalyzer())

	body := `{"text": "Markets rally as Nvidia posts record profits. Nvidia stock soars."}`
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Analyze(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got analyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	require.Greater(t, got.Sentiment, 0.0)
	require.NotEmpty(t, got.Keywords)
	require.NotEmpty(t, got.Entities)
}

func TestAnalyzeMissingText(t *testing.T) {
	h := NewAnalyzeHandler(analysis.NewAnalyzer())

	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.Analyze(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeInvalidBody(t *testing.T) {
	h := NewAnalyzeHandler(analysis.NewAnalyzer())

	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader("not json"))
	rec := httptest.NewRecorder()

	h.Analyze(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
