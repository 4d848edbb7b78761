package analysis

import (
	"context"
	"math"

	"narratrack/internal/domain/document"
	"narratrack/internal/processing"
)

// Analyzer derives a signal (sentiment, entities, keywords, engagement)
// from a normalized document. It implements narrative.Analyzer.
type Analyzer struct {
	keywordLimit  int
	keywordMinLen int
	maxEntities   int
}

// NewAnalyzer creates an analyzer with default extraction limits.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		keywordLimit:  10,
		keywordMinLen: 3,
		maxEntities:   12,
	}
}

// Analyze runs sentiment scoring, entity extraction and keyword
// extraction over the document.
func (a *Analyzer) Analyze(_ context.Context, doc document.Document) (document.Signal, error) {
	text := doc.Title + " " + doc.Body

	observedAt := doc.PublishedAt
	if observedAt.IsZero() {
		observedAt = doc.FetchedAt
	}

	return document.Signal{
		DocumentID: doc.ID,
		Source:     doc.Source,
		Sentiment:  ScoreSentiment(text),
		Engagement: engagementScore(doc.Score, doc.CommentCount),
		Keywords:   processing.ExtractKeywords(text, a.keywordLimit, a.keywordMinLen),
		Entities:   ExtractEntities(doc.Title, doc.Body, a.maxEntities),
		ObservedAt: observedAt,
	}, nil
}

// engagementScore maps raw platform numbers onto [0, 1]. Comments weigh
// double since they indicate active discussion rather than passive
// approval.
func engagementScore(score, comments int) float64 {
	raw := float64(score) + 2*float64(comments)
	if raw <= 0 {
		return 0
	}
	// log10(1+10000) ~= 4, so anything past ~10k interactions pegs at 1.
	v := math.Log10(1+raw) / 4
	if v > 1 {
		v = 1
	}
	return v
}
