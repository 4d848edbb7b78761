package document

import (
	"time"
)

// Document is the canonical form every connector normalizes into.
type Document struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	SourceID     string    `json:"source_id"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	Author       string    `json:"author"`
	URL          string    `json:"url"`
	Tags         []string  `json:"tags,omitempty"`
	Score        int       `json:"score"`
	CommentCount int       `json:"comment_count"`
	PublishedAt  time.Time `json:"published_at"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// EntityMention is a single named entity observed in a document.
type EntityMention struct {
	Text  string `json:"text"`
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// Entity kinds produced by the analyzer.
const (
	EntityKindProper  = "proper"
	EntityKindHashtag = "hashtag"
	EntityKindMention = "mention"
	EntityKindTicker  = "ticker"
)

// Signal holds the analysis output derived from one document.
type Signal struct {
	DocumentID string          `json:"document_id"`
	Source     string          `json:"source"`
	Sentiment  float64         `json:"sentiment"`
	Engagement float64         `json:"engagement"`
	Keywords   []string        `json:"keywords,omitempty"`
	Entities   []EntityMention `json:"entities,omitempty"`
	ObservedAt time.Time       `json:"observed_at"`
}

// Filter defines criteria for querying stored documents.
type Filter struct {
	Source string
	Query  string
	Since  time.Time
	Until  time.Time
	Limit  int
}
