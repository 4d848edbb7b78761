package narrative

import (
	"time"
)

// Source identifies a document that contributed to a narrative.
type Source struct {
	Platform   string `json:"platform"`
	ExternalID string `json:"external_id"`
	URL        string `json:"url"`
}

// Narrative represents a storyline aggregated across sources over a
// time window.
type Narrative struct {
	ID                string             `json:"id"`
	Topic             string             `json:"topic"`
	Description       string             `json:"description"`
	Keywords          []string           `json:"keywords,omitempty"`
	Entities          map[string]float64 `json:"entities,omitempty"`
	Score             float64            `json:"score"`
	Velocity          float64            `json:"velocity"`
	Sentiment         float64            `json:"sentiment"`
	SentimentDelta    float64            `json:"sentiment_delta"`
	Mentions          int                `json:"mentions"`
	Sources           []Source           `json:"sources,omitempty"`
	FirstDetected     time.Time          `json:"first_detected"`
	LastUpdated       time.Time          `json:"last_updated"`
	RelatedNarratives []string           `json:"related_narratives,omitempty"`
}

// EntityActivity summarizes one entity's mentions over the current
// scan window compared with the window before it.
type EntityActivity struct {
	Entity        string
	Kind          string
	Mentions      int
	PrevMentions  int
	Sentiment     float64
	PrevSentiment float64
	Sources       []string
	DocumentIDs   []string
}

// Filter defines criteria for filtering narratives.
type Filter struct {
	MinScore float64
	Sources  []string
	Keyword  string
	Since    time.Time
	Limit    int
}
