package narrative

import (
	"context"

	"narratrack/internal/domain/document"
)

// Detector defines the interface for narrative detection.
type Detector interface {
	// Start begins the periodic narrative scan.
	Start(ctx context.Context) error

	// Stop gracefully stops the detection process.
	Stop(ctx context.Context) error

	// GetNarratives returns detected narratives matching the filter.
	GetNarratives(ctx context.Context, filter Filter) ([]Narrative, error)

	// GetNarrativeByID returns a specific narrative.
	GetNarrativeByID(ctx context.Context, id string) (*Narrative, error)

	// RegisterNarrativeHandler registers a callback invoked whenever a
	// narrative crosses the detection threshold.
	RegisterNarrativeHandler(handler func(Narrative) error) error
}

// Analyzer turns a normalized document into an analysis signal.
type Analyzer interface {
	Analyze(ctx context.Context, doc document.Document) (document.Signal, error)
}
