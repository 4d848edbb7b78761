package source

import (
	"context"

	"narratrack/internal/domain/document"
)

// Connector pulls raw items from one upstream platform and normalizes
// them into canonical documents.
type Connector interface {
	// Name returns the connector name used in Document.Source.
	Name() string

	// Fetch retrieves the current batch of documents.
	Fetch(ctx context.Context) ([]document.Document, error)
}
