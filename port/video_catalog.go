package port

import (
	"context"

	"video-indexer/domain"
)

// VideoCatalog reads the canonical video metadata from the relational
// store. Used only for full index rebuilds; the steady-state path flows
// through the queue.
type VideoCatalog interface {
	AllIndexDocuments(ctx context.Context) ([]domain.IndexDocument, error)
}
