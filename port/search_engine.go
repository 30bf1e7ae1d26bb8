package port

import (
	"context"

	"video-indexer/domain"
)

// SearchEngine is the index-side port: schema bootstrap, document writes
// and the query surface. All writes are upserts keyed by video id.
type SearchEngine interface {
	EnsureIndex(ctx context.Context) error
	IndexDocument(ctx context.Context, doc domain.IndexDocument) error
	// DeleteDocument returns false without error when the document was
	// already absent; "already gone" is success for a delete.
	DeleteDocument(ctx context.Context, videoID int) (bool, error)
	// BulkIndex returns the successfully indexed subset. Individual item
	// failures do not fail the call; only a total request failure does.
	BulkIndex(ctx context.Context, docs []domain.IndexDocument) ([]domain.IndexDocument, error)
	// Search runs the relevance query. categoryNames must already be the
	// fully expanded subtree set; nil or empty means no category filter.
	Search(ctx context.Context, query string, categoryNames []string, limit int) ([]domain.IndexDocument, error)
	// SearchPrefix runs the autocomplete prefix query across the string
	// fields, ordered by relevance.
	SearchPrefix(ctx context.Context, query string, limit int) ([]domain.IndexDocument, error)
}
