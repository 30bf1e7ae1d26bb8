package usecase

import (
	"context"
	"errors"
	"log/slog"

	"video-indexer/domain"
	"video-indexer/metrics"
	"video-indexer/port"
)

// IndexVideoUsecase drives index writes: single-document upserts and
// deletes from the consumer path, and full rebuilds from the catalog.
type IndexVideoUsecase struct {
	searchEngine port.SearchEngine
	catalog      port.VideoCatalog
	logger       *slog.Logger
}

func NewIndexVideoUsecase(searchEngine port.SearchEngine, catalog port.VideoCatalog, logger *slog.Logger) *IndexVideoUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexVideoUsecase{
		searchEngine: searchEngine,
		catalog:      catalog,
		logger:       logger,
	}
}

// Index projects the aggregate into its index document and upserts it.
// Safe to retry: the write is keyed by video id.
func (u *IndexVideoUsecase) Index(ctx context.Context, video *domain.VideoMetadata) error {
	if video == nil {
		return errors.New("video metadata cannot be nil")
	}
	if err := video.Validate(); err != nil {
		return err
	}

	doc := domain.NewIndexDocument(video)
	if err := u.searchEngine.IndexDocument(ctx, doc); err != nil {
		return err
	}

	metrics.DocumentsIndexed.Inc()
	u.logger.Info("indexed video metadata", "video_id", video.VideoID)
	return nil
}

// Delete removes the video's document. Returns false when the document
// was already absent, which is still success.
func (u *IndexVideoUsecase) Delete(ctx context.Context, videoID int) (bool, error) {
	if videoID <= 0 {
		return false, errors.New("video ID must be positive")
	}

	deleted, err := u.searchEngine.DeleteDocument(ctx, videoID)
	if err != nil {
		return false, err
	}

	if deleted {
		metrics.DocumentsDeleted.Inc()
		u.logger.Info("deleted video metadata from index", "video_id", videoID)
	} else {
		u.logger.Info("video metadata already absent from index", "video_id", videoID)
	}
	return deleted, nil
}

// RebuildResult reports a full index rebuild.
type RebuildResult struct {
	Fetched int
	Indexed int
	Failed  int
}

// Rebuild scans the whole catalog and bulk-indexes it. Per-document
// failures are tolerated and reported in the result; only a failure of
// the scan or the bulk request as a whole errors.
func (u *IndexVideoUsecase) Rebuild(ctx context.Context) (*RebuildResult, error) {
	docs, err := u.catalog.AllIndexDocuments(ctx)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		u.logger.Info("catalog empty, nothing to rebuild")
		return &RebuildResult{}, nil
	}

	indexed, err := u.searchEngine.BulkIndex(ctx, docs)
	if err != nil {
		return nil, err
	}

	result := &RebuildResult{
		Fetched: len(docs),
		Indexed: len(indexed),
		Failed:  len(docs) - len(indexed),
	}
	if result.Failed > 0 {
		metrics.BulkItemFailures.Add(float64(result.Failed))
		u.logger.Warn("index rebuild finished with failures",
			"fetched", result.Fetched,
			"indexed", result.Indexed,
			"failed", result.Failed,
		)
	} else {
		u.logger.Info("index rebuild finished", "indexed", result.Indexed)
	}
	return result, nil
}
