package consumer

import (
	"context"
	"log/slog"

	"video-indexer/domain"
)

// ProcessResult is the consumer's decision for one delivery.
type ProcessResult int

const (
	// Success acknowledges the message and removes it from the queue.
	Success ProcessResult = iota
	// FailDiscard rejects without requeue: the message is permanently
	// malformed and retrying cannot help.
	FailDiscard
	// FailRequeue negative-acknowledges with requeue: the failure is
	// presumed transient.
	FailRequeue
)

func (r ProcessResult) String() string {
	switch r {
	case Success:
		return "ack"
	case FailDiscard:
		return "discard"
	case FailRequeue:
		return "requeue"
	default:
		return "unknown"
	}
}

// MessageHandler processes a single delivery. A fresh handler is created
// per message and closed when handling ends, so per-message resources
// never leak across deliveries.
type MessageHandler interface {
	Handle(ctx context.Context, body []byte) ProcessResult
	Close()
}

// HandlerFactory creates the per-message handler scope.
type HandlerFactory func() MessageHandler

// Indexer is what the sync handler needs from the indexing layer.
type Indexer interface {
	Index(ctx context.Context, video *domain.VideoMetadata) error
	Delete(ctx context.Context, videoID int) (bool, error)
}

// SyncMessageHandler decodes sync envelopes and dispatches them to the
// index writer.
type SyncMessageHandler struct {
	indexer Indexer
	logger  *slog.Logger
}

func NewSyncMessageHandler(indexer Indexer, logger *slog.Logger) *SyncMessageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncMessageHandler{indexer: indexer, logger: logger}
}

// Handle decides ack, discard or requeue for one delivery body. Malformed
// envelopes, unknown entity kinds, unparseable payloads and semantically
// invalid aggregates are discarded as data-integrity signals; redelivery
// cannot repair any of them. Anything failing past validation is presumed
// transient and requeued.
func (h *SyncMessageHandler) Handle(ctx context.Context, body []byte) ProcessResult {
	msg, err := domain.DecodeSyncMessage(body)
	if err != nil {
		h.logger.Error("malformed sync message, discarding", "err", err)
		return FailDiscard
	}

	video, err := msg.VideoMetadata()
	if err != nil {
		h.logger.Error("malformed sync payload, discarding",
			"entity_type", msg.EntityType,
			"err", err,
		)
		return FailDiscard
	}

	switch msg.Operation {
	case domain.OperationDelete:
		if video.VideoID <= 0 {
			h.logger.Error("invalid video id in delete message, discarding",
				"video_id", video.VideoID,
			)
			return FailDiscard
		}
		if _, err := h.indexer.Delete(ctx, video.VideoID); err != nil {
			h.logger.Error("index delete failed, requeueing",
				"video_id", video.VideoID,
				"err", err,
			)
			return FailRequeue
		}
	default:
		if err := video.Validate(); err != nil {
			h.logger.Error("invalid video metadata in sync message, discarding",
				"video_id", video.VideoID,
				"err", err,
			)
			return FailDiscard
		}
		if err := h.indexer.Index(ctx, video); err != nil {
			h.logger.Error("index write failed, requeueing",
				"video_id", video.VideoID,
				"err", err,
			)
			return FailRequeue
		}
	}
	return Success
}

func (h *SyncMessageHandler) Close() {}
