package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"video-indexer/domain"
	"video-indexer/metrics"
	"video-indexer/port"
)

const publishTimeout = 10 * time.Second

// PublishMetadataUsecase is the metadata producer and the exported entry
// point for the catalog write path, which lives outside this service.
// Write flows call Publish after every create, update and delete and
// return immediately; a background worker drains the submissions to the
// broker. Failures are observable only via logs and metrics, never by
// the caller: a slow or unavailable broker must not stall primary
// writes.
type PublishMetadataUsecase struct {
	publisher  port.MessagePublisher
	exchange   string
	routingKey string
	logger     *slog.Logger

	submissions chan domain.SyncMessage
	wg          sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

func NewPublishMetadataUsecase(publisher port.MessagePublisher, exchange, routingKey string, bufferSize int, logger *slog.Logger) *PublishMetadataUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &PublishMetadataUsecase{
		publisher:   publisher,
		exchange:    exchange,
		routingKey:  routingKey,
		logger:      logger,
		submissions: make(chan domain.SyncMessage, bufferSize),
	}
}

// Start launches the background worker.
func (u *PublishMetadataUsecase) Start() {
	u.wg.Add(1)
	go u.worker()
}

// Publish submits a metadata change for asynchronous delivery. It never
// blocks: when the buffer is full the submission is dropped and counted.
func (u *PublishMetadataUsecase) Publish(video *domain.VideoMetadata, op domain.Operation) {
	msg, err := domain.NewVideoMetadataSyncMessage(video, op)
	if err != nil {
		u.logger.Error("failed to build sync message", "err", err)
		metrics.RecordPublish("error")
		return
	}

	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.stopped {
		u.logger.Warn("producer stopped, dropping sync message", "video_id", video.VideoID)
		metrics.PublishDropped.Inc()
		return
	}

	select {
	case u.submissions <- msg:
	default:
		u.logger.Warn("producer buffer full, dropping sync message", "video_id", video.VideoID)
		metrics.PublishDropped.Inc()
	}
}

// Stop closes the submission queue and waits for the worker to drain it.
func (u *PublishMetadataUsecase) Stop() {
	u.mu.Lock()
	if u.stopped {
		u.mu.Unlock()
		return
	}
	u.stopped = true
	u.mu.Unlock()

	close(u.submissions)
	u.wg.Wait()
}

func (u *PublishMetadataUsecase) worker() {
	defer u.wg.Done()
	for msg := range u.submissions {
		u.deliver(msg)
	}
}

func (u *PublishMetadataUsecase) deliver(msg domain.SyncMessage) {
	body, err := msg.Encode()
	if err != nil {
		u.logger.Error("failed to encode sync message", "err", err)
		metrics.RecordPublish("error")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := u.publisher.Publish(ctx, u.exchange, u.routingKey, body); err != nil {
		u.logger.Error("failed to publish sync message",
			"exchange", u.exchange,
			"routing_key", u.routingKey,
			"err", err,
		)
		metrics.RecordPublish("error")
		return
	}
	metrics.RecordPublish("ok")
}
