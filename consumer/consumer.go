// Package consumer provides the AMQP consumer for metadata sync messages.
package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"video-indexer/driver"
	"video-indexer/metrics"
)

// Config holds consumer configuration.
type Config struct {
	// Queue is the sync queue to consume from. Must match the declared
	// topology.
	Queue string
	// Enabled determines whether the consumer starts.
	Enabled bool
}

// Consumer subscribes to the sync queue with manual acknowledgments and
// drives index updates through a fresh handler per delivery. It owns its
// channel for the whole consumer lifetime; the channel is not shared
// with any other operation. When the broker closes the channel the
// consumer re-registers itself on the recovered connection, so a broker
// restart pauses consumption instead of ending it.
type Consumer struct {
	conn       *driver.Connection
	config     Config
	newHandler HandlerFactory
	logger     *slog.Logger

	tag       string
	subscribe func() (<-chan amqp.Delivery, error)

	mu       sync.Mutex
	ch       *amqp.Channel
	done     chan struct{}
	stopOnce sync.Once
}

func NewConsumer(conn *driver.Connection, config Config, newHandler HandlerFactory, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Consumer{
		conn:       conn,
		config:     config,
		newHandler: newHandler,
		logger:     logger,
		tag:        fmt.Sprintf("video-indexer-%s", uuid.NewString()[:8]),
		done:       make(chan struct{}),
	}
	c.subscribe = c.consumeQueue
	return c
}

// Start registers the manual-ack consumer and launches the delivery loop.
func (c *Consumer) Start(ctx context.Context) error {
	if !c.config.Enabled {
		c.logger.Info("consumer disabled, not starting")
		return nil
	}

	deliveries, err := c.subscribe()
	if err != nil {
		return err
	}

	c.logger.Info("consumer started", "queue", c.config.Queue, "tag", c.tag)
	go c.loop(ctx, deliveries)
	return nil
}

// consumeQueue opens a fresh channel on the shared connection and
// registers the consumer on it.
func (c *Consumer) consumeQueue() (<-chan amqp.Delivery, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, err
	}

	deliveries, err := ch.Consume(
		c.config.Queue,
		c.tag,
		false, // autoAck: acknowledgments are manual
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, err
	}

	c.mu.Lock()
	c.ch = ch
	c.mu.Unlock()
	return deliveries, nil
}

// Stop cancels the consumer and closes its channel. An in-flight message
// is not waited for; redelivery after restart is safe because index
// writes are idempotent upserts.
func (c *Consumer) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		ch := c.ch
		c.mu.Unlock()
		if ch != nil && !ch.IsClosed() {
			if err := ch.Cancel(c.tag, false); err != nil {
				c.logger.Warn("consumer cancel failed", "err", err)
			}
			if err := ch.Close(); err != nil {
				c.logger.Warn("consumer channel close failed", "err", err)
			}
		}
		c.logger.Info("consumer stopped")
	})
}

func (c *Consumer) loop(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			c.Stop()
			return
		case <-c.done:
			return
		case d, ok := <-deliveries:
			if !ok {
				// Channel closed underneath us (broker restart). The
				// connection redials itself; re-register on it.
				c.logger.Warn("delivery stream closed, resubscribing")
				deliveries = c.resubscribe(ctx)
				if deliveries == nil {
					return
				}
				continue
			}
			c.process(ctx, d)
		}
	}
}

// resubscribe re-registers the consumer after the delivery stream closed,
// retrying with backoff until the broker is reachable again or the
// consumer shuts down. Returns nil only on shutdown.
func (c *Consumer) resubscribe(ctx context.Context) <-chan amqp.Delivery {
	bo := newResubscribeBackoff()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.done:
			return nil
		default:
		}

		deliveries, err := c.subscribe()
		if err == nil {
			c.logger.Info("consumer resubscribed", "queue", c.config.Queue, "tag", c.tag)
			return deliveries
		}

		delay := bo.NextBackOff()
		c.logger.Warn("consumer resubscribe failed, retrying", "err", err, "retry_in", delay)
		select {
		case <-ctx.Done():
			return nil
		case <-c.done:
			return nil
		case <-time.After(delay):
		}
	}
}

func newResubscribeBackoff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 1 * time.Second
	bo.MaxInterval = 1 * time.Minute
	bo.Multiplier = 2
	return bo
}

// process runs one delivery through a freshly scoped handler and settles
// the message according to the handler's decision.
func (c *Consumer) process(ctx context.Context, d amqp.Delivery) {
	handler := c.newHandler()
	defer handler.Close()

	result := handler.Handle(ctx, d.Body)
	settle(d, result, c.logger)
	metrics.RecordConsumed(result.String())
}

// settle maps a ProcessResult onto the broker acknowledgment protocol.
func settle(d amqp.Delivery, result ProcessResult, logger *slog.Logger) {
	var err error
	switch result {
	case Success:
		err = d.Ack(false)
	case FailDiscard:
		err = d.Reject(false)
	case FailRequeue:
		fallthrough
	default:
		err = d.Nack(false, true)
	}
	if err != nil {
		logger.Error("failed to settle delivery",
			"delivery_tag", d.DeliveryTag,
			"result", result.String(),
			"err", err,
		)
	}
}
