package driver

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"

	"video-indexer/domain"
)

// Connection owns the process-wide broker connection. Collaborators open
// their own channel per unit of work via Channel; channels are never
// shared across concurrent operations because delivery tags cross-talk on
// a shared channel.
//
// The first dial failing is fatal to the caller. After that, a monitor
// goroutine redials with exponential backoff whenever the broker closes
// the connection, so transient broker restarts self-heal without a
// process restart.
type Connection struct {
	url    string
	logger *slog.Logger

	mu   sync.RWMutex
	conn *amqp.Connection

	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the broker and starts the recovery monitor.
func Dial(url string, logger *slog.Logger) (*Connection, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, &domain.DriverError{Op: "Dial", Err: err.Error()}
	}

	c := &Connection{
		url:    url,
		logger: logger,
		conn:   conn,
		done:   make(chan struct{}),
	}
	go c.monitor()
	return c, nil
}

// Channel opens a fresh channel on the current connection. Callers own
// the channel and must close it when the operation completes.
func (c *Connection) Channel() (*amqp.Channel, error) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	ch, err := conn.Channel()
	if err != nil {
		return nil, &domain.DriverError{Op: "Channel", Err: err.Error()}
	}
	return ch, nil
}

// Close stops the recovery monitor and closes the broker connection.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()
		if conn != nil && !conn.IsClosed() {
			err = conn.Close()
		}
	})
	return err
}

func (c *Connection) monitor() {
	for {
		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()

		closed := conn.NotifyClose(make(chan *amqp.Error, 1))

		select {
		case <-c.done:
			return
		case amqpErr := <-closed:
			if !c.shouldRedial(amqpErr) {
				return
			}
			if !c.redial() {
				return
			}
		}
	}
}

// shouldRedial decides whether a close notification warrants redialing.
// A nil notification arrives both after a local Close and when the broker
// dropped the connection before NotifyClose registered on it; only the
// former ends recovery, which Close signals through done.
func (c *Connection) shouldRedial(amqpErr *amqp.Error) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	if amqpErr != nil {
		c.logger.Error("broker connection lost, redialing", "err", amqpErr)
	} else {
		c.logger.Error("broker connection closed, redialing")
	}
	return true
}

// redial blocks until the connection is re-established or the connection
// is closed. Returns false when Close was called while waiting.
func (c *Connection) redial() bool {
	bo := newDialBackoff()
	for {
		select {
		case <-c.done:
			return false
		default:
		}

		conn, err := amqp.Dial(c.url)
		if err == nil {
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()
			c.logger.Info("broker connection re-established")
			return true
		}

		delay := bo.NextBackOff()
		c.logger.Warn("broker redial failed, retrying", "err", err, "retry_in", delay)
		select {
		case <-c.done:
			return false
		case <-time.After(delay):
		}
	}
}

func newDialBackoff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 1 * time.Second
	bo.MaxInterval = 1 * time.Minute
	bo.Multiplier = 2
	return bo
}

// Topology holds the exchange/queue/binding declared for metadata sync.
type Topology struct {
	Exchange   string
	Queue      string
	RoutingKey string
}

// DeclareTopology idempotently declares the durable fanout exchange, the
// durable queue and the binding between them. The broker treats a
// re-declaration with matching parameters as a no-op, so any number of
// process instances may run this at startup. A failure here is
// startup-fatal: without correct topology no message is ever delivered.
func DeclareTopology(conn *Connection, t Topology) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(
		t.Exchange,
		amqp.ExchangeFanout,
		true,  // durable
		false, // autoDelete
		false, // internal
		false, // noWait
		nil,
	); err != nil {
		return &domain.DriverError{Op: "DeclareTopology", Err: "exchange declare: " + err.Error()}
	}

	if _, err := ch.QueueDeclare(
		t.Queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		return &domain.DriverError{Op: "DeclareTopology", Err: "queue declare: " + err.Error()}
	}

	if err := ch.QueueBind(t.Queue, t.RoutingKey, t.Exchange, false, nil); err != nil {
		return &domain.DriverError{Op: "DeclareTopology", Err: "queue bind: " + err.Error()}
	}

	return nil
}

// Publisher publishes messages over a fresh channel per call. Messages
// are marked persistent; there is no publisher confirm, the durability
// guarantee is persistent delivery mode plus durable topology.
type Publisher struct {
	conn *Connection
}

func NewPublisher(conn *Connection) *Publisher {
	return &Publisher{conn: conn}
}

func (p *Publisher) Publish(ctx context.Context, exchange, routingKey string, body []byte) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	err = ch.PublishWithContext(ctx,
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return &domain.DriverError{Op: "Publish", Err: err.Error()}
	}
	return nil
}
