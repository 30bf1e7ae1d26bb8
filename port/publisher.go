package port

import "context"

// MessagePublisher publishes an encoded message to a broker exchange.
// Durability comes from persistent delivery mode plus durable topology;
// there is no publisher confirm.
type MessagePublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body []byte) error
}
