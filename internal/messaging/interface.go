package messaging

import (
	"context"

	"go.uber.org/zap"
)

// PublisherInterface defines the contract for event publishing
// This allows for easy mocking in tests
type PublisherInterface interface {
	Publish(ctx context.Context, routingKey string, eventData interface{}) error
	Close() error
}

// Ensure Publisher implements PublisherInterface
var _ PublisherInterface = (*Publisher)(nil)

// NopPublisher drops every event. It stands in when RabbitMQ is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }
func (NopPublisher) Close() error                                       { return nil }

// Emit publishes event and only logs a failure. Events never fail the
// operation that produced them. pub may be nil.
func Emit(ctx context.Context, pub PublisherInterface, logger *zap.Logger, routingKey string, event interface{}) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, routingKey, event); err != nil && logger != nil {
		logger.Warn("failed to publish event", zap.String("routing_key", routingKey), zap.Error(err))
	}
}
