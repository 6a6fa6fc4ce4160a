// Package events publishes order lifecycle changes to a message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type Type string

const (
	OrderCreated       Type = "order.created"
	OrderStatusChanged Type = "order.status_changed"
	OrderCancelled     Type = "order.cancelled"
)

type Event struct {
	Type           Type      `json:"type"`
	OrderID        string    `json:"order_id"`
	Status         string    `json:"status"`
	PaymentStatus  string    `json:"payment_status,omitempty"`
	TrackingNumber string    `json:"tracking_number,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Publisher delivers events. Callers treat a failure as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

func encode(e Event) ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("events: marshal %s: %w", e.Type, err)
	}
	return body, nil
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

type Options struct {
	Broker        string
	KafkaBrokers  []string
	KafkaTopic    string
	RabbitMQURL   string
	RabbitMQQueue string
}

// Open returns the publisher for opts.Broker: kafka, rabbitmq, or none.
func Open(opts Options) (Publisher, error) {
	switch opts.Broker {
	case "", "none":
		return Noop{}, nil
	case "kafka":
		return NewKafkaPublisher(opts.KafkaBrokers, opts.KafkaTopic), nil
	case "rabbitmq":
		return NewRabbitPublisher(opts.RabbitMQURL, opts.RabbitMQQueue)
	default:
		return nil, fmt.Errorf("events: unknown broker %q", opts.Broker)
	}
}
