// Package notify delivers order events to the notification gateway. Delivery is
// fire-and-forget: publishing never blocks a caller and sink failures are only
// logged.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/andresuchdata/butcherline/backend-go/internal/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const deliverTimeout = 5 * time.Second

// Publisher accepts events without blocking.
type Publisher interface {
	Publish(event domain.OrderEvent)
}

// Sink delivers one event to a downstream channel.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, event domain.OrderEvent) error
}

// AsyncPublisher buffers events and fans them out to sinks from one worker.
// When the buffer is full the event is dropped with a warning.
type AsyncPublisher struct {
	sinks   []Sink
	events  chan domain.OrderEvent
	metrics *metrics.Metrics

	closeOnce sync.Once
	done      chan struct{}
}

func NewAsyncPublisher(buffer int, m *metrics.Metrics, sinks ...Sink) *AsyncPublisher {
	if buffer <= 0 {
		buffer = 256
	}
	p := &AsyncPublisher{
		sinks:   sinks,
		events:  make(chan domain.OrderEvent, buffer),
		metrics: m,
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *AsyncPublisher) Publish(event domain.OrderEvent) {
	defer func() {
		// Publish after Close lands on a closed channel.
		if r := recover(); r != nil {
			log.Warn().Str("order_number", event.OrderNumber).Msg("notification publisher closed, event dropped")
		}
	}()

	select {
	case p.events <- event:
	default:
		p.metrics.NotificationDropped()
		log.Warn().
			Str("tenant_id", event.TenantID.String()).
			Str("order_number", event.OrderNumber).
			Str("kind", string(event.Kind)).
			Msg("notification buffer full, event dropped")
	}
}

// Close stops accepting events and waits until the buffered ones are delivered
// or ctx expires.
func (p *AsyncPublisher) Close(ctx context.Context) error {
	p.closeOnce.Do(func() { close(p.events) })
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *AsyncPublisher) run() {
	defer close(p.done)
	for event := range p.events {
		for _, sink := range p.sinks {
			p.deliver(sink, event)
		}
	}
}

func (p *AsyncPublisher) deliver(sink Sink, event domain.OrderEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			p.metrics.NotificationFailed(sink.Name())
			log.Warn().Interface("panic", r).Str("sink", sink.Name()).Msg("notification sink panicked")
		}
	}()

	if err := sink.Deliver(ctx, event); err != nil {
		p.metrics.NotificationFailed(sink.Name())
		log.Warn().Err(err).
			Str("sink", sink.Name()).
			Str("tenant_id", event.TenantID.String()).
			Str("order_number", event.OrderNumber).
			Msg("notification delivery failed")
	}
}

// LogSink writes events to the structured log.
type LogSink struct{}

func (LogSink) Name() string { return "log" }

func (LogSink) Deliver(_ context.Context, event domain.OrderEvent) error {
	log.Info().
		Str("kind", string(event.Kind)).
		Str("tenant_id", event.TenantID.String()).
		Str("order_number", event.OrderNumber).
		Str("status", event.StatusLabel).
		Str("customer", event.CustomerName).
		Msg("order notification")
	return nil
}

// RedisSink publishes events as JSON on a pub/sub channel consumed by the
// email and in-app notification workers.
type RedisSink struct {
	client  *redis.Client
	channel string
}

func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Deliver(ctx context.Context, event domain.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish failed: %w", err)
	}
	return nil
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(domain.OrderEvent) {}
