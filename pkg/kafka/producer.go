// Package kafka publishes review lifecycle events.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Ramsey-B/thistle/internal/tracing"
	"github.com/Ramsey-B/thistle/pkg/metrics"
	"github.com/Ramsey-B/thistle/pkg/models"
)

// Config holds Kafka configuration
type Config struct {
	Brokers []string
	Topic   string
	// PublishTimeout bounds a single publish, retries included. Zero means
	// the caller's context alone decides.
	PublishTimeout time.Duration
}

const DefaultPublishTimeout = 2 * time.Second

// ParseConfig parses a comma-separated broker string
func ParseConfig(brokers string, topic string) Config {
	brokerList := []string{}
	for _, broker := range strings.Split(brokers, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokerList = append(brokerList, broker)
		}
	}

	return Config{
		Brokers:        brokerList,
		Topic:          topic,
		PublishTimeout: DefaultPublishTimeout,
	}
}

// MessageWriter is the subset of kafka.Writer the producer uses
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ReviewEvent is published whenever a review is stored or moderated
type ReviewEvent struct {
	EventID   string        `json:"event_id"`
	EventType string        `json:"event_type"`
	ReviewID  string        `json:"review_id"`
	State     string        `json:"state"`
	Actor     string        `json:"actor,omitempty"`
	Source    string        `json:"source,omitempty"`
	Review    models.Review `json:"review"`
	Timestamp time.Time     `json:"timestamp"`

	TraceID string `json:"trace_id,omitempty"`
	SpanID  string `json:"span_id,omitempty"`
}

// Producer handles producing messages to Kafka. It doubles as the "kafka"
// startup dependency.
type Producer struct {
	config Config
	writer MessageWriter
	logger ectologger.Logger
}

func NewProducer(cfg Config, logger ectologger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		MaxAttempts:  3,
		WriteTimeout: cfg.PublishTimeout,
		// dev brokers may not have the topic yet
		AllowAutoTopicCreation: true,
	}

	return NewProducerWithWriter(cfg, writer, logger)
}

// NewProducerWithWriter builds a producer over any writer
func NewProducerWithWriter(cfg Config, writer MessageWriter, logger ectologger.Logger) *Producer {
	return &Producer{config: cfg, writer: writer, logger: logger}
}

func (p *Producer) GetName() string {
	return "kafka"
}

func (p *Producer) DependsOn() []string {
	return []string{"tracing"}
}

// Start checks that at least one broker is reachable
func (p *Producer) Start(ctx context.Context) error {
	return p.Ping(ctx)
}

// Ping dials the brokers in order until one answers
func (p *Producer) Ping(ctx context.Context) error {
	if len(p.config.Brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}

	var lastErr error
	for _, broker := range p.config.Brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		_ = conn.Close()
		p.logger.Debugf("Reached kafka broker %s", broker)
		return nil
	}
	return fmt.Errorf("failed to reach any kafka broker: %w", lastErr)
}

func (p *Producer) Stop(ctx context.Context) error {
	return p.writer.Close()
}

// PublishReviewEvent publishes the event keyed by review id so every event
// for a review lands on the same partition.
func (p *Producer) PublishReviewEvent(ctx context.Context, evt *ReviewEvent) error {
	ctx, span := tracing.StartSpan(ctx, "Kafka.PublishReviewEvent")
	defer span.End()

	if evt == nil {
		return fmt.Errorf("review event is nil")
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	span.SetAttributes(
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.destination", p.config.Topic),
		attribute.String("messaging.operation", "publish"),
		attribute.String("event_type", evt.EventType),
		attribute.String("review_id", evt.ReviewID),
	)

	evt.TraceID = tracing.GetTraceID(ctx)
	evt.SpanID = tracing.GetSpanID(ctx)

	data, err := json.Marshal(evt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to marshal event")
		return fmt.Errorf("failed to marshal review event: %w", err)
	}

	headers := []kafka.Header{
		{Key: "event_type", Value: []byte(evt.EventType)},
		{Key: "event_id", Value: []byte(evt.EventID)},
		{Key: "review_id", Value: []byte(evt.ReviewID)},
	}
	if traceparent := tracing.GetTraceParent(ctx); traceparent != "" {
		headers = append(headers, kafka.Header{Key: "traceparent", Value: []byte(traceparent)})
	}
	if tracestate := tracing.GetTraceState(ctx); tracestate != "" {
		headers = append(headers, kafka.Header{Key: "tracestate", Value: []byte(tracestate)})
	}

	writeCtx := ctx
	if p.config.PublishTimeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(ctx, p.config.PublishTimeout)
		defer cancel()
	}

	start := time.Now()
	err = p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:     []byte(evt.ReviewID),
		Value:   data,
		Headers: headers,
	})
	if err != nil {
		metrics.RecordKafkaPublish(p.config.Topic, "error", time.Since(start).Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to publish event")
		p.logger.WithContext(ctx).WithError(err).Errorf("Failed to publish %s to Kafka topic %s", evt.EventType, p.config.Topic)
		return err
	}

	metrics.RecordKafkaPublish(p.config.Topic, "success", time.Since(start).Seconds())
	span.SetStatus(codes.Ok, "event published")
	p.logger.WithContext(ctx).Debugf("Published %s for review %s", evt.EventType, evt.ReviewID)
	return nil
}
