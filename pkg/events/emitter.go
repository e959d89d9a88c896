// Package events emits review lifecycle events
package events

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/thistle/internal/tracing"
	"github.com/Ramsey-B/thistle/pkg/kafka"
	"github.com/Ramsey-B/thistle/pkg/models"
)

const (
	ReviewIngested = "review.ingested"
	ReviewApproved = "review.approved"
	ReviewRejected = "review.rejected"
)

// Publisher delivers a review event
type Publisher interface {
	PublishReviewEvent(ctx context.Context, evt *kafka.ReviewEvent) error
}

// Emitter builds and publishes review events. With no publisher it does
// nothing, which is how Kafka is switched off.
type Emitter struct {
	publisher Publisher
	logger    ectologger.Logger
	now       func() time.Time
}

func NewEmitter(publisher Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{publisher: publisher, logger: logger, now: time.Now}
}

// Enabled reports whether events are actually published
func (e *Emitter) Enabled() bool {
	return e != nil && e.publisher != nil
}

// EmitReviewIngested emits an event for a review stored by ingestion
func (e *Emitter) EmitReviewIngested(ctx context.Context, review models.Review, source string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitReviewIngested")
	defer span.End()

	return e.emit(ctx, ReviewIngested, review, source)
}

// EmitReviewApproved emits an event for an approval
func (e *Emitter) EmitReviewApproved(ctx context.Context, review models.Review) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitReviewApproved")
	defer span.End()

	return e.emit(ctx, ReviewApproved, review, "")
}

// EmitReviewRejected emits an event for a rejection
func (e *Emitter) EmitReviewRejected(ctx context.Context, review models.Review) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitReviewRejected")
	defer span.End()

	return e.emit(ctx, ReviewRejected, review, "")
}

func (e *Emitter) emit(ctx context.Context, eventType string, review models.Review, source string) error {
	if !e.Enabled() {
		return nil
	}

	event := &kafka.ReviewEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		ReviewID:  review.ID,
		State:     string(review.State()),
		Actor:     review.Moderation.Actor,
		Source:    source,
		Review:    review,
		Timestamp: e.now().UTC(),
	}

	if err := e.publisher.PublishReviewEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithField("review_id", review.ID).Errorf("Failed to emit %s event", eventType)
		return err
	}
	return nil
}
