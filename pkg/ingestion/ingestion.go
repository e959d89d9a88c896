// Package ingestion stores normalized reviews from the upstream feed, from
// request payloads, or from the fallback set when the feed is down.
package ingestion

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/thistle/internal/tracing"
	apperrors "github.com/Ramsey-B/thistle/pkg/errors"
	"github.com/Ramsey-B/thistle/pkg/events"
	"github.com/Ramsey-B/thistle/pkg/metrics"
	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/Ramsey-B/thistle/pkg/normalizer"
	"github.com/Ramsey-B/thistle/pkg/repositories"
	"github.com/Ramsey-B/thistle/pkg/seed"
	"github.com/Ramsey-B/thistle/pkg/upstream"
)

const (
	SourceUpstream = "upstream"
	SourceFallback = "fallback"

	StatusSuccess = "success"
)

// Result is returned by every ingestion entry point
type Result struct {
	Status  string               `json:"status"`
	Source  string               `json:"source"`
	Count   int                  `json:"count"`
	Skipped []normalizer.Skipped `json:"skipped"`
	Reviews []models.Review      `json:"result"`
}

// Extractor pulls the review array out of a decoded body
type Extractor interface {
	Extract(body any) ([]any, error)
}

// CacheInvalidator is told when stored reviews change
type CacheInvalidator interface {
	InvalidateDashboard(ctx context.Context)
}

type Service struct {
	repo       repositories.Repository
	normalizer *normalizer.Normalizer
	source     upstream.Source
	extractor  Extractor
	emitter    *events.Emitter
	cache      CacheInvalidator
	timeout    time.Duration
	logger     ectologger.Logger
}

type Config struct {
	// Timeout bounds a sync, fetch included. Zero leaves it to the caller's context.
	Timeout time.Duration
}

// NewService builds the ingestion service. source may be nil, in which case
// Sync always serves the fallback set. emitter and cache are optional.
func NewService(
	config Config,
	repo repositories.Repository,
	normalizer *normalizer.Normalizer,
	source upstream.Source,
	extractor Extractor,
	emitter *events.Emitter,
	cache CacheInvalidator,
	logger ectologger.Logger,
) *Service {
	return &Service{
		repo:       repo,
		normalizer: normalizer,
		source:     source,
		extractor:  extractor,
		emitter:    emitter,
		cache:      cache,
		timeout:    config.Timeout,
		logger:     logger,
	}
}

// Sync reads the upstream feed and stores what it returns. Any upstream
// failure is logged and answered with the fallback set; only storage errors
// are returned.
func (s *Service) Sync(ctx context.Context) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "IngestionService.Sync")
	defer span.End()

	items, err := s.fetch(ctx)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("upstream_unavailable", apperrors.IsUpstreamUnavailable(err)).
			Warn("upstream review feed unavailable, serving fallback reviews")
		return s.store(ctx, SourceFallback, seed.Fallback())
	}

	return s.store(ctx, SourceUpstream, items)
}

// Ingest stores a raw upstream-shaped payload: a bare array or an object
// holding the array at the configured result path.
func (s *Service) Ingest(ctx context.Context, payload any) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "IngestionService.Ingest")
	defer span.End()

	if payload == nil {
		return nil, apperrors.NewValidationError("request body is required")
	}

	items, err := s.extractor.Extract(payload)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid review payload: %s", err.Error())
	}

	return s.store(ctx, SourceUpstream, items)
}

func (s *Service) fetch(ctx context.Context) ([]any, error) {
	if s.source == nil {
		return nil, apperrors.NewUpstreamUnavailableError("not configured", nil)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	return s.source.FetchReviews(ctx)
}

func (s *Service) store(ctx context.Context, source string, items []any) (*Result, error) {
	normalized := s.normalizer.Normalize(ctx, items)

	// after the first failed publish the rest of the batch is not emitted,
	// so an unreachable broker costs one publish timeout per batch
	emitting := true
	unpublished := 0
	for _, review := range normalized.Reviews {
		if err := s.repo.UpsertReview(ctx, review); err != nil {
			s.logger.WithContext(ctx).WithError(err).WithField("review_id", review.ID).Error("failed to store review")
			return nil, err
		}
		if !emitting {
			unpublished++
			continue
		}
		if err := s.emitter.EmitReviewIngested(ctx, review, source); err != nil {
			emitting = false
			unpublished++
		}
	}
	if unpublished > 0 {
		s.logger.WithContext(ctx).WithField("unpublished", unpublished).Warn("review events not published for this batch")
	}

	if len(normalized.Reviews) > 0 && s.cache != nil {
		s.cache.InvalidateDashboard(ctx)
	}

	metrics.RecordIngestion(source, len(normalized.Reviews), len(normalized.Skipped), normalized.DefaultedSubmittedAt)

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"source":              source,
		"stored":              len(normalized.Reviews),
		"skipped":             len(normalized.Skipped),
		"defaulted_timestamp": normalized.DefaultedSubmittedAt,
	}).Info("ingested reviews")

	skipped := normalized.Skipped
	if skipped == nil {
		skipped = []normalizer.Skipped{}
	}

	return &Result{
		Status:  StatusSuccess,
		Source:  source,
		Count:   len(normalized.Reviews),
		Skipped: skipped,
		Reviews: normalized.Reviews,
	}, nil
}
