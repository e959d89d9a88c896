package aggregator

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/thistle/internal/tracing"
	"github.com/Ramsey-B/thistle/pkg/filter"
	"github.com/Ramsey-B/thistle/pkg/linking"
	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/Ramsey-B/thistle/pkg/repositories"
	"github.com/Ramsey-B/thistle/pkg/utils"
)

// DashboardCache stores computed dashboards per generation. Invalidate
// starts a new generation, so a dashboard computed from reads taken before
// the invalidation is stored under a generation that is no longer served.
// Misses and failures both fall through to a fresh computation.
type DashboardCache interface {
	Generation(ctx context.Context) (int64, bool)
	Get(ctx context.Context, generation int64) (*Dashboard, bool)
	Set(ctx context.Context, generation int64, dashboard Dashboard)
	Invalidate(ctx context.Context)
}

// Service resolves properties and their linked reviews and aggregates them.
type Service struct {
	repo       repositories.Repository
	aggregator *Aggregator
	cache      DashboardCache
	logger     ectologger.Logger
	now        func() time.Time
}

// NewService builds a Service. cache may be nil.
func NewService(repo repositories.Repository, aggregator *Aggregator, cache DashboardCache, logger ectologger.Logger) *Service {
	return &Service{
		repo:       repo,
		aggregator: aggregator,
		cache:      cache,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	ctx, span := tracing.StartSpan(ctx, "AggregatorService.Dashboard")
	defer span.End()

	// the generation is read before the reviews so a write committed in
	// between moves the cache past this computation
	var generation int64
	cacheable := false
	if s.cache != nil {
		generation, cacheable = s.cache.Generation(ctx)
	}
	if cacheable {
		if cached, ok := s.cache.Get(ctx, generation); ok {
			return cached, nil
		}
	}

	reviews, err := s.repo.GetReviews(ctx, nil)
	if err != nil {
		return nil, err
	}

	dashboard := s.aggregator.Dashboard(reviews, s.now().UTC())
	if cacheable {
		s.cache.Set(ctx, generation, dashboard)
	}
	return &dashboard, nil
}

// InvalidateDashboard drops the cached dashboard after a write.
func (s *Service) InvalidateDashboard(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

// PropertyMetrics aggregates every review linked to the property, whatever
// its moderation state.
func (s *Service) PropertyMetrics(ctx context.Context, propertyID string) (*PropertyMetrics, error) {
	ctx, span := tracing.StartSpan(ctx, "AggregatorService.PropertyMetrics")
	defer span.End()

	property, err := s.repo.GetPropertyByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	properties, err := s.repo.GetProperties(ctx)
	if err != nil {
		return nil, err
	}

	reviews, err := s.repo.GetReviews(ctx, nil)
	if err != nil {
		return nil, err
	}

	linked := linking.ReviewsFor(property.ID, reviews, properties)
	s.logLinks(ctx, property.ID, linked, properties)

	metrics := s.aggregator.Property(*property, linked, s.now().UTC())
	return &metrics, nil
}

// Properties lists properties with averageRating and reviewCount derived
// from their approved reviews.
func (s *Service) Properties(ctx context.Context) ([]models.Property, error) {
	ctx, span := tracing.StartSpan(ctx, "AggregatorService.Properties")
	defer span.End()

	properties, err := s.repo.GetProperties(ctx)
	if err != nil {
		return nil, err
	}

	approved, err := s.repo.GetReviews(ctx, &filter.Criteria{Status: filter.StatusApproved})
	if err != nil {
		return nil, err
	}

	out := make([]models.Property, 0, len(properties))
	for _, p := range properties {
		out = append(out, withStats(p, linking.ReviewsFor(p.ID, approved, properties)))
	}
	return out, nil
}

// Property returns the property with its approved reviews, newest first.
func (s *Service) Property(ctx context.Context, propertyID string) (*models.PropertyWithReviews, error) {
	ctx, span := tracing.StartSpan(ctx, "AggregatorService.Property")
	defer span.End()

	property, err := s.repo.GetPropertyByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	reviews, err := s.repo.GetApprovedReviewsForProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	return &models.PropertyWithReviews{
		Property: withStats(*property, reviews),
		Reviews:  reviews,
	}, nil
}

// Unlinked reports reviews that match no property or more than one.
func (s *Service) Unlinked(ctx context.Context) ([]linking.Diagnostic, error) {
	properties, err := s.repo.GetProperties(ctx)
	if err != nil {
		return nil, err
	}

	reviews, err := s.repo.GetReviews(ctx, nil)
	if err != nil {
		return nil, err
	}

	diagnostics := linking.Unlinked(reviews, properties)
	if len(diagnostics) > 0 {
		s.logger.WithContext(ctx).WithFields(map[string]any{
			"count": len(diagnostics),
		}).Warn("reviews without a unique property link")
	}
	return diagnostics, nil
}

func (s *Service) logLinks(ctx context.Context, propertyID string, reviews []models.Review, properties []models.Property) {
	for _, r := range reviews {
		if link := linking.Resolve(r, properties); link.Ambiguous {
			s.logger.WithContext(ctx).WithFields(map[string]any{
				"property_id":  propertyID,
				"review_id":    r.ID,
				"listing_name": r.ListingName,
				"matches":      link.PropertyIDs,
			}).Warn("review links to more than one property")
		}
	}
}

func withStats(property models.Property, approved []models.Review) models.Property {
	property.ReviewCount = len(approved)
	property.AverageRating = utils.Round1(meanRating(approved))
	return property
}
