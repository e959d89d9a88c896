// Package moderation moves reviews between pending, approved and rejected.
package moderation

import (
	"context"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/moby/locker"

	"github.com/Ramsey-B/thistle/internal/tracing"
	apperrors "github.com/Ramsey-B/thistle/pkg/errors"
	"github.com/Ramsey-B/thistle/pkg/events"
	"github.com/Ramsey-B/thistle/pkg/metrics"
	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/Ramsey-B/thistle/pkg/repositories"
)

// DefaultActor is recorded when a transition names nobody
const DefaultActor = "manager"

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Locker serializes a transition across instances
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func() error) error
}

// CacheInvalidator is told when moderation changes aggregate results
type CacheInvalidator interface {
	InvalidateDashboard(ctx context.Context)
}

type Service struct {
	repo    repositories.Repository
	locks   *locker.Locker
	locker  Locker
	lockTTL time.Duration
	emitter *events.Emitter
	cache   CacheInvalidator
	logger  ectologger.Logger
	now     func() time.Time
}

// Option configures optional collaborators
type Option func(*Service)

// WithDistributedLock also holds a lock named moderation:<id> for each
// transition when the locker is reachable
func WithDistributedLock(locker Locker, ttl time.Duration) Option {
	return func(s *Service) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

func WithEmitter(emitter *events.Emitter) Option {
	return func(s *Service) { s.emitter = emitter }
}

func WithCacheInvalidator(cache CacheInvalidator) Option {
	return func(s *Service) { s.cache = cache }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo repositories.Repository, logger ectologger.Logger, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		locks:   locker.New(),
		lockTTL: 5 * time.Second,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Approve marks the review approved, clearing any rejection.
func (s *Service) Approve(ctx context.Context, id, by string) (*models.Review, error) {
	return s.transition(ctx, ActionApprove, id, by)
}

// Reject marks the review rejected, clearing any approval.
func (s *Service) Reject(ctx context.Context, id, by string) (*models.Review, error) {
	return s.transition(ctx, ActionReject, id, by)
}

func (s *Service) transition(ctx context.Context, action Action, id, by string) (*models.Review, error) {
	ctx, span := tracing.StartSpan(ctx, "ModerationService."+string(action))
	defer span.End()

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.NewFieldValidationError("id", "review id is required")
	}
	by = strings.TrimSpace(by)
	if by == "" {
		by = DefaultActor
	}

	var updated *models.Review
	write := func() error {
		review, err := s.repo.UpdateReview(ctx, id, func(r *models.Review) error {
			at := s.now()
			switch action {
			case ActionApprove:
				r.Approve(by, at)
			case ActionReject:
				r.Reject(by, at)
			}
			return nil
		})
		updated = review
		return err
	}

	s.locks.Lock(id)
	err := s.withDistributedLock(ctx, id, write)
	_ = s.locks.Unlock(id)
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"review_id": id,
		"action":    action,
		"actor":     by,
	}).Info("moderated review")

	s.afterTransition(ctx, action, *updated)
	return updated, nil
}

// withDistributedLock runs write under moderation:<id> when a locker is
// configured. If the lock cannot be taken the write still runs under the
// local lock; the repository update is atomic on its own.
func (s *Service) withDistributedLock(ctx context.Context, id string, write func() error) error {
	if s.locker == nil {
		return write()
	}

	ran := false
	err := s.locker.WithLock(ctx, "moderation:"+id, s.lockTTL, func() error {
		ran = true
		return write()
	})
	if err == nil || ran || ctx.Err() != nil {
		return err
	}

	s.logger.WithContext(ctx).WithError(err).WithField("review_id", id).Warn("distributed moderation lock unavailable, using local lock")
	return write()
}

// afterTransition runs the best effort side effects of a committed write
func (s *Service) afterTransition(ctx context.Context, action Action, review models.Review) {
	metrics.RecordModeration(string(action))

	if s.cache != nil {
		s.cache.InvalidateDashboard(ctx)
	}

	switch action {
	case ActionApprove:
		_ = s.emitter.EmitReviewApproved(ctx, review)
	case ActionReject:
		_ = s.emitter.EmitReviewRejected(ctx, review)
	}
}
