package moderation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Ramsey-B/thistle/pkg/errors"
	"github.com/Ramsey-B/thistle/pkg/events"
	"github.com/Ramsey-B/thistle/pkg/kafka"
	"github.com/Ramsey-B/thistle/pkg/models"
	"github.com/Ramsey-B/thistle/pkg/repositories"
)

var fixedNow = time.Date(2024, time.April, 2, 9, 30, 0, 0, time.UTC)

type capturePublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *capturePublisher) PublishReviewEvent(_ context.Context, evt *kafka.ReviewEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt.EventType)
	return nil
}

type countingInvalidator struct{ calls int }

func (c *countingInvalidator) InvalidateDashboard(context.Context) { c.calls++ }

type recordingLocker struct {
	keys []string
	err  error
}

func (l *recordingLocker) WithLock(_ context.Context, key string, _ time.Duration, fn func() error) error {
	l.keys = append(l.keys, key)
	if l.err != nil {
		return l.err
	}
	return fn()
}

func setup(t *testing.T, opts ...Option) (*Service, *repositories.MemoryRepository) {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	repo := repositories.NewMemoryRepository(logger)
	require.NoError(t, repo.UpsertReview(context.Background(), models.Review{ID: "r1", SubmittedAt: fixedNow}))

	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewService(repo, logger, opts...), repo
}

func TestApproveThenReject(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	approved, err := svc.Approve(ctx, "r1", "mgr")
	require.NoError(t, err)
	assert.True(t, approved.IsApproved())
	assert.Equal(t, "mgr", approved.Moderation.Actor)
	assert.Equal(t, fixedNow, *approved.Moderation.At)

	rejected, err := svc.Reject(ctx, "r1", "")
	require.NoError(t, err)
	assert.True(t, rejected.IsRejected())
	assert.False(t, rejected.IsApproved())
	assert.Equal(t, DefaultActor, rejected.Moderation.Actor)

	stored, err := repo.GetReviewByID(ctx, "r1")
	require.NoError(t, err)
	assert.True(t, stored.IsRejected())

	// the wire shape never reports both flags
	body, err := stored.MarshalJSON()
	require.NoError(t, err)
	assert.Contains(t, string(body), `"approved":false`)
	assert.Contains(t, string(body), `"rejected":true`)
	assert.Contains(t, string(body), `"approvedBy":null`)
}

func TestReapprove(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Reject(ctx, "r1", "a")
	require.NoError(t, err)
	review, err := svc.Approve(ctx, "r1", "")
	require.NoError(t, err)
	assert.True(t, review.IsApproved())
	assert.Equal(t, DefaultActor, review.Moderation.Actor)
}

func TestNotFound(t *testing.T) {
	publisher := &capturePublisher{}
	invalidator := &countingInvalidator{}
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	svc, _ := setup(t, WithEmitter(events.NewEmitter(publisher, logger)), WithCacheInvalidator(invalidator))

	_, err := svc.Approve(context.Background(), "missing", "mgr")
	assert.True(t, apperrors.IsNotFound(err))
	_, err = svc.Reject(context.Background(), "missing", "mgr")
	assert.True(t, apperrors.IsNotFound(err))

	assert.Empty(t, publisher.events)
	assert.Zero(t, invalidator.calls)
}

func TestSideEffects(t *testing.T) {
	publisher := &capturePublisher{}
	invalidator := &countingInvalidator{}
	locker := &recordingLocker{}
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	svc, _ := setup(t,
		WithEmitter(events.NewEmitter(publisher, logger)),
		WithCacheInvalidator(invalidator),
		WithDistributedLock(locker, time.Second),
	)
	ctx := context.Background()

	_, err := svc.Approve(ctx, "r1", "mgr")
	require.NoError(t, err)
	_, err = svc.Reject(ctx, "r1", "mgr")
	require.NoError(t, err)

	assert.Equal(t, []string{events.ReviewApproved, events.ReviewRejected}, publisher.events)
	assert.Equal(t, 2, invalidator.calls)
	assert.Equal(t, []string{"moderation:r1", "moderation:r1"}, locker.keys)
}

func TestLockOutageFallsBackToLocalLock(t *testing.T) {
	locker := &recordingLocker{err: errors.New("dial tcp: connection refused")}
	svc, repo := setup(t, WithDistributedLock(locker, time.Second))

	review, err := svc.Approve(context.Background(), "r1", "mgr")
	require.NoError(t, err)
	assert.True(t, review.IsApproved())
	assert.Equal(t, []string{"moderation:r1"}, locker.keys)

	stored, err := repo.GetReviewByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.True(t, stored.IsApproved())
}

// failingWriteLocker takes the lock, then the write itself fails
type failingWriteLocker struct{}

func (failingWriteLocker) WithLock(_ context.Context, _ string, _ time.Duration, fn func() error) error {
	return fn()
}

func TestWriteErrorUnderLockIsNotRetried(t *testing.T) {
	svc, _ := setup(t, WithDistributedLock(failingWriteLocker{}, time.Second))

	_, err := svc.Approve(context.Background(), "missing", "mgr")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestConcurrentTransitionsKeepExclusion(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = svc.Approve(ctx, "r1", "a")
			} else {
				_, err = svc.Reject(ctx, "r1", "b")
			}
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := repo.GetReviewByID(ctx, "r1")
	require.NoError(t, err)
	assert.NotEqual(t, stored.IsApproved(), stored.IsRejected())
}
