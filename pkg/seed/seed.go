// Package seed loads the sample properties and reviews.
package seed

import (
	"context"

	"github.com/Gobusters/ectologger"

	apperrors "github.com/Ramsey-B/thistle/pkg/errors"
	"github.com/Ramsey-B/thistle/pkg/normalizer"
	"github.com/Ramsey-B/thistle/pkg/repositories"
)

// Seeder is the startup dependency that loads sample data. Reviews that are
// already stored are left alone so their moderation state survives restarts.
type Seeder struct {
	repo       repositories.Repository
	normalizer *normalizer.Normalizer
	logger     ectologger.Logger
}

func NewSeeder(repo repositories.Repository, normalizer *normalizer.Normalizer, logger ectologger.Logger) *Seeder {
	return &Seeder{repo: repo, normalizer: normalizer, logger: logger}
}

func (s *Seeder) GetName() string {
	return "seed"
}

func (s *Seeder) DependsOn() []string {
	return []string{"storage"}
}

func (s *Seeder) Start(ctx context.Context) error {
	for _, p := range Properties() {
		property := p
		if err := s.repo.UpsertProperty(ctx, &property); err != nil {
			return err
		}
	}

	result := s.normalizer.Normalize(ctx, Reviews())
	created := 0
	for _, review := range result.Reviews {
		_, err := s.repo.GetReviewByID(ctx, review.ID)
		if err == nil {
			continue
		}
		if !apperrors.IsNotFound(err) {
			return err
		}
		if err := s.repo.UpsertReview(ctx, review); err != nil {
			return err
		}
		created++
	}

	s.logger.WithFields(map[string]any{
		"properties": len(Properties()),
		"reviews":    created,
		"skipped":    len(result.Skipped),
	}).Info("Seeded sample data")
	return nil
}

func (s *Seeder) Stop(ctx context.Context) error {
	return nil
}
