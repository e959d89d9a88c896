package repositories

import (
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
)

func TestPostgresRepositoriesShareBase(t *testing.T) {
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	reviews := NewReviewRepository(nil, logger)
	properties := NewPropertyRepository(nil, logger)
	assert.Nil(t, reviews.DB())
	assert.Nil(t, properties.DB())

	var repo Repository = NewPostgresRepository(nil, logger)
	assert.NotNil(t, repo)
}
