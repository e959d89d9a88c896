// Package repositories stores reviews and properties in memory or postgres.
package repositories

import (
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/thistle/internal/database"
)

// baseRepository carries what every postgres repository needs
type baseRepository struct {
	db     database.DB
	logger ectologger.Logger
}

func newBaseRepository(db database.DB, logger ectologger.Logger) *baseRepository {
	return &baseRepository{db: db, logger: logger}
}

// DB returns the database instance
func (r *baseRepository) DB() database.DB {
	return r.db
}
