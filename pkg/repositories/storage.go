package repositories

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/thistle/internal/database"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Storage is the startup dependency that picks the configured backend. The
// memory backend is ready at construction; postgres once the database starts.
type Storage struct {
	Repository
	backend  string
	postgres *database.Postgres
	logger   ectologger.Logger
}

func NewStorage(backend string, postgres *database.Postgres, logger ectologger.Logger) *Storage {
	s := &Storage{backend: backend, postgres: postgres, logger: logger}
	if backend != BackendPostgres {
		s.backend = BackendMemory
		s.Repository = NewMemoryRepository(logger)
	}
	return s
}

func (s *Storage) GetName() string {
	return "storage"
}

func (s *Storage) DependsOn() []string {
	return []string{"database"}
}

func (s *Storage) Start(ctx context.Context) error {
	if s.Repository != nil {
		return nil
	}

	if s.postgres == nil || s.postgres.DB() == nil {
		return fmt.Errorf("storage backend %s requires a started database", s.backend)
	}

	s.Repository = NewPostgresRepository(s.postgres.DB(), s.logger)
	s.logger.Infof("Using %s storage backend", s.backend)
	return nil
}

func (s *Storage) Stop(ctx context.Context) error {
	return nil
}

func (s *Storage) Backend() string {
	return s.backend
}
