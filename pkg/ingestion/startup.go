package ingestion

import "context"

// StartupSync runs one Sync when the service boots. A failed sync is logged
// and never blocks startup.
type StartupSync struct {
	service *Service
}

func NewStartupSync(service *Service) *StartupSync {
	return &StartupSync{service: service}
}

func (s *StartupSync) GetName() string {
	return "sync"
}

func (s *StartupSync) DependsOn() []string {
	return []string{"storage", "seed", "kafka"}
}

func (s *StartupSync) Start(ctx context.Context) error {
	result, err := s.service.Sync(ctx)
	if err != nil {
		s.service.logger.WithContext(ctx).WithError(err).Error("startup review sync failed")
		return nil
	}
	s.service.logger.WithContext(ctx).WithFields(map[string]any{
		"source": result.Source,
		"count":  result.Count,
	}).Info("startup review sync finished")
	return nil
}

func (s *StartupSync) Stop(ctx context.Context) error {
	return nil
}
