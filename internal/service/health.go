package service

import (
	"context"

	"sensor_events/internal/repository"
)

type HealthService struct {
	repo repository.HealthRepo
}

func NewHealthService(repo repository.HealthRepo) *HealthService {
	return &HealthService{repo: repo}
}

func (s *HealthService) Check(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
