package cache

import (
	"context"
	"time"

	"github.com/MH-Project10/Kasir-App/internal/domain"
)

// DashboardCache holds the computed dashboard snapshot between reads.
// Checkouts and catalog edits delete the entry so the next read rebuilds.
type DashboardCache interface {
	Get(ctx context.Context) (*domain.DashboardStats, bool, error)
	Set(ctx context.Context, value *domain.DashboardStats, ttl time.Duration) error
	Delete(ctx context.Context) error
}

type NoopDashboardCache struct{}

func (NoopDashboardCache) Get(_ context.Context) (*domain.DashboardStats, bool, error) {
	return nil, false, nil
}

func (NoopDashboardCache) Set(_ context.Context, _ *domain.DashboardStats, _ time.Duration) error {
	return nil
}

func (NoopDashboardCache) Delete(_ context.Context) error {
	return nil
}
