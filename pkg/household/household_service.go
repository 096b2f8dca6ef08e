package household

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Provider exposes the current household to packages that only need to read it.
type Provider interface {
	GetCurrentHousehold(ctx context.Context) (Household, error)
}

type Service interface {
	Provider
	GetByUid(ctx context.Context, uid string) (*Household, error)
	Create(ctx context.Context, h Household) (Household, error)
	UpdateSettings(ctx context.Context, settings Settings) (Settings, error)
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) GetCurrentHousehold(ctx context.Context) (Household, error) {
	return Current(ctx)
}

func (s *ServiceImpl) GetByUid(ctx context.Context, uid string) (*Household, error) {
	return s.repo.GetByUid(ctx, uid)
}

func (s *ServiceImpl) Create(ctx context.Context, h Household) (Household, error) {
	if h.Uid == "" {
		h.Uid = uuid.NewString()
	}
	if h.Settings.Timezone == "" {
		h.Settings.Timezone = "UTC"
	}
	return s.repo.Create(ctx, h)
}

func (s *ServiceImpl) UpdateSettings(ctx context.Context, settings Settings) (Settings, error) {
	householdId, err := CurrentId(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to get current household: %w", err)
	}
	updated, err := s.repo.UpdateSettings(ctx, householdId, settings)
	if err != nil {
		return Settings{}, err
	}
	if !updated {
		return Settings{}, ErrNoHousehold
	}
	return settings, nil
}
