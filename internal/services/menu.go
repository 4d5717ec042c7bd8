package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/toteco/apiserver/types"
)

// MenuRepository defines persistence operations for menus.
type MenuRepository interface {
	Save(ctx context.Context, menu types.Menu) error
	Update(ctx context.Context, menu types.Menu) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (types.Menu, error)
	FindAll(ctx context.Context) ([]types.Menu, error)
}

// MenuService encapsulates menu use-cases.
type MenuService struct {
	repo   MenuRepository
	logger logrus.FieldLogger
}

func NewMenuService(repo MenuRepository, logger logrus.FieldLogger) *MenuService {
	return &MenuService{repo: repo, logger: logger}
}

func (s *MenuService) Create(ctx context.Context, in types.MenuInput) (types.Menu, error) {
	menu := types.Menu{
		ID:      uuid.New(),
		Created: types.NowMillis(),
		Price:   in.Price,
		Score:   in.Score,
	}
	if err := s.repo.Save(ctx, menu); err != nil {
		return types.Menu{}, err
	}
	s.logger.WithField("menu_id", menu.ID).Info("menu created")
	return menu, nil
}

func (s *MenuService) Update(ctx context.Context, in types.MenuUpdate) (int64, error) {
	current, err := s.repo.FindByID(ctx, in.ID)
	if err != nil {
		return 0, err
	}
	now := types.NowMillis()
	current.Price = in.Price
	current.Score = in.Score
	current.Updated = &now
	return s.repo.Update(ctx, current)
}

func (s *MenuService) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return affected(s.repo.Delete(ctx, id))
}

func (s *MenuService) DeleteAll(ctx context.Context) (int64, error) {
	return s.repo.DeleteAll(ctx)
}

func (s *MenuService) Get(ctx context.Context, id uuid.UUID) (types.Menu, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *MenuService) List(ctx context.Context) ([]types.Menu, error) {
	return s.repo.FindAll(ctx)
}
