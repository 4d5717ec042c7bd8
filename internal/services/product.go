package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/toteco/apiserver/types"
)

// ProductRepository defines persistence operations for products.
type ProductRepository interface {
	Save(ctx context.Context, product types.Product) error
	Update(ctx context.Context, product types.Product) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (types.Product, error)
	FindAll(ctx context.Context) ([]types.Product, error)
	FindByPublication(ctx context.Context, publicationID uuid.UUID) ([]types.Product, error)
	FindByMenu(ctx context.Context, menuID uuid.UUID) ([]types.Product, error)
}

// PublicationLookup resolves publications by id.
type PublicationLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (types.Publication, error)
}

// MenuLookup resolves menus by id.
type MenuLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (types.Menu, error)
}

// ProductService encapsulates product use-cases.
type ProductService struct {
	repo         ProductRepository
	menus        MenuLookup
	publications PublicationLookup
	logger       logrus.FieldLogger
}

func NewProductService(repo ProductRepository, menus MenuLookup, publications PublicationLookup, logger logrus.FieldLogger) *ProductService {
	return &ProductService{repo: repo, menus: menus, publications: publications, logger: logger}
}

func (s *ProductService) Create(ctx context.Context, in types.ProductInput) (types.Product, error) {
	if err := s.checkReferences(ctx, in); err != nil {
		return types.Product{}, err
	}
	product := types.Product{
		ID:            uuid.New(),
		Name:          strings.TrimSpace(in.Name),
		Created:       types.NowMillis(),
		InMenu:        in.InMenu,
		Price:         in.Price,
		Score:         in.Score,
		PublicationID: in.PublicationID,
		MenuID:        in.MenuID,
	}
	if err := s.repo.Save(ctx, product); err != nil {
		return types.Product{}, err
	}
	s.logger.WithField("product_id", product.ID).Info("product created")
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, in types.ProductUpdate) (int64, error) {
	current, err := s.repo.FindByID(ctx, in.ID)
	if err != nil {
		return 0, err
	}
	if err := s.checkReferences(ctx, in.ProductInput); err != nil {
		return 0, err
	}
	now := types.NowMillis()
	current.Name = strings.TrimSpace(in.Name)
	current.InMenu = in.InMenu
	current.Price = in.Price
	current.Score = in.Score
	current.PublicationID = in.PublicationID
	current.MenuID = in.MenuID
	current.Updated = &now
	return s.repo.Update(ctx, current)
}

// checkReferences fails with ErrNotFound when a referenced menu or
// publication does not exist.
func (s *ProductService) checkReferences(ctx context.Context, in types.ProductInput) error {
	if in.MenuID != nil {
		if _, err := s.menus.FindByID(ctx, *in.MenuID); err != nil {
			return err
		}
	}
	if in.PublicationID != nil {
		if _, err := s.publications.FindByID(ctx, *in.PublicationID); err != nil {
			return err
		}
	}
	return nil
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return affected(s.repo.Delete(ctx, id))
}

func (s *ProductService) DeleteAll(ctx context.Context) (int64, error) {
	return s.repo.DeleteAll(ctx)
}

func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (types.Product, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ProductService) List(ctx context.Context) ([]types.Product, error) {
	return s.repo.FindAll(ctx)
}

func (s *ProductService) FindByPublication(ctx context.Context, publicationID uuid.UUID) ([]types.Product, error) {
	return s.repo.FindByPublication(ctx, publicationID)
}

func (s *ProductService) FindByMenu(ctx context.Context, menuID uuid.UUID) ([]types.Product, error) {
	return s.repo.FindByMenu(ctx, menuID)
}
