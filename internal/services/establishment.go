package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/toteco/apiserver/types"
)

// EstablishmentRepository defines persistence operations for establishments.
type EstablishmentRepository interface {
	Save(ctx context.Context, establishment types.Establishment) error
	Update(ctx context.Context, establishment types.Establishment) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (types.Establishment, error)
	FindAll(ctx context.Context) ([]types.Establishment, error)
	FindByName(ctx context.Context, name string) ([]types.Establishment, error)
	FindByMapsID(ctx context.Context, mapsID string) ([]types.Establishment, error)
}

// EstablishmentService encapsulates establishment use-cases.
type EstablishmentService struct {
	repo   EstablishmentRepository
	logger logrus.FieldLogger
}

func NewEstablishmentService(repo EstablishmentRepository, logger logrus.FieldLogger) *EstablishmentService {
	return &EstablishmentService{repo: repo, logger: logger}
}

// Create stores a new establishment. It starts open unless told otherwise,
// with a zero score.
func (s *EstablishmentService) Create(ctx context.Context, in types.EstablishmentInput) (types.Establishment, error) {
	establishment := types.Establishment{
		ID:                uuid.New(),
		Name:              strings.TrimSpace(in.Name),
		Created:           types.NowMillis(),
		Location:          strings.TrimSpace(in.Location),
		IsOpen:            true,
		IsComputerAllowed: in.IsComputerAllowed,
		MapsID:            in.MapsID,
		Score:             decimal.Zero,
	}
	if in.IsOpen != nil {
		establishment.IsOpen = *in.IsOpen
	}
	if err := s.repo.Save(ctx, establishment); err != nil {
		return types.Establishment{}, err
	}
	s.logger.WithField("establishment_id", establishment.ID).Info("establishment created")
	return establishment, nil
}

// Update replaces the client-owned fields. The score is derived from
// publications and is never taken from the request.
func (s *EstablishmentService) Update(ctx context.Context, in types.EstablishmentUpdate) (int64, error) {
	current, err := s.repo.FindByID(ctx, in.ID)
	if err != nil {
		return 0, err
	}
	now := types.NowMillis()
	current.Name = strings.TrimSpace(in.Name)
	current.Location = strings.TrimSpace(in.Location)
	current.IsComputerAllowed = in.IsComputerAllowed
	current.MapsID = in.MapsID
	current.Updated = &now
	if in.IsOpen != nil {
		current.IsOpen = *in.IsOpen
	}
	return s.repo.Update(ctx, current)
}

func (s *EstablishmentService) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	return affected(s.repo.Delete(ctx, id))
}

func (s *EstablishmentService) DeleteAll(ctx context.Context) (int64, error) {
	return s.repo.DeleteAll(ctx)
}

func (s *EstablishmentService) Get(ctx context.Context, id uuid.UUID) (types.Establishment, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *EstablishmentService) List(ctx context.Context) ([]types.Establishment, error) {
	return s.repo.FindAll(ctx)
}

func (s *EstablishmentService) FindByName(ctx context.Context, name string) ([]types.Establishment, error) {
	return s.repo.FindByName(ctx, name)
}

func (s *EstablishmentService) FindByMapsID(ctx context.Context, mapsID string) ([]types.Establishment, error) {
	return s.repo.FindByMapsID(ctx, mapsID)
}
