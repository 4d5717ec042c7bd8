package services

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/toteco/apiserver/internal/store"
	"github.com/toteco/apiserver/types"
)

// Transactor runs fn with repositories bound to one database transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx *store.Store) error) error
}

// PublicationReader defines read operations for publications.
type PublicationReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (types.Publication, error)
	FindAll(ctx context.Context) ([]types.Publication, error)
	FindByEstablishment(ctx context.Context, establishmentID uuid.UUID) ([]types.Publication, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]types.Publication, error)
}

// ProductFinder lists the products attached to a publication.
type ProductFinder interface {
	FindByPublication(ctx context.Context, publicationID uuid.UUID) ([]types.Product, error)
}

// PublicationService encapsulates publication use-cases. Every write runs in
// a single transaction together with the recomputation of the establishment
// score and the author's aggregates, so they never drift from the rows they
// summarize.
type PublicationService struct {
	tx           Transactor
	publications PublicationReader
	products     ProductFinder
	logger       logrus.FieldLogger
}

func NewPublicationService(tx Transactor, publications PublicationReader, products ProductFinder, logger logrus.FieldLogger) *PublicationService {
	return &PublicationService{tx: tx, publications: publications, products: products, logger: logger}
}

// Create stores a publication for an existing establishment and user.
// The establishment and user rows stay locked until commit, which serializes
// concurrent publications against the same establishment or author.
func (s *PublicationService) Create(ctx context.Context, in types.PublicationInput) (types.Publication, error) {
	establishmentID := in.EstablishmentID
	userID := in.UserID
	publication := types.Publication{
		ID:              uuid.New(),
		Created:         types.NowMillis(),
		TotalPrice:      in.TotalPrice,
		TotalScore:      in.TotalScore,
		Photo:           in.Photo,
		Comment:         in.Comment,
		EstablishmentID: &establishmentID,
		UserID:          &userID,
		Products:        []types.Product{},
	}

	err := s.tx.WithinTx(ctx, func(tx *store.Store) error {
		if err := lockReferences(ctx, tx, []uuid.UUID{establishmentID}, []uuid.UUID{userID}); err != nil {
			return err
		}
		if err := tx.Publications.Save(ctx, publication); err != nil {
			return err
		}
		return refreshAggregates(ctx, tx, []uuid.UUID{establishmentID}, []uuid.UUID{userID})
	})
	if err != nil {
		return types.Publication{}, err
	}

	s.logger.WithFields(logrus.Fields{
		"publication_id":   publication.ID,
		"establishment_id": establishmentID,
		"user_id":          userID,
	}).Info("publication created")
	return publication, nil
}

// Update replaces a publication and recomputes the aggregates of both its
// previous and its new establishment and author. The publication row is
// locked before its references are read, so a concurrent move cannot leave
// an establishment or author out of the recomputation.
func (s *PublicationService) Update(ctx context.Context, in types.PublicationUpdate) (int64, error) {
	var rows int64
	err := s.tx.WithinTx(ctx, func(tx *store.Store) error {
		current, err := tx.Publications.FindByIDForUpdate(ctx, in.ID)
		if err != nil {
			return err
		}

		establishments := []uuid.UUID{in.EstablishmentID}
		users := []uuid.UUID{in.UserID}
		if current.EstablishmentID != nil {
			establishments = append(establishments, *current.EstablishmentID)
		}
		if current.UserID != nil {
			users = append(users, *current.UserID)
		}
		if err := lockReferences(ctx, tx, establishments, users); err != nil {
			return err
		}

		now := types.NowMillis()
		establishmentID := in.EstablishmentID
		userID := in.UserID
		current.TotalPrice = in.TotalPrice
		current.TotalScore = in.TotalScore
		current.Photo = in.Photo
		current.Comment = in.Comment
		current.EstablishmentID = &establishmentID
		current.UserID = &userID
		current.Updated = &now

		if rows, err = tx.Publications.Update(ctx, current); err != nil {
			return err
		}
		return refreshAggregates(ctx, tx, establishments, users)
	})
	if err != nil {
		return 0, err
	}
	return rows, nil
}

// Delete removes a publication and recomputes the aggregates it fed. The row
// is locked first, as in Update.
func (s *PublicationService) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	var rows int64
	err := s.tx.WithinTx(ctx, func(tx *store.Store) error {
		current, err := tx.Publications.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		var establishments, users []uuid.UUID
		if current.EstablishmentID != nil {
			establishments = append(establishments, *current.EstablishmentID)
		}
		if current.UserID != nil {
			users = append(users, *current.UserID)
		}
		if err := lockReferences(ctx, tx, establishments, users); err != nil {
			return err
		}

		if rows, err = affected(tx.Publications.Delete(ctx, id)); err != nil {
			return err
		}
		return refreshAggregates(ctx, tx, establishments, users)
	})
	if err != nil {
		return 0, err
	}
	return rows, nil
}

// DeleteAll removes every publication and resets every aggregate.
func (s *PublicationService) DeleteAll(ctx context.Context) (int64, error) {
	var rows int64
	err := s.tx.WithinTx(ctx, func(tx *store.Store) error {
		var err error
		if rows, err = tx.Publications.DeleteAll(ctx); err != nil {
			return err
		}
		if _, err := tx.Establishments.RefreshAllScores(ctx); err != nil {
			return err
		}
		_, err = tx.Users.RefreshAllAggregates(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.logger.WithField("rows", rows).Info("publications deleted")
	return rows, nil
}

func (s *PublicationService) Get(ctx context.Context, id uuid.UUID) (types.Publication, error) {
	publication, err := s.publications.FindByID(ctx, id)
	if err != nil {
		return types.Publication{}, err
	}
	s.attachProducts(ctx, &publication)
	return publication, nil
}

func (s *PublicationService) List(ctx context.Context) ([]types.Publication, error) {
	return s.enrich(ctx)(s.publications.FindAll(ctx))
}

func (s *PublicationService) FindByEstablishment(ctx context.Context, establishmentID uuid.UUID) ([]types.Publication, error) {
	return s.enrich(ctx)(s.publications.FindByEstablishment(ctx, establishmentID))
}

func (s *PublicationService) FindByUser(ctx context.Context, userID uuid.UUID) ([]types.Publication, error) {
	return s.enrich(ctx)(s.publications.FindByUser(ctx, userID))
}

func (s *PublicationService) enrich(ctx context.Context) func([]types.Publication, error) ([]types.Publication, error) {
	return func(publications []types.Publication, err error) ([]types.Publication, error) {
		if err != nil {
			return nil, err
		}
		for i := range publications {
			s.attachProducts(ctx, &publications[i])
		}
		return publications, nil
	}
}

// attachProducts loads the products of p. A failed lookup leaves p.Products
// nil and does not fail the read.
func (s *PublicationService) attachProducts(ctx context.Context, p *types.Publication) {
	products, err := s.products.FindByPublication(ctx, p.ID)
	if err != nil {
		s.logger.WithError(err).WithField("publication_id", p.ID).Warn("failed to load publication products")
		p.Products = nil
		return
	}
	p.Products = products
}

// lockReferences locks the given establishment and user rows, establishments
// first and each kind in id order, so concurrent writers acquire locks in the
// same sequence.
func lockReferences(ctx context.Context, tx *store.Store, establishments, users []uuid.UUID) error {
	for _, id := range sortedUnique(establishments) {
		if _, err := tx.Establishments.FindByIDForUpdate(ctx, id); err != nil {
			return err
		}
	}
	for _, id := range sortedUnique(users) {
		if _, err := tx.Users.FindByIDForUpdate(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func refreshAggregates(ctx context.Context, tx *store.Store, establishments, users []uuid.UUID) error {
	for _, id := range sortedUnique(establishments) {
		if _, err := tx.Establishments.RefreshScore(ctx, id); err != nil {
			return err
		}
	}
	for _, id := range sortedUnique(users) {
		if _, err := tx.Users.RefreshAggregates(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func sortedUnique(ids []uuid.UUID) []uuid.UUID {
	out := slices.Clone(ids)
	slices.SortFunc(out, func(a, b uuid.UUID) int {
		return slices.Compare(a[:], b[:])
	})
	return slices.Compact(out)
}
