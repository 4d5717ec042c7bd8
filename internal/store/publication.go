package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/toteco/apiserver/types"
)

const publicationColumns = `id, created, updated, total_price, total_score, photo, comment, establishment_id, user_id`

// PublicationRepository handles persistence for publications.
type PublicationRepository struct {
	db Queryer
}

func NewPublicationRepository(db Queryer) *PublicationRepository {
	return &PublicationRepository{db: db}
}

func (r *PublicationRepository) Save(ctx context.Context, publication types.Publication) error {
	const query = `
		INSERT INTO publications (id, created, updated, total_price, total_score, photo, comment, establishment_id, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query, publicationArgs(publication)...)
	return wrap("save publication", err)
}

func (r *PublicationRepository) Update(ctx context.Context, publication types.Publication) (int64, error) {
	const query = `
		INSERT INTO publications (id, created, updated, total_price, total_score, photo, comment, establishment_id, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET created = EXCLUDED.created,
			updated = EXCLUDED.updated,
			total_price = EXCLUDED.total_price,
			total_score = EXCLUDED.total_score,
			photo = EXCLUDED.photo,
			comment = EXCLUDED.comment,
			establishment_id = EXCLUDED.establishment_id,
			user_id = EXCLUDED.user_id`
	result, err := r.db.ExecContext(ctx, query, publicationArgs(publication)...)
	return rowsAffected("update publication", result, err)
}

func (r *PublicationRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	const query = `DELETE FROM publications WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	return rowsAffected("delete publication", result, err)
}

func (r *PublicationRepository) DeleteAll(ctx context.Context) (int64, error) {
	const query = `DELETE FROM publications`
	result, err := r.db.ExecContext(ctx, query)
	return rowsAffected("delete all publications", result, err)
}

func (r *PublicationRepository) FindByID(ctx context.Context, id uuid.UUID) (types.Publication, error) {
	const query = `SELECT ` + publicationColumns + ` FROM publications WHERE id = $1`
	var publication types.Publication
	if err := r.db.GetContext(ctx, &publication, query, id); err != nil {
		return types.Publication{}, wrap("find publication", err)
	}
	return publication, nil
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
// A writer that waited on the lock reads the committed row, including any
// establishment or user it was moved to.
func (r *PublicationRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (types.Publication, error) {
	const query = `SELECT ` + publicationColumns + ` FROM publications WHERE id = $1 FOR UPDATE`
	var publication types.Publication
	if err := r.db.GetContext(ctx, &publication, query, id); err != nil {
		return types.Publication{}, wrap("lock publication", err)
	}
	return publication, nil
}

func (r *PublicationRepository) FindAll(ctx context.Context) ([]types.Publication, error) {
	const query = `SELECT ` + publicationColumns + ` FROM publications ORDER BY created, id`
	return r.selectPublications(ctx, "find publications", query)
}

func (r *PublicationRepository) FindByEstablishment(ctx context.Context, establishmentID uuid.UUID) ([]types.Publication, error) {
	const query = `SELECT ` + publicationColumns + ` FROM publications WHERE establishment_id = $1 ORDER BY created, id`
	return r.selectPublications(ctx, "find publications by establishment", query, establishmentID)
}

func (r *PublicationRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]types.Publication, error) {
	const query = `SELECT ` + publicationColumns + ` FROM publications WHERE user_id = $1 ORDER BY created, id`
	return r.selectPublications(ctx, "find publications by user", query, userID)
}

func (r *PublicationRepository) selectPublications(ctx context.Context, op, query string, args ...any) ([]types.Publication, error) {
	publications := []types.Publication{}
	if err := r.db.SelectContext(ctx, &publications, query, args...); err != nil {
		return nil, wrap(op, err)
	}
	return publications, nil
}

func publicationArgs(p types.Publication) []any {
	return []any{
		p.ID,
		p.Created,
		p.Updated,
		p.TotalPrice,
		p.TotalScore,
		p.Photo,
		p.Comment,
		p.EstablishmentID,
		p.UserID,
	}
}
