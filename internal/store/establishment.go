package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/toteco/apiserver/types"
)

const establishmentColumns = `id, name, created, updated, location, is_open, is_computer_allowed, maps_id, score`

// EstablishmentRepository handles persistence for establishments.
type EstablishmentRepository struct {
	db Queryer
}

func NewEstablishmentRepository(db Queryer) *EstablishmentRepository {
	return &EstablishmentRepository{db: db}
}

func (r *EstablishmentRepository) Save(ctx context.Context, establishment types.Establishment) error {
	const query = `
		INSERT INTO establishments (id, name, created, updated, location, is_open, is_computer_allowed, maps_id, score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query, establishmentArgs(establishment)...)
	return wrap("save establishment", err)
}

// Update writes the complete record. Callers supply every column.
func (r *EstablishmentRepository) Update(ctx context.Context, establishment types.Establishment) (int64, error) {
	const query = `
		INSERT INTO establishments (id, name, created, updated, location, is_open, is_computer_allowed, maps_id, score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			created = EXCLUDED.created,
			updated = EXCLUDED.updated,
			location = EXCLUDED.location,
			is_open = EXCLUDED.is_open,
			is_computer_allowed = EXCLUDED.is_computer_allowed,
			maps_id = EXCLUDED.maps_id,
			score = EXCLUDED.score`
	result, err := r.db.ExecContext(ctx, query, establishmentArgs(establishment)...)
	return rowsAffected("update establishment", result, err)
}

func (r *EstablishmentRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	const query = `DELETE FROM establishments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	return rowsAffected("delete establishment", result, err)
}

func (r *EstablishmentRepository) DeleteAll(ctx context.Context) (int64, error) {
	const query = `DELETE FROM establishments`
	result, err := r.db.ExecContext(ctx, query)
	return rowsAffected("delete all establishments", result, err)
}

func (r *EstablishmentRepository) FindByID(ctx context.Context, id uuid.UUID) (types.Establishment, error) {
	const query = `SELECT ` + establishmentColumns + ` FROM establishments WHERE id = $1`
	var establishment types.Establishment
	if err := r.db.GetContext(ctx, &establishment, query, id); err != nil {
		return types.Establishment{}, wrap("find establishment", err)
	}
	return establishment, nil
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
func (r *EstablishmentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (types.Establishment, error) {
	const query = `SELECT ` + establishmentColumns + ` FROM establishments WHERE id = $1 FOR UPDATE`
	var establishment types.Establishment
	if err := r.db.GetContext(ctx, &establishment, query, id); err != nil {
		return types.Establishment{}, wrap("lock establishment", err)
	}
	return establishment, nil
}

func (r *EstablishmentRepository) FindAll(ctx context.Context) ([]types.Establishment, error) {
	const query = `SELECT ` + establishmentColumns + ` FROM establishments ORDER BY created, id`
	return r.selectEstablishments(ctx, "find establishments", query)
}

func (r *EstablishmentRepository) FindByName(ctx context.Context, name string) ([]types.Establishment, error) {
	const query = `SELECT ` + establishmentColumns + ` FROM establishments WHERE name = $1 ORDER BY created, id`
	return r.selectEstablishments(ctx, "find establishments by name", query, name)
}

func (r *EstablishmentRepository) FindByMapsID(ctx context.Context, mapsID string) ([]types.Establishment, error) {
	const query = `SELECT ` + establishmentColumns + ` FROM establishments WHERE maps_id = $1 ORDER BY created, id`
	return r.selectEstablishments(ctx, "find establishments by maps id", query, mapsID)
}

// RefreshScore overwrites the score with the rounded average total_score of
// every publication referencing the establishment.
func (r *EstablishmentRepository) RefreshScore(ctx context.Context, id uuid.UUID) (int64, error) {
	const query = `
		UPDATE establishments
		SET score = (
			SELECT COALESCE(ROUND(AVG(total_score), 2), 0)
			FROM publications
			WHERE establishment_id = $1
		)
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	return rowsAffected("refresh establishment score", result, err)
}

// RefreshAllScores recomputes the score of every establishment.
func (r *EstablishmentRepository) RefreshAllScores(ctx context.Context) (int64, error) {
	const query = `
		UPDATE establishments e
		SET score = (
			SELECT COALESCE(ROUND(AVG(p.total_score), 2), 0)
			FROM publications p
			WHERE p.establishment_id = e.id
		)`
	result, err := r.db.ExecContext(ctx, query)
	return rowsAffected("refresh establishment scores", result, err)
}

func (r *EstablishmentRepository) selectEstablishments(ctx context.Context, op, query string, args ...any) ([]types.Establishment, error) {
	establishments := []types.Establishment{}
	if err := r.db.SelectContext(ctx, &establishments, query, args...); err != nil {
		return nil, wrap(op, err)
	}
	return establishments, nil
}

func establishmentArgs(e types.Establishment) []any {
	return []any{
		e.ID,
		e.Name,
		e.Created,
		e.Updated,
		e.Location,
		e.IsOpen,
		e.IsComputerAllowed,
		e.MapsID,
		e.Score,
	}
}
