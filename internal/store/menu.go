package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/toteco/apiserver/types"
)

const menuColumns = `id, created, updated, price, score`

// MenuRepository handles persistence for menus.
type MenuRepository struct {
	db Queryer
}

func NewMenuRepository(db Queryer) *MenuRepository {
	return &MenuRepository{db: db}
}

func (r *MenuRepository) Save(ctx context.Context, menu types.Menu) error {
	const query = `
		INSERT INTO menus (id, created, updated, price, score)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, menu.ID, menu.Created, menu.Updated, menu.Price, menu.Score)
	return wrap("save menu", err)
}

func (r *MenuRepository) Update(ctx context.Context, menu types.Menu) (int64, error) {
	const query = `
		INSERT INTO menus (id, created, updated, price, score)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET created = EXCLUDED.created,
			updated = EXCLUDED.updated,
			price = EXCLUDED.price,
			score = EXCLUDED.score`
	result, err := r.db.ExecContext(ctx, query, menu.ID, menu.Created, menu.Updated, menu.Price, menu.Score)
	return rowsAffected("update menu", result, err)
}

func (r *MenuRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	const query = `DELETE FROM menus WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	return rowsAffected("delete menu", result, err)
}

func (r *MenuRepository) DeleteAll(ctx context.Context) (int64, error) {
	const query = `DELETE FROM menus`
	result, err := r.db.ExecContext(ctx, query)
	return rowsAffected("delete all menus", result, err)
}

func (r *MenuRepository) FindByID(ctx context.Context, id uuid.UUID) (types.Menu, error) {
	const query = `SELECT ` + menuColumns + ` FROM menus WHERE id = $1`
	var menu types.Menu
	if err := r.db.GetContext(ctx, &menu, query, id); err != nil {
		return types.Menu{}, wrap("find menu", err)
	}
	return menu, nil
}

func (r *MenuRepository) FindAll(ctx context.Context) ([]types.Menu, error) {
	const query = `SELECT ` + menuColumns + ` FROM menus ORDER BY created, id`
	menus := []types.Menu{}
	if err := r.db.SelectContext(ctx, &menus, query); err != nil {
		return nil, wrap("find menus", err)
	}
	return menus, nil
}
