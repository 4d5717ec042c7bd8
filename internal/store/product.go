package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/toteco/apiserver/types"
)

const productColumns = `id, name, created, updated, in_menu, price, score, publication_id, menu_id`

// ProductRepository handles persistence for products.
type ProductRepository struct {
	db Queryer
}

func NewProductRepository(db Queryer) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Save(ctx context.Context, product types.Product) error {
	const query = `
		INSERT INTO products (id, name, created, updated, in_menu, price, score, publication_id, menu_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query, productArgs(product)...)
	return wrap("save product", err)
}

func (r *ProductRepository) Update(ctx context.Context, product types.Product) (int64, error) {
	const query = `
		INSERT INTO products (id, name, created, updated, in_menu, price, score, publication_id, menu_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			created = EXCLUDED.created,
			updated = EXCLUDED.updated,
			in_menu = EXCLUDED.in_menu,
			price = EXCLUDED.price,
			score = EXCLUDED.score,
			publication_id = EXCLUDED.publication_id,
			menu_id = EXCLUDED.menu_id`
	result, err := r.db.ExecContext(ctx, query, productArgs(product)...)
	return rowsAffected("update product", result, err)
}

func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	const query = `DELETE FROM products WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	return rowsAffected("delete product", result, err)
}

func (r *ProductRepository) DeleteAll(ctx context.Context) (int64, error) {
	const query = `DELETE FROM products`
	result, err := r.db.ExecContext(ctx, query)
	return rowsAffected("delete all products", result, err)
}

func (r *ProductRepository) FindByID(ctx context.Context, id uuid.UUID) (types.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	var product types.Product
	if err := r.db.GetContext(ctx, &product, query, id); err != nil {
		return types.Product{}, wrap("find product", err)
	}
	return product, nil
}

func (r *ProductRepository) FindAll(ctx context.Context) ([]types.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products ORDER BY created, id`
	return r.selectProducts(ctx, "find products", query)
}

func (r *ProductRepository) FindByPublication(ctx context.Context, publicationID uuid.UUID) ([]types.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE publication_id = $1 ORDER BY created, id`
	return r.selectProducts(ctx, "find products by publication", query, publicationID)
}

func (r *ProductRepository) FindByMenu(ctx context.Context, menuID uuid.UUID) ([]types.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE menu_id = $1 ORDER BY created, id`
	return r.selectProducts(ctx, "find products by menu", query, menuID)
}

func (r *ProductRepository) selectProducts(ctx context.Context, op, query string, args ...any) ([]types.Product, error) {
	products := []types.Product{}
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, wrap(op, err)
	}
	return products, nil
}

func productArgs(p types.Product) []any {
	return []any{
		p.ID,
		p.Name,
		p.Created,
		p.Updated,
		p.InMenu,
		p.Price,
		p.Score,
		p.PublicationID,
		p.MenuID,
	}
}
