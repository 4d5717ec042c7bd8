package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/toteco/apiserver/types"
)

const userColumns = `id, username, name, surname, birth_date, email, password, created, updated, photo,
	is_active, money_spent, publications_number, role, recovery_code`

// UserRepository handles persistence for users.
type UserRepository struct {
	db Queryer
}

func NewUserRepository(db Queryer) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Save(ctx context.Context, user types.User) error {
	const query = `
		INSERT INTO users (id, username, name, surname, birth_date, email, password, created, updated, photo,
			is_active, money_spent, publications_number, role, recovery_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.db.ExecContext(ctx, query, userArgs(user)...)
	return wrap("save user", err)
}

func (r *UserRepository) Update(ctx context.Context, user types.User) (int64, error) {
	const query = `
		INSERT INTO users (id, username, name, surname, birth_date, email, password, created, updated, photo,
			is_active, money_spent, publications_number, role, recovery_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username,
			name = EXCLUDED.name,
			surname = EXCLUDED.surname,
			birth_date = EXCLUDED.birth_date,
			email = EXCLUDED.email,
			password = EXCLUDED.password,
			created = EXCLUDED.created,
			updated = EXCLUDED.updated,
			photo = EXCLUDED.photo,
			is_active = EXCLUDED.is_active,
			money_spent = EXCLUDED.money_spent,
			publications_number = EXCLUDED.publications_number,
			role = EXCLUDED.role,
			recovery_code = EXCLUDED.recovery_code`
	result, err := r.db.ExecContext(ctx, query, userArgs(user)...)
	return rowsAffected("update user", result, err)
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	const query = `DELETE FROM users WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	return rowsAffected("delete user", result, err)
}

func (r *UserRepository) DeleteAll(ctx context.Context) (int64, error) {
	const query = `DELETE FROM users`
	result, err := r.db.ExecContext(ctx, query)
	return rowsAffected("delete all users", result, err)
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	var user types.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return types.User{}, wrap("find user", err)
	}
	return user, nil
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
func (r *UserRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	var user types.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return types.User{}, wrap("lock user", err)
	}
	return user, nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users ORDER BY created, id`
	return r.selectUsers(ctx, "find users", query)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) ([]types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username = $1 ORDER BY created, id`
	return r.selectUsers(ctx, "find users by username", query, username)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) ([]types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1 ORDER BY created, id`
	return r.selectUsers(ctx, "find users by email", query, email)
}

func (r *UserRepository) Activate(ctx context.Context, id uuid.UUID, updated int64) (int64, error) {
	return r.setActive(ctx, "activate user", id, true, updated)
}

func (r *UserRepository) Disable(ctx context.Context, id uuid.UUID, updated int64) (int64, error) {
	return r.setActive(ctx, "disable user", id, false, updated)
}

func (r *UserRepository) setActive(ctx context.Context, op string, id uuid.UUID, active bool, updated int64) (int64, error) {
	const query = `UPDATE users SET is_active = $2, updated = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, active, updated)
	return rowsAffected(op, result, err)
}

// UpdatePassword stores an already hashed password.
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string, updated int64) (int64, error) {
	const query = `UPDATE users SET password = $2, updated = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, hash, updated)
	return rowsAffected("update user password", result, err)
}

// UpdateRecoveryCode sets the recovery code, or clears it when code is nil.
func (r *UserRepository) UpdateRecoveryCode(ctx context.Context, id uuid.UUID, code *int64, updated int64) (int64, error) {
	const query = `UPDATE users SET recovery_code = $2, updated = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, code, updated)
	return rowsAffected("update user recovery code", result, err)
}

// UpdateMoneySpent overwrites money_spent with the sum of total_price over
// the user's publications.
func (r *UserRepository) UpdateMoneySpent(ctx context.Context, id uuid.UUID) (int64, error) {
	const query = `
		UPDATE users
		SET money_spent = (
			SELECT COALESCE(SUM(total_price), 0) FROM publications WHERE user_id = $1
		)
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	return rowsAffected("update user money spent", result, err)
}

// UpdatePublicationsNumber overwrites publications_number with the count of
// the user's publications.
func (r *UserRepository) UpdatePublicationsNumber(ctx context.Context, id uuid.UUID) (int64, error) {
	const query = `
		UPDATE users
		SET publications_number = (
			SELECT COUNT(*) FROM publications WHERE user_id = $1
		)
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	return rowsAffected("update user publications number", result, err)
}

// RefreshAggregates recomputes money_spent and publications_number from the
// publications that reference the user.
func (r *UserRepository) RefreshAggregates(ctx context.Context, id uuid.UUID) (int64, error) {
	const query = `
		UPDATE users
		SET money_spent = agg.total, publications_number = agg.count
		FROM (
			SELECT COALESCE(SUM(total_price), 0) AS total, COUNT(*) AS count
			FROM publications
			WHERE user_id = $1
		) AS agg
		WHERE users.id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	return rowsAffected("refresh user aggregates", result, err)
}

// RefreshAllAggregates recomputes the aggregates of every user.
func (r *UserRepository) RefreshAllAggregates(ctx context.Context) (int64, error) {
	const query = `
		UPDATE users u
		SET money_spent = (
				SELECT COALESCE(SUM(p.total_price), 0) FROM publications p WHERE p.user_id = u.id
			),
			publications_number = (
				SELECT COUNT(*) FROM publications p WHERE p.user_id = u.id
			)`
	result, err := r.db.ExecContext(ctx, query)
	return rowsAffected("refresh all user aggregates", result, err)
}

func (r *UserRepository) selectUsers(ctx context.Context, op, query string, args ...any) ([]types.User, error) {
	users := []types.User{}
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, wrap(op, err)
	}
	return users, nil
}

func userArgs(u types.User) []any {
	return []any{
		u.ID,
		u.Username,
		u.Name,
		u.Surname,
		u.BirthDate,
		u.Email,
		u.Password,
		u.Created,
		u.Updated,
		u.Photo,
		u.IsActive,
		u.MoneySpent,
		u.PublicationsNumber,
		u.Role,
		u.RecoveryCode,
	}
}
