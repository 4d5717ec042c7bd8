package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Queryer is satisfied by both *sqlx.DB and *sqlx.Tx, so every repository
// runs unchanged inside or outside a transaction.
type Queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// Store groups the repositories over one connection pool or one transaction.
type Store struct {
	db *sqlx.DB

	Establishments *EstablishmentRepository
	Menus          *MenuRepository
	Products       *ProductRepository
	Publications   *PublicationRepository
	Users          *UserRepository
}

// New builds a Store over the shared pool.
func New(db *sqlx.DB) *Store {
	s := newStore(db)
	s.db = db
	return s
}

func newStore(q Queryer) *Store {
	return &Store{
		Establishments: NewEstablishmentRepository(q),
		Menus:          NewMenuRepository(q),
		Products:       NewProductRepository(q),
		Publications:   NewPublicationRepository(q),
		Users:          NewUserRepository(q),
	}
}

// WithinTx runs fn against repositories bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise,
// including when fn panics. Calling WithinTx on a transaction-bound Store
// reuses the open transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(tx *Store) error) (err error) {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return wrap("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
			}
			return
		}
		if commitErr := tx.Commit(); commitErr != nil {
			err = wrap("commit transaction", commitErr)
		}
	}()

	return fn(newStore(tx))
}

// Ping checks that the pool can reach the database.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.PingContext(ctx)
}

func rowsAffected(op string, result sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, wrap(op, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, wrap(op, err)
	}
	return affected, nil
}
