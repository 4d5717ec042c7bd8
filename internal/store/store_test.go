package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toteco/apiserver/types"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return New(sqlx.NewDb(db, "postgres")), mock
}

var establishmentRowColumns = []string{
	"id", "name", "created", "updated", "location", "is_open", "is_computer_allowed", "maps_id", "score",
}

func TestEstablishmentFindByIDScansRow(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM establishments WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows(establishmentRowColumns).
			AddRow(id.String(), "Bar Pepe", int64(1700000000000), nil, "Calle Mayor 1", true, false, "abc", "4.50"))

	got, err := s.Establishments.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Bar Pepe", got.Name)
	assert.Nil(t, got.Updated)
	require.NotNil(t, got.MapsID)
	assert.Equal(t, "abc", *got.MapsID)
	assert.True(t, got.Score.Equal(decimal.RequireFromString("4.5")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDMissingRowIsNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM menus WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnError(sql.ErrNoRows)

	_, err := s.Menus.FindByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverFailureIsWrapped(t *testing.T) {
	s, mock := newMockStore(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery(`SELECT .* FROM products`).WillReturnError(boom)

	_, err := s.Products.FindAll(context.Background())
	var storeErr *Error
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "find products", storeErr.Op)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestFindAllReturnsEmptySlice(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .* FROM publications ORDER BY created, id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	got, err := s.Publications.FindAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestUpdateIsUpsertReportingRowsAffected(t *testing.T) {
	s, mock := newMockStore(t)
	menu := types.Menu{
		ID:      uuid.New(),
		Created: 1,
		Price:   decimal.RequireFromString("12.50"),
		Score:   decimal.RequireFromString("8"),
	}

	mock.ExpectExec(`INSERT INTO menus .* ON CONFLICT \(id\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := s.Menus.Update(context.Background(), menu)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteReportsZeroRowsForUnknownID(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM products WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := s.Products.Delete(context.Background(), id)
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestUserFindByUsernameBindsArgument(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .* FROM users WHERE username = \$1`).
		WithArgs("pepe").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "money_spent", "publications_number", "recovery_code"}).
			AddRow(uuid.NewString(), "pepe", "20.00", int64(2), int64(12345)))

	users, err := s.Users.FindByUsername(context.Background(), "pepe")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, 2, users[0].PublicationsNumber)
	require.NotNil(t, users[0].RecoveryCode)
	assert.Equal(t, int64(12345), *users[0].RecoveryCode)
}

func TestUpdateRecoveryCodeClearsWithNil(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE users SET recovery_code = \$2, updated = \$3 WHERE id = \$1`).
		WithArgs(id.String(), nil, int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := s.Users.UpdateRecoveryCode(context.Background(), id, nil, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicationFindByIDForUpdateLocksRow(t *testing.T) {
	s, mock := newMockStore(t)
	id, establishmentID := uuid.New(), uuid.New()

	mock.ExpectQuery(`FROM publications WHERE id = \$1 FOR UPDATE`).
		WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "establishment_id"}).
			AddRow(id.String(), establishmentID.String()))

	publication, err := s.Publications.FindByIDForUpdate(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, publication.EstablishmentID)
	assert.Equal(t, establishmentID, *publication.EstablishmentID)

	mock.ExpectQuery(`FROM publications WHERE id = \$1 FOR UPDATE`).
		WillReturnError(sql.ErrNoRows)
	_, err = s.Publications.FindByIDForUpdate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxCommitsOnSuccess(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE establishments\s+SET score`).
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users\s+SET money_spent = agg.total`).
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.WithinTx(context.Background(), func(tx *Store) error {
		if _, err := tx.Establishments.RefreshScore(context.Background(), id); err != nil {
			return err
		}
		_, err := tx.Users.RefreshAggregates(context.Background(), id)
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	s, mock := newMockStore(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := s.WithinTx(context.Background(), func(tx *Store) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxNestedReusesTransaction(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := s.WithinTx(context.Background(), func(tx *Store) error {
		return tx.WithinTx(context.Background(), func(inner *Store) error {
			assert.Same(t, tx, inner)
			return nil
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTxRollsBackOnPanic(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = s.WithinTx(context.Background(), func(tx *Store) error {
			panic("kaboom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}
