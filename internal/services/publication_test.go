package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toteco/apiserver/internal/store"
	"github.com/toteco/apiserver/types"
)

func newTestPublicationService(t *testing.T) (*PublicationService, sqlmock.Sqlmock, *logtest.Hook) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	st := store.New(sqlx.NewDb(db, "postgres"))
	logger, hook := logtest.NewNullLogger()
	return NewPublicationService(st, st.Publications, st.Products, logger), mock, hook
}

func publicationInput() types.PublicationInput {
	return types.PublicationInput{
		TotalPrice:      decimal.RequireFromString("20.00"),
		TotalScore:      decimal.RequireFromString("8.5"),
		Photo:           "photos/visit.jpg",
		EstablishmentID: uuid.New(),
		UserID:          uuid.New(),
	}
}

func TestPublicationCreateRunsInOneTransaction(t *testing.T) {
	svc, mock, _ := newTestPublicationService(t)
	in := publicationInput()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM establishments WHERE id = \$1 FOR UPDATE`).
		WithArgs(in.EstablishmentID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(in.EstablishmentID.String()))
	mock.ExpectQuery(`FROM users WHERE id = \$1 FOR UPDATE`).
		WithArgs(in.UserID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(in.UserID.String()))
	mock.ExpectExec(`INSERT INTO publications`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE establishments\s+SET score`).
		WithArgs(in.EstablishmentID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users\s+SET money_spent = agg.total, publications_number = agg.count`).
		WithArgs(in.UserID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	created, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.NotZero(t, created.Created)
	require.NotNil(t, created.EstablishmentID)
	assert.Equal(t, in.EstablishmentID, *created.EstablishmentID)
	require.NotNil(t, created.UserID)
	assert.Equal(t, in.UserID, *created.UserID)
	assert.NotNil(t, created.Products)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicationCreateUnknownEstablishmentRollsBack(t *testing.T) {
	svc, mock, _ := newTestPublicationService(t)
	in := publicationInput()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM establishments WHERE id = \$1 FOR UPDATE`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicationCreateRollsBackWhenAggregateFails(t *testing.T) {
	svc, mock, _ := newTestPublicationService(t)
	in := publicationInput()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(in.EstablishmentID.String()))
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(in.UserID.String()))
	mock.ExpectExec(`INSERT INTO publications`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE establishments`).WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), in)
	var storeErr *store.Error
	require.ErrorAs(t, err, &storeErr)
	assert.Contains(t, err.Error(), "deadlock detected")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicationDeleteRecomputesAggregates(t *testing.T) {
	svc, mock, _ := newTestPublicationService(t)
	id := uuid.New()
	establishmentID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM publications WHERE id = \$1 FOR UPDATE`).
		WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "establishment_id", "user_id"}).
			AddRow(id.String(), establishmentID.String(), nil))
	mock.ExpectQuery(`FROM establishments WHERE id = \$1 FOR UPDATE`).
		WithArgs(establishmentID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(establishmentID.String()))
	mock.ExpectExec(`DELETE FROM publications WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE establishments\s+SET score`).
		WithArgs(establishmentID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rows, err := svc.Delete(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicationUpdateLocksRowBeforeReadingReferences(t *testing.T) {
	svc, mock, _ := newTestPublicationService(t)
	id := uuid.New()
	oldEstablishment, oldUser := uuid.New(), uuid.New()
	in := types.PublicationUpdate{ID: id, PublicationInput: publicationInput()}

	establishments := sortedUnique([]uuid.UUID{in.EstablishmentID, oldEstablishment})
	users := sortedUnique([]uuid.UUID{in.UserID, oldUser})

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM publications WHERE id = \$1 FOR UPDATE`).
		WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created", "establishment_id", "user_id"}).
			AddRow(id.String(), int64(1700000000000), oldEstablishment.String(), oldUser.String()))
	for _, eid := range establishments {
		mock.ExpectQuery(`FROM establishments WHERE id = \$1 FOR UPDATE`).
			WithArgs(eid.String()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(eid.String()))
	}
	for _, uid := range users {
		mock.ExpectQuery(`FROM users WHERE id = \$1 FOR UPDATE`).
			WithArgs(uid.String()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uid.String()))
	}
	mock.ExpectExec(`(?s)INSERT INTO publications.*ON CONFLICT \(id\) DO UPDATE`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	for _, eid := range establishments {
		mock.ExpectExec(`UPDATE establishments\s+SET score`).
			WithArgs(eid.String()).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	for _, uid := range users {
		mock.ExpectExec(`UPDATE users\s+SET money_spent = agg.total, publications_number = agg.count`).
			WithArgs(uid.String()).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	rows, err := svc.Update(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicationUpdateUnknownRollsBack(t *testing.T) {
	svc, mock, _ := newTestPublicationService(t)
	in := types.PublicationUpdate{ID: uuid.New(), PublicationInput: publicationInput()}

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM publications WHERE id = \$1 FOR UPDATE`).
		WithArgs(in.ID.String()).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.Update(context.Background(), in)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicationDeleteAllResetsEveryAggregate(t *testing.T) {
	svc, mock, _ := newTestPublicationService(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM publications`).WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(`UPDATE establishments e`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE users u`).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	rows, err := svc.DeleteAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublicationReadsAttachProducts(t *testing.T) {
	svc, mock, _ := newTestPublicationService(t)
	id := uuid.New()

	mock.ExpectQuery(`FROM publications WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))
	mock.ExpectQuery(`FROM products WHERE publication_id = \$1`).
		WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(uuid.NewString(), "Caña"))

	got, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, got.Products, 1)
	assert.Equal(t, "Caña", got.Products[0].Name)
}

func TestPublicationReadsFailOpenOnProductLookup(t *testing.T) {
	svc, mock, hook := newTestPublicationService(t)
	first, second := uuid.New(), uuid.New()

	mock.ExpectQuery(`FROM publications ORDER BY`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(first.String()).AddRow(second.String()))
	mock.ExpectQuery(`FROM products WHERE publication_id = \$1`).
		WithArgs(first.String()).
		WillReturnError(errors.New("timeout"))
	mock.ExpectQuery(`FROM products WHERE publication_id = \$1`).
		WithArgs(second.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	got, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].Products)
	assert.NotNil(t, got[1].Products)
	assert.Empty(t, got[1].Products)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestSortedUniqueOrdersAndDeduplicates(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	assert.Equal(t, []uuid.UUID{a, b}, sortedUnique([]uuid.UUID{b, a, b}))
	assert.Empty(t, sortedUnique(nil))
}
