package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/toteco/apiserver/types"
)

type fakeEstablishmentRepo struct {
	rows map[uuid.UUID]types.Establishment
}

func (f *fakeEstablishmentRepo) Save(ctx context.Context, e types.Establishment) error {
	f.rows[e.ID] = e
	return nil
}

func (f *fakeEstablishmentRepo) Update(ctx context.Context, e types.Establishment) (int64, error) {
	f.rows[e.ID] = e
	return 1, nil
}

func (f *fakeEstablishmentRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	if _, ok := f.rows[id]; !ok {
		return 0, nil
	}
	delete(f.rows, id)
	return 1, nil
}

func (f *fakeEstablishmentRepo) DeleteAll(ctx context.Context) (int64, error) {
	n := int64(len(f.rows))
	f.rows = map[uuid.UUID]types.Establishment{}
	return n, nil
}

func (f *fakeEstablishmentRepo) FindByID(ctx context.Context, id uuid.UUID) (types.Establishment, error) {
	e, ok := f.rows[id]
	if !ok {
		return types.Establishment{}, ErrNotFound
	}
	return e, nil
}

func (f *fakeEstablishmentRepo) FindAll(ctx context.Context) ([]types.Establishment, error) {
	out := []types.Establishment{}
	for _, e := range f.rows {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEstablishmentRepo) FindByName(ctx context.Context, name string) ([]types.Establishment, error) {
	out := []types.Establishment{}
	for _, e := range f.rows {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEstablishmentRepo) FindByMapsID(ctx context.Context, mapsID string) ([]types.Establishment, error) {
	out := []types.Establishment{}
	for _, e := range f.rows {
		if e.MapsID != nil && *e.MapsID == mapsID {
			out = append(out, e)
		}
	}
	return out, nil
}

type lookupFunc[T any] func(ctx context.Context, id uuid.UUID) (T, error)

type menuLookup lookupFunc[types.Menu]

func (f menuLookup) FindByID(ctx context.Context, id uuid.UUID) (types.Menu, error) {
	return f(ctx, id)
}

type publicationLookup lookupFunc[types.Publication]

func (f publicationLookup) FindByID(ctx context.Context, id uuid.UUID) (types.Publication, error) {
	return f(ctx, id)
}

func TestEstablishmentCreateDefaults(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	repo := &fakeEstablishmentRepo{rows: map[uuid.UUID]types.Establishment{}}
	svc := NewEstablishmentService(repo, logger)

	mapsID := "ChIJ123"
	created, err := svc.Create(context.Background(), types.EstablishmentInput{
		Name:     " Bar Pepe ",
		Location: "Calle Mayor 1",
		MapsID:   &mapsID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Bar Pepe", created.Name)
	assert.True(t, created.IsOpen)
	assert.False(t, created.IsComputerAllowed)
	assert.True(t, created.Score.IsZero())

	found, err := svc.FindByMapsID(context.Background(), "ChIJ123")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestEstablishmentUpdateKeepsScoreAndCreated(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	id := uuid.New()
	repo := &fakeEstablishmentRepo{rows: map[uuid.UUID]types.Establishment{
		id: {ID: id, Name: "Old", Created: 5, IsOpen: true, Score: decimal.RequireFromString("7.25")},
	}}
	svc := NewEstablishmentService(repo, logger)

	closed := false
	rows, err := svc.Update(context.Background(), types.EstablishmentUpdate{
		ID:                 id,
		EstablishmentInput: types.EstablishmentInput{Name: "New", Location: "Plaza", IsOpen: &closed},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	got := repo.rows[id]
	assert.Equal(t, "New", got.Name)
	assert.False(t, got.IsOpen)
	assert.Equal(t, int64(5), got.Created)
	assert.NotNil(t, got.Updated)
	assert.True(t, got.Score.Equal(decimal.RequireFromString("7.25")))

	_, err = svc.Update(context.Background(), types.EstablishmentUpdate{ID: uuid.New()})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductCreateChecksReferences(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	knownMenu := uuid.New()
	menus := menuLookup(func(ctx context.Context, id uuid.UUID) (types.Menu, error) {
		if id == knownMenu {
			return types.Menu{ID: id}, nil
		}
		return types.Menu{}, ErrNotFound
	})
	publications := publicationLookup(func(ctx context.Context, id uuid.UUID) (types.Publication, error) {
		return types.Publication{}, ErrNotFound
	})
	svc := NewProductService(nil, menus, publications, logger)

	missingMenu := uuid.New()
	_, err := svc.Create(context.Background(), types.ProductInput{Name: "Caña", MenuID: &missingMenu})
	assert.ErrorIs(t, err, ErrNotFound)

	missingPublication := uuid.New()
	_, err = svc.Create(context.Background(), types.ProductInput{Name: "Caña", MenuID: &knownMenu, PublicationID: &missingPublication})
	assert.ErrorIs(t, err, ErrNotFound)
}
