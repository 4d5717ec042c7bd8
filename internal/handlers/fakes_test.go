package handlers

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/toteco/apiserver/internal/services"
	"github.com/toteco/apiserver/types"
)

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]types.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[uuid.UUID]types.User{}}
}

func (m *memUsers) Save(ctx context.Context, user types.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *memUsers) Update(ctx context.Context, user types.User) (int64, error) {
	return 1, m.Save(ctx, user)
}

func (m *memUsers) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return 0, nil
	}
	delete(m.users, id)
	return 1, nil
}

func (m *memUsers) DeleteAll(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.users))
	m.users = map[uuid.UUID]types.User{}
	return n, nil
}

func (m *memUsers) FindByID(ctx context.Context, id uuid.UUID) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return types.User{}, services.ErrNotFound
	}
	return user, nil
}

func (m *memUsers) FindAll(ctx context.Context) ([]types.User, error) {
	return m.filter(func(types.User) bool { return true }), nil
}

func (m *memUsers) FindByUsername(ctx context.Context, username string) ([]types.User, error) {
	return m.filter(func(u types.User) bool { return u.Username == username }), nil
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) ([]types.User, error) {
	return m.filter(func(u types.User) bool { return u.Email == email }), nil
}

func (m *memUsers) Activate(ctx context.Context, id uuid.UUID, updated int64) (int64, error) {
	return m.modify(id, func(u *types.User) { u.IsActive = true; u.Updated = &updated })
}

func (m *memUsers) Disable(ctx context.Context, id uuid.UUID, updated int64) (int64, error) {
	return m.modify(id, func(u *types.User) { u.IsActive = false; u.Updated = &updated })
}

func (m *memUsers) UpdatePassword(ctx context.Context, id uuid.UUID, hash string, updated int64) (int64, error) {
	return m.modify(id, func(u *types.User) { u.Password = hash; u.Updated = &updated })
}

func (m *memUsers) UpdateRecoveryCode(ctx context.Context, id uuid.UUID, code *int64, updated int64) (int64, error) {
	return m.modify(id, func(u *types.User) { u.RecoveryCode = code; u.Updated = &updated })
}

func (m *memUsers) UpdateMoneySpent(ctx context.Context, id uuid.UUID) (int64, error) {
	return m.modify(id, func(*types.User) {})
}

func (m *memUsers) UpdatePublicationsNumber(ctx context.Context, id uuid.UUID) (int64, error) {
	return m.modify(id, func(*types.User) {})
}

func (m *memUsers) modify(id uuid.UUID, fn func(*types.User)) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return 0, nil
	}
	fn(&user)
	m.users[id] = user
	return 1, nil
}

func (m *memUsers) filter(keep func(types.User) bool) []types.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []types.User{}
	for _, u := range m.users {
		if keep(u) {
			out = append(out, u)
		}
	}
	return out
}

type memEstablishments struct {
	mu    sync.Mutex
	items map[uuid.UUID]types.Establishment
}

func newMemEstablishments() *memEstablishments {
	return &memEstablishments{items: map[uuid.UUID]types.Establishment{}}
}

func (m *memEstablishments) Save(ctx context.Context, e types.Establishment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[e.ID] = e
	return nil
}

func (m *memEstablishments) Update(ctx context.Context, e types.Establishment) (int64, error) {
	return 1, m.Save(ctx, e)
}

func (m *memEstablishments) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return 0, nil
	}
	delete(m.items, id)
	return 1, nil
}

func (m *memEstablishments) DeleteAll(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.items))
	m.items = map[uuid.UUID]types.Establishment{}
	return n, nil
}

func (m *memEstablishments) FindByID(ctx context.Context, id uuid.UUID) (types.Establishment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[id]
	if !ok {
		return types.Establishment{}, services.ErrNotFound
	}
	return e, nil
}

func (m *memEstablishments) FindAll(ctx context.Context) ([]types.Establishment, error) {
	return m.filter(func(types.Establishment) bool { return true }), nil
}

func (m *memEstablishments) FindByName(ctx context.Context, name string) ([]types.Establishment, error) {
	return m.filter(func(e types.Establishment) bool { return e.Name == name }), nil
}

func (m *memEstablishments) FindByMapsID(ctx context.Context, mapsID string) ([]types.Establishment, error) {
	return m.filter(func(e types.Establishment) bool { return e.MapsID != nil && *e.MapsID == mapsID }), nil
}

func (m *memEstablishments) filter(keep func(types.Establishment) bool) []types.Establishment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []types.Establishment{}
	for _, e := range m.items {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

type staticPinger struct{ err error }

func (p staticPinger) Ping(context.Context) error { return p.err }
