package services

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/toteco/apiserver/internal/notify"
	"github.com/toteco/apiserver/types"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]types.User
}

func newFakeUserRepo(users ...types.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[uuid.UUID]types.User{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (f *fakeUserRepo) Save(ctx context.Context, user types.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user types.User) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[user.ID] = user
	return 1, nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return 0, nil
	}
	delete(f.users, id)
	return 1, nil
}

func (f *fakeUserRepo) DeleteAll(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.users))
	f.users = map[uuid.UUID]types.User{}
	return n, nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) FindAll(ctx context.Context) ([]types.User, error) {
	return f.filter(func(types.User) bool { return true }), nil
}

func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) ([]types.User, error) {
	return f.filter(func(u types.User) bool { return u.Username == username }), nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) ([]types.User, error) {
	return f.filter(func(u types.User) bool { return u.Email == email }), nil
}

func (f *fakeUserRepo) filter(keep func(types.User) bool) []types.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []types.User{}
	for _, u := range f.users {
		if keep(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created < out[j].Created })
	return out
}

func (f *fakeUserRepo) mutate(id uuid.UUID, fn func(*types.User)) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return 0, nil
	}
	fn(&user)
	f.users[id] = user
	return 1, nil
}

func (f *fakeUserRepo) Activate(ctx context.Context, id uuid.UUID, updated int64) (int64, error) {
	return f.mutate(id, func(u *types.User) { u.IsActive = true; u.Updated = &updated })
}

func (f *fakeUserRepo) Disable(ctx context.Context, id uuid.UUID, updated int64) (int64, error) {
	return f.mutate(id, func(u *types.User) { u.IsActive = false; u.Updated = &updated })
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string, updated int64) (int64, error) {
	return f.mutate(id, func(u *types.User) { u.Password = hash; u.Updated = &updated })
}

func (f *fakeUserRepo) UpdateRecoveryCode(ctx context.Context, id uuid.UUID, code *int64, updated int64) (int64, error) {
	return f.mutate(id, func(u *types.User) { u.RecoveryCode = code; u.Updated = &updated })
}

func (f *fakeUserRepo) UpdateMoneySpent(ctx context.Context, id uuid.UUID) (int64, error) {
	return f.mutate(id, func(u *types.User) {})
}

func (f *fakeUserRepo) UpdatePublicationsNumber(ctx context.Context, id uuid.UUID) (int64, error) {
	return f.mutate(id, func(u *types.User) {})
}

type recordingNotifier struct {
	messages []notify.RecoveryCodeMessage
	err      error
}

func (r *recordingNotifier) RecoveryCode(ctx context.Context, msg notify.RecoveryCodeMessage) error {
	r.messages = append(r.messages, msg)
	return r.err
}
