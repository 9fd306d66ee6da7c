package repofake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-store-auth/principals"
)

var _ principals.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users    map[int64]*principals.User
	emailIds map[string]int64 // email to user id
	nextID   int64
	lock     sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[int64]*principals.User),
		emailIds: make(map[string]int64),
	}
}

// Upsert stores a copy of the user, assigning an id when it has none.
func (ur *FakeUserRepo) Upsert(user *principals.User) *principals.User {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if user.ID == 0 {
		ur.nextID++
		user.ID = ur.nextID
	} else if user.ID > ur.nextID {
		ur.nextID = user.ID
	}
	u := *user
	ur.users[u.ID] = &u
	ur.emailIds[u.Email] = u.ID
	return user
}

func (ur *FakeUserRepo) Delete(id int64) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if u, ok := ur.users[id]; ok {
		delete(ur.emailIds, u.Email)
		delete(ur.users, id)
	}
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*principals.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[email]
	if !ok {
		return nil, principals.ErrNotFound
	}
	u := *ur.users[id]
	return &u, nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id int64) (*principals.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	u, ok := ur.users[id]
	if !ok {
		return nil, principals.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (ur *FakeUserRepo) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	u, ok := ur.users[id]
	if !ok {
		return principals.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}
