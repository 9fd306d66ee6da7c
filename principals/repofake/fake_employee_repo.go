package repofake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-store-auth/principals"
)

var _ principals.EmployeeRepo = (*FakeEmployeeRepo)(nil)

type FakeEmployeeRepo struct {
	employees map[int64]*principals.Employee
	emailIds  map[string]int64
	nextID    int64
	lock      sync.RWMutex
}

func NewFakeEmployeeRepo() *FakeEmployeeRepo {
	return &FakeEmployeeRepo{
		employees: make(map[int64]*principals.Employee),
		emailIds:  make(map[string]int64),
	}
}

func (er *FakeEmployeeRepo) Upsert(employee *principals.Employee) *principals.Employee {
	er.lock.Lock()
	defer er.lock.Unlock()

	if employee.ID == 0 {
		er.nextID++
		employee.ID = er.nextID
	} else if employee.ID > er.nextID {
		er.nextID = employee.ID
	}
	e := *employee
	er.employees[e.ID] = &e
	er.emailIds[e.Email] = e.ID
	return employee
}

func (er *FakeEmployeeRepo) Delete(id int64) {
	er.lock.Lock()
	defer er.lock.Unlock()

	if e, ok := er.employees[id]; ok {
		delete(er.emailIds, e.Email)
		delete(er.employees, id)
	}
}

func (er *FakeEmployeeRepo) GetByEmail(_ context.Context, email string) (*principals.Employee, error) {
	er.lock.RLock()
	defer er.lock.RUnlock()

	id, ok := er.emailIds[email]
	if !ok {
		return nil, principals.ErrNotFound
	}
	e := *er.employees[id]
	return &e, nil
}

func (er *FakeEmployeeRepo) GetByID(_ context.Context, id int64) (*principals.Employee, error) {
	er.lock.RLock()
	defer er.lock.RUnlock()

	e, ok := er.employees[id]
	if !ok {
		return nil, principals.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (er *FakeEmployeeRepo) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	er.lock.Lock()
	defer er.lock.Unlock()

	e, ok := er.employees[id]
	if !ok {
		return principals.ErrNotFound
	}
	e.PasswordHash = hash
	return nil
}
