package sso

import (
	"context"
	"fmt"
	"sync"

	"github.com/dropDatabas3/ssobridge/internal/domain/repository"
)

// fakeUsers es un UserRepository en memoria para tests, con inyección de
// fallas por operación.
type fakeUsers struct {
	mu     sync.Mutex
	seq    int
	users  map[string]*repository.User
	failOn map[string]error // op name → error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]*repository.User{}, failOn: map[string]error{}}
}

func (f *fakeUsers) fail(op string) error { return f.failOn[op] }

func (f *fakeUsers) addUser(u *repository.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
}

func (f *fakeUsers) GetByID(_ context.Context, uid string) (*repository.User, error) {
	if err := f.fail("GetByID"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[uid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetUIDByEmail(_ context.Context, email string) (string, error) {
	if err := f.fail("GetUIDByEmail"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u.ID, nil
		}
	}
	return "", repository.ErrNotFound
}

func (f *fakeUsers) Create(_ context.Context, input repository.CreateUserInput) (string, error) {
	if err := f.fail("Create"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	uid := fmt.Sprintf("uid-%d", f.seq)
	f.users[uid] = &repository.User{ID: uid, Username: input.Username, Email: input.Email}
	return uid, nil
}

func (f *fakeUsers) setField(uid string, op string, apply func(*repository.User)) error {
	if err := f.fail(op); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[uid]
	if !ok {
		return repository.ErrNotFound
	}
	apply(u)
	return nil
}

func (f *fakeUsers) SetEmail(_ context.Context, uid, email string) error {
	return f.setField(uid, "SetEmail", func(u *repository.User) { u.Email = email })
}

func (f *fakeUsers) SetFullname(_ context.Context, uid, fullname string) error {
	return f.setField(uid, "SetFullname", func(u *repository.User) { u.Fullname = fullname })
}

func (f *fakeUsers) SetExternalID(_ context.Context, uid, externalID string) error {
	return f.setField(uid, "SetExternalID", func(u *repository.User) { u.ExternalID = externalID })
}

func (f *fakeUsers) ClearExternalID(_ context.Context, uid string) error {
	return f.setField(uid, "ClearExternalID", func(u *repository.User) { u.ExternalID = "" })
}

func (f *fakeUsers) ConfirmEmail(_ context.Context, uid string) error {
	return f.setField(uid, "ConfirmEmail", func(u *repository.User) { u.EmailVerified = true })
}

func (f *fakeUsers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

// fakeAssocs es un AssociationRepository en memoria.
type fakeAssocs struct {
	mu     sync.Mutex
	m      map[string]string
	failOn map[string]error
}

func newFakeAssocs() *fakeAssocs {
	return &fakeAssocs{m: map[string]string{}, failOn: map[string]error{}}
}

func (f *fakeAssocs) GetUID(_ context.Context, externalID string) (string, error) {
	if err := f.failOn["GetUID"]; err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, ok := f.m[externalID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return uid, nil
}

func (f *fakeAssocs) Set(_ context.Context, externalID, uid string) error {
	if err := f.failOn["Set"]; err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[externalID] = uid
	return nil
}

func (f *fakeAssocs) Delete(_ context.Context, externalID string) error {
	if err := f.failOn["Delete"]; err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.m, externalID)
	return nil
}

func (f *fakeAssocs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.m)
}

// fakeMailer registra los envíos de verificación.
type fakeMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeMailer) SendVerification(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, email)
	return f.err
}
