package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/dmitrijs2005/guardian/internal/dbx"
	"github.com/dmitrijs2005/guardian/internal/logging"
	"github.com/dmitrijs2005/guardian/internal/server/config"
	"github.com/dmitrijs2005/guardian/internal/server/models"
	"github.com/dmitrijs2005/guardian/internal/server/repositories/roles"
	"github.com/dmitrijs2005/guardian/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

// memStore is an in-memory credential store. Errors registered in failOn
// are returned by the named operation instead of touching the data.
type memStore struct {
	mu      sync.Mutex
	users   []*models.Identity
	roles   []*models.Role
	members map[[2]int64]bool
	calls   map[string]int
	failOn  map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		members: map[[2]int64]bool{},
		calls:   map[string]int{},
		failOn:  map[string]error{},
	}
}

func (m *memStore) hit(op string) error {
	m.calls[op]++
	return m.failOn[op]
}

type memUsers struct{ *memStore }

func (r memUsers) Create(_ context.Context, identity *models.Identity) (*models.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hit("users.Create"); err != nil {
		return nil, err
	}
	for _, u := range r.users {
		if u.Email == identity.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *identity
	c.ID = int64(len(r.users) + 1)
	c.IsActive = true
	r.users = append(r.users, &c)
	out := c
	return &out, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (*models.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hit("users.GetByEmail"); err != nil {
		return nil, err
	}
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) List(_ context.Context, skip, limit int) ([]*models.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hit("users.List"); err != nil {
		return nil, err
	}
	r.calls["users.List.limit"] = limit
	out := []*models.Identity{}
	for i := skip; i < len(r.users) && len(out) < limit; i++ {
		c := *r.users[i]
		out = append(out, &c)
	}
	return out, nil
}

type memRoles struct{ *memStore }

func (r memRoles) Create(_ context.Context, role *models.Role) (*models.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hit("roles.Create"); err != nil {
		return nil, err
	}
	for _, x := range r.roles {
		if x.Name == role.Name {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *role
	c.ID = int64(len(r.roles) + 1)
	r.roles = append(r.roles, &c)
	out := c
	return &out, nil
}

func (r memRoles) GetByName(_ context.Context, name string) (*models.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hit("roles.GetByName"); err != nil {
		return nil, err
	}
	for _, x := range r.roles {
		if x.Name == name {
			c := *x
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memRoles) List(_ context.Context, skip, limit int) ([]*models.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hit("roles.List"); err != nil {
		return nil, err
	}
	out := []*models.Role{}
	for i := skip; i < len(r.roles) && len(out) < limit; i++ {
		c := *r.roles[i]
		out = append(out, &c)
	}
	return out, nil
}

func (r memRoles) ListByIdentity(_ context.Context, identityID int64) ([]*models.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hit("roles.ListByIdentity"); err != nil {
		return nil, err
	}
	out := []*models.Role{}
	for _, x := range r.roles {
		if r.members[[2]int64{identityID, x.ID}] {
			c := *x
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r memRoles) Assign(_ context.Context, identityID, roleID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.hit("roles.Assign"); err != nil {
		return err
	}
	r.members[[2]int64{identityID, roleID}] = true
	return nil
}

type memManager struct{ store *memStore }

func (m *memManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memManager) Users(dbx.DBTX) users.Repository             { return memUsers{m.store} }
func (m *memManager) Roles(dbx.DBTX) roles.Repository             { return memRoles{m.store} }

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                   "k",
		AccessTokenValidityDuration: time.Hour,
		BcryptCost:                  bcrypt.MinCost,
		DBQueryTimeout:              time.Second,
	}
}

type fixture struct {
	store      *memStore
	mock       sqlmock.Sqlmock
	auth       *AuthService
	identities *IdentityService
	roles      *RoleService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := newMemStore()
	m := &memManager{store: store}
	cfg := testConfig()
	log := logging.Nop()

	a := NewAuthService(db, m, cfg, log)
	return &fixture{
		store:      store,
		mock:       mock,
		auth:       a,
		identities: NewIdentityService(db, m, cfg, a, log),
		roles:      NewRoleService(db, m, cfg, a, log),
	}
}

// seedIdentity registers email/password and optionally grants roles directly.
func (f *fixture) seedIdentity(t *testing.T, email, password string, roleNames ...string) string {
	t.Helper()
	ctx := context.Background()
	if _, err := f.auth.Register(ctx, email, password); err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	for _, name := range roleNames {
		role, err := memRoles{f.store}.GetByName(ctx, name)
		if err != nil {
			role, err = memRoles{f.store}.Create(ctx, &models.Role{Name: name})
			if err != nil {
				t.Fatalf("create role %s: %v", name, err)
			}
		}
		u, _ := memUsers{f.store}.GetByEmail(ctx, email)
		_ = memRoles{f.store}.Assign(ctx, u.ID, role.ID)
	}
	tok, err := f.auth.Login(ctx, email, password)
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return tok.AccessToken
}
