package users

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cognibank/cognibank/internal/models"
)

// MemoryDirectory is a mutex-guarded in-memory Directory used for tests and
// for running the demo without a database. All reads return copies so callers
// never share record memory with the store.
type MemoryDirectory struct {
	mu             sync.RWMutex
	byID           map[string]*models.User
	initialBalance int64
}

func NewMemoryDirectory(initialBalance int64) *MemoryDirectory {
	return &MemoryDirectory{
		byID:           make(map[string]*models.User),
		initialBalance: initialBalance,
	}
}

func (d *MemoryDirectory) Create(ctx context.Context, u *models.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.byID[u.ID]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, u.ID)
	}
	cp := *u
	d.byID[u.ID] = &cp
	return nil
}

func (d *MemoryDirectory) Update(ctx context.Context, users ...*models.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	// validate every target before writing anything
	for _, u := range users {
		if _, ok := d.byID[u.ID]; !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, u.ID)
		}
	}
	for _, u := range users {
		cp := *u
		d.byID[u.ID] = &cp
	}
	return nil
}

func (d *MemoryDirectory) Modify(ctx context.Context, ids []string, fn func(users []*models.User) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	loaded := make([]*models.User, len(ids))
	for i, id := range ids {
		u, ok := d.byID[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		cp := *u
		loaded[i] = &cp
	}
	if err := fn(loaded); err != nil {
		return err
	}
	for _, u := range loaded {
		cp := *u
		d.byID[u.ID] = &cp
	}
	return nil
}

func (d *MemoryDirectory) FindByID(ctx context.Context, id string) (*models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (d *MemoryDirectory) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (d *MemoryDirectory) CreateFromSignUp(ctx context.Context, email string, extra json.RawMessage) (*models.User, error) {
	u, err := newUserFromSignUp(email, extra, d.initialBalance)
	if err != nil {
		return nil, err
	}
	if err := d.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (d *MemoryDirectory) MeInfo(u *models.User) models.MeInfo { return meInfo(u) }
