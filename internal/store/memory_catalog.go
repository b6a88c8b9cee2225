package store

import (
	"context"
	"slices"
	"sync"

	"github.com/MKhiriev/go-proc-box/models"
)

// MemoryCatalog is an in-process implementation of [UserRepository] and
// [CounterRepository]. It is used for development runs without a database
// and in tests.
type MemoryCatalog struct {
	mu       sync.RWMutex
	users    map[string]models.User // by ID
	byEmail  map[string]string      // email -> ID
	counters map[string]int64
}

// NewMemoryCatalog returns an empty catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		users:    make(map[string]models.User),
		byEmail:  make(map[string]string),
		counters: make(map[string]int64),
	}
}

func (c *MemoryCatalog) CreateUser(_ context.Context, user models.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.users[user.ID]; ok {
		return ErrUserAlreadyExists
	}
	if _, ok := c.byEmail[user.Email]; ok {
		return ErrUserAlreadyExists
	}

	user.Password = ""
	c.users[user.ID] = user
	c.byEmail[user.Email] = user.ID
	return nil
}

func (c *MemoryCatalog) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.byEmail[email]
	if !ok {
		return models.User{}, ErrNoUserWasFound
	}
	return c.users[id], nil
}

func (c *MemoryCatalog) FindUserByCredentials(ctx context.Context, email, hashedPassword string) (models.User, error) {
	user, err := c.FindUserByEmail(ctx, email)
	if err != nil {
		return models.User{}, err
	}
	if user.HashedPassword != hashedPassword {
		return models.User{}, ErrNoUserWasFound
	}
	return user, nil
}

func (c *MemoryCatalog) DeleteUserByEmail(_ context.Context, email string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, ok := c.byEmail[email]
	if !ok {
		return false, nil
	}
	delete(c.byEmail, email)
	delete(c.users, id)
	return true, nil
}

func (c *MemoryCatalog) ListEmails(_ context.Context, admins bool) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.users))
	for id, user := range c.users {
		if user.IsAdmin == admins {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	emails := make([]string, 0, len(ids))
	for _, id := range ids {
		emails = append(emails, c.users[id].Email)
	}
	return emails, nil
}

func (c *MemoryCatalog) GetCounter(_ context.Context, name string) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.counters[name]
	if !ok {
		return 0, ErrCounterNotFound
	}
	return v, nil
}

func (c *MemoryCatalog) InitCounter(_ context.Context, name string, value int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.counters[name]; ok {
		return false, nil
	}
	c.counters[name] = value
	return true, nil
}

func (c *MemoryCatalog) CompareAndSwapCounter(_ context.Context, name string, expected, next int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.counters[name]
	if !ok || v != expected {
		return false, nil
	}
	c.counters[name] = next
	return true, nil
}
