package identityd

import (
	"context"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory user repository for local runs and tests.
// It is not intended for production use.
type MemoryRepo struct {
	mu      sync.Mutex
	byEmail map[string]User
	byID    map[string]User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byEmail: make(map[string]User),
		byID:    make(map[string]User),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, u User) error {
	key := strings.ToLower(u.Email)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[key]; ok {
		return ErrEmailTaken
	}
	r.byEmail[key] = u
	r.byID[u.ID] = u
	return nil
}

func (r *MemoryRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}
