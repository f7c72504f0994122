package identityd

import (
	"context"
	"errors"
	"time"
)

// DefaultRole is assigned to newly registered accounts. Promotion to
// player, director or admin happens through administrative flows outside
// this service.
const DefaultRole = "user"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

var (
	ErrUserNotFound = errors.New("identityd: user not found")
	ErrEmailTaken   = errors.New("identityd: email already registered")
)

// UserRepo is the persistence contract for accounts.
// Emails are unique; Create must fail with ErrEmailTaken on conflict.
type UserRepo interface {
	Create(ctx context.Context, u User) error
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
}
