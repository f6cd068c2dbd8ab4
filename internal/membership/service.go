// internal/membership/service.go
package membership

import (
	"context"

	"github.com/google/uuid"

	"biblioteca/internal/storage"
)

// Service defines the interface for the membership service.
type Service interface {
	Register(ctx context.Context, name, email, password string, role Role) (*User, error)
	Authenticate(ctx context.Context, email, password string) (*User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]User, int, error)
	UpdateUser(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// UserStore is the persistence interface the membership service needs.
type UserStore interface {
	GetByID(ctx context.Context, q storage.Querier, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, q storage.Querier, email string) (*User, error)
	List(ctx context.Context, q storage.Querier, filter UserFilter) ([]User, int, error)
	Insert(ctx context.Context, q storage.Querier, user *User) error
	Update(ctx context.Context, q storage.Querier, user *User) error
	Delete(ctx context.Context, q storage.Querier, id uuid.UUID) (bool, error)
	InsertCredential(ctx context.Context, q storage.Querier, credential *Credential) error
	GetCredential(ctx context.Context, q storage.Querier, userID uuid.UUID) (*Credential, error)
}

// Database runs a callback inside one storage transaction.
type Database interface {
	WithinTx(ctx context.Context, fn func(q storage.Querier) error) error
}
