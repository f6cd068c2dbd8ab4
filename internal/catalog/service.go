// internal/catalog/service.go
package catalog

import (
	"context"

	"github.com/google/uuid"

	"biblioteca/internal/storage"
)

// Service defines the interface for the catalog service.
type Service interface {
	CreateBook(ctx context.Context, input BookInput) (*Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (*Book, error)
	ListBooks(ctx context.Context, filter BookFilter) ([]Book, int, error)
	UpdateBook(ctx context.Context, id uuid.UUID, input BookInput) (*Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error
}

// BookStore is the persistence interface the catalog service needs.
// Every call takes the explicit transaction or pool handle it must run on.
type BookStore interface {
	GetByID(ctx context.Context, q storage.Querier, id uuid.UUID) (*Book, error)
	List(ctx context.Context, q storage.Querier, filter BookFilter) ([]Book, int, error)
	Insert(ctx context.Context, q storage.Querier, book *Book) error
	Update(ctx context.Context, q storage.Querier, book *Book) error
	Delete(ctx context.Context, q storage.Querier, id uuid.UUID) (bool, error)
}

// Database runs a callback inside one storage transaction.
type Database interface {
	WithinTx(ctx context.Context, fn func(q storage.Querier) error) error
}
