// internal/circulation/service.go
package circulation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"biblioteca/internal/catalog"
	"biblioteca/internal/membership"
	"biblioteca/internal/storage"
)

// Service defines the interface for the loan lifecycle.
type Service interface {
	// CreateLoan validates eligibility, decrements stock and opens a loan.
	CreateLoan(ctx context.Context, userID, bookID uuid.UUID, loanDate time.Time) (*Loan, error)
	// ReturnLoan restores stock, marks the loan returned and fines late
	// returns. A missing loan yields (nil, nil), not an error.
	ReturnLoan(ctx context.Context, loanID uuid.UUID, returnDate time.Time) (*Loan, error)
	GetLoan(ctx context.Context, id uuid.UUID) (*Loan, error)
	ListLoans(ctx context.Context, filter LoanFilter) ([]Loan, int, error)
	DeleteLoan(ctx context.Context, id uuid.UUID) error
}

// FineService defines the interface for fine settlement and bookkeeping.
type FineService interface {
	// PayFine marks a fine paid and reconciles loan closure.
	// Returns false when the fine does not exist.
	PayFine(ctx context.Context, fineID uuid.UUID) (bool, error)
	// CancelFine voids a fine, optionally appending the reason to its
	// detail, and reconciles loan closure. Returns false when the fine
	// does not exist.
	CancelFine(ctx context.Context, fineID uuid.UUID, reason string) (bool, error)
	CreateFine(ctx context.Context, input FineInput) (*Fine, error)
	GetFine(ctx context.Context, id uuid.UUID) (*Fine, error)
	ListFines(ctx context.Context, filter FineFilter) ([]Fine, int, error)
	UpdateFine(ctx context.Context, id uuid.UUID, input FineInput) (*Fine, error)
	DeleteFine(ctx context.Context, id uuid.UUID) error
}

// The store interfaces below are the slices of persistence this package
// needs. The concrete Postgres stores satisfy all of them; tests supply
// in-memory fakes.

type UserStore interface {
	GetByID(ctx context.Context, q storage.Querier, id uuid.UUID) (*membership.User, error)
}

type BookStore interface {
	GetByID(ctx context.Context, q storage.Querier, id uuid.UUID) (*catalog.Book, error)
	// DecrementAvailable atomically takes one copy; it reports false when
	// no copy was available at write time.
	DecrementAvailable(ctx context.Context, q storage.Querier, id uuid.UUID) (bool, error)
	// IncrementAvailable atomically returns one copy; it reports false when
	// all copies were already accounted for.
	IncrementAvailable(ctx context.Context, q storage.Querier, id uuid.UUID) (bool, error)
}

type LoanStore interface {
	GetByID(ctx context.Context, q storage.Querier, id uuid.UUID) (*Loan, error)
	CountActiveByUser(ctx context.Context, q storage.Querier, userID uuid.UUID) (int, error)
	List(ctx context.Context, q storage.Querier, filter LoanFilter) ([]Loan, int, error)
	Insert(ctx context.Context, q storage.Querier, loan *Loan) error
	Update(ctx context.Context, q storage.Querier, loan *Loan) error
	Delete(ctx context.Context, q storage.Querier, id uuid.UUID) (bool, error)
}

type FineStore interface {
	GetByID(ctx context.Context, q storage.Querier, id uuid.UUID) (*Fine, error)
	CountPendingByLoan(ctx context.Context, q storage.Querier, loanID uuid.UUID) (int, error)
	List(ctx context.Context, q storage.Querier, filter FineFilter) ([]Fine, int, error)
	Insert(ctx context.Context, q storage.Querier, fine *Fine) error
	Update(ctx context.Context, q storage.Querier, fine *Fine) error
	Delete(ctx context.Context, q storage.Querier, id uuid.UUID) (bool, error)
}

// Database runs a callback inside one storage transaction. Every operation
// in this package performs its reads and writes within a single call so the
// check-then-act sequences stay atomic.
type Database interface {
	WithinTx(ctx context.Context, fn func(q storage.Querier) error) error
}
