// internal/catalog/implementation.go
package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"biblioteca/internal/faults"
	"biblioteca/internal/storage"
)

// service implements the Service interface.
type service struct {
	db     Database
	books  BookStore
	logger *slog.Logger
}

// NewService creates a new catalog service instance.
func NewService(db Database, books BookStore, logger *slog.Logger) Service {
	return &service{
		db:     db,
		books:  books,
		logger: logger,
	}
}

// CreateBook adds a new book to the catalog. All copies start available.
func (s *service) CreateBook(ctx context.Context, input BookInput) (*Book, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	book := &Book{
		ID:                uuid.New(),
		Title:             input.Title,
		Author:            input.Author,
		Category:          input.Category,
		ReplacementCostBs: input.ReplacementCostBs,
		TotalCopies:       input.TotalCopies,
		CopiesAvailable:   input.TotalCopies,
		Condition:         input.Condition,
		Enabled:           input.Enabled,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := s.db.WithinTx(ctx, func(q storage.Querier) error {
		return s.books.Insert(ctx, q, book)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "book created", "book_id", book.ID, "title", book.Title)
	return book, nil
}

// GetBook retrieves a book by its ID.
func (s *service) GetBook(ctx context.Context, id uuid.UUID) (*Book, error) {
	var book *Book
	err := s.db.WithinTx(ctx, func(q storage.Querier) error {
		var err error
		book, err = s.books.GetByID(ctx, q, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, faults.NotFound("book %s not found", id)
	}
	return book, nil
}

// ListBooks returns books matching the filter plus the unpaged total.
func (s *service) ListBooks(ctx context.Context, filter BookFilter) ([]Book, int, error) {
	var (
		books []Book
		total int
	)
	err := s.db.WithinTx(ctx, func(q storage.Querier) error {
		var err error
		books, total, err = s.books.List(ctx, q, filter)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// UpdateBook applies the input to an existing book.
// Changing TotalCopies adjusts CopiesAvailable by the same delta so the
// stock invariant (0 <= available <= total) is preserved.
func (s *service) UpdateBook(ctx context.Context, id uuid.UUID, input BookInput) (*Book, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var book *Book
	err := s.db.WithinTx(ctx, func(q storage.Querier) error {
		var err error
		book, err = s.books.GetByID(ctx, q, id)
		if err != nil {
			return err
		}
		if book == nil {
			return faults.NotFound("book %s not found", id)
		}

		delta := input.TotalCopies - book.TotalCopies
		if book.CopiesAvailable+delta < 0 {
			return faults.InvalidState(
				"cannot reduce book %s to %d copies while %d are on loan",
				id, input.TotalCopies, book.TotalCopies-book.CopiesAvailable,
			)
		}

		book.Title = input.Title
		book.Author = input.Author
		book.Category = input.Category
		book.ReplacementCostBs = input.ReplacementCostBs
		book.TotalCopies = input.TotalCopies
		book.CopiesAvailable += delta
		book.Condition = input.Condition
		book.Enabled = input.Enabled
		book.UpdatedAt = time.Now().UTC()

		return s.books.Update(ctx, q, book)
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// DeleteBook removes a book from the catalog.
func (s *service) DeleteBook(ctx context.Context, id uuid.UUID) error {
	return s.db.WithinTx(ctx, func(q storage.Querier) error {
		deleted, err := s.books.Delete(ctx, q, id)
		if err != nil {
			return err
		}
		if !deleted {
			return faults.NotFound("book %s not found", id)
		}
		return nil
	})
}

func validateInput(input BookInput) error {
	if input.Title == "" {
		return faults.InvalidState("title must not be empty")
	}
	if input.TotalCopies < 0 {
		return faults.InvalidState("total copies must not be negative")
	}
	if !input.Condition.Valid() {
		return faults.InvalidState("unknown condition %q", input.Condition)
	}
	return nil
}
