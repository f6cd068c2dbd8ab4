// internal/catalog/implementation_test.go
package catalog

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biblioteca/internal/faults"
	"biblioteca/internal/storage"
)

type memBookStore struct {
	books map[uuid.UUID]Book
}

func newMemBookStore() *memBookStore {
	return &memBookStore{books: map[uuid.UUID]Book{}}
}

func (m *memBookStore) GetByID(_ context.Context, _ storage.Querier, id uuid.UUID) (*Book, error) {
	if book, ok := m.books[id]; ok {
		return &book, nil
	}
	return nil, nil
}

func (m *memBookStore) List(_ context.Context, _ storage.Querier, filter BookFilter) ([]Book, int, error) {
	books := []Book{}
	for _, book := range m.books {
		if filter.Category != "" && book.Category != filter.Category {
			continue
		}
		if filter.Enabled != nil && book.Enabled != *filter.Enabled {
			continue
		}
		books = append(books, book)
	}
	return books, len(books), nil
}

func (m *memBookStore) Insert(_ context.Context, _ storage.Querier, book *Book) error {
	m.books[book.ID] = *book
	return nil
}

func (m *memBookStore) Update(_ context.Context, _ storage.Querier, book *Book) error {
	m.books[book.ID] = *book
	return nil
}

func (m *memBookStore) Delete(_ context.Context, _ storage.Querier, id uuid.UUID) (bool, error) {
	if _, ok := m.books[id]; !ok {
		return false, nil
	}
	delete(m.books, id)
	return true, nil
}

type passthroughDB struct{}

func (passthroughDB) WithinTx(_ context.Context, fn func(q storage.Querier) error) error {
	return fn(nil)
}

func newTestService(store *memBookStore) Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(passthroughDB{}, store, logger)
}

func validBook() BookInput {
	return BookInput{
		Title:             "The Go Programming Language",
		Author:            "Donovan & Kernighan",
		Category:          "programming",
		ReplacementCostBs: 120,
		TotalCopies:       4,
		Condition:         ConditionGood,
		Enabled:           true,
	}
}

func TestCreateBook_AllCopiesStartAvailable(t *testing.T) {
	svc := newTestService(newMemBookStore())

	book, err := svc.CreateBook(context.Background(), validBook())
	require.NoError(t, err)
	assert.Equal(t, 4, book.TotalCopies)
	assert.Equal(t, 4, book.CopiesAvailable)
}

func TestCreateBook_Validation(t *testing.T) {
	svc := newTestService(newMemBookStore())
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*BookInput)
	}{
		{"empty title", func(b *BookInput) { b.Title = "" }},
		{"negative copies", func(b *BookInput) { b.TotalCopies = -1 }},
		{"unknown condition", func(b *BookInput) { b.Condition = "pristine" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			input := validBook()
			tc.mutate(&input)

			_, err := svc.CreateBook(ctx, input)
			require.Error(t, err)
			assert.Equal(t, faults.KindInvalidState, faults.KindOf(err))
		})
	}
}

func TestUpdateBook_AdjustsAvailabilityByDelta(t *testing.T) {
	store := newMemBookStore()
	svc := newTestService(store)
	ctx := context.Background()

	book, err := svc.CreateBook(ctx, validBook())
	require.NoError(t, err)

	// Two copies go on loan.
	onLoan := store.books[book.ID]
	onLoan.CopiesAvailable = 2
	store.books[book.ID] = onLoan

	input := validBook()
	input.TotalCopies = 6
	updated, err := svc.UpdateBook(ctx, book.ID, input)
	require.NoError(t, err)
	assert.Equal(t, 6, updated.TotalCopies)
	assert.Equal(t, 4, updated.CopiesAvailable)
}

func TestUpdateBook_RejectsShrinkBelowOnLoanCount(t *testing.T) {
	store := newMemBookStore()
	svc := newTestService(store)
	ctx := context.Background()

	book, err := svc.CreateBook(ctx, validBook())
	require.NoError(t, err)

	// Three of four copies are on loan.
	onLoan := store.books[book.ID]
	onLoan.CopiesAvailable = 1
	store.books[book.ID] = onLoan

	input := validBook()
	input.TotalCopies = 2
	_, err = svc.UpdateBook(ctx, book.ID, input)
	require.Error(t, err)
	assert.Equal(t, faults.KindInvalidState, faults.KindOf(err))
}

func TestGetBook_NotFound(t *testing.T) {
	svc := newTestService(newMemBookStore())

	_, err := svc.GetBook(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, faults.KindNotFound, faults.KindOf(err))
}

func TestDeleteBook_NotFound(t *testing.T) {
	svc := newTestService(newMemBookStore())

	err := svc.DeleteBook(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, faults.KindNotFound, faults.KindOf(err))
}
