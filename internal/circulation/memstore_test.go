// internal/circulation/memstore_test.go
package circulation

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"biblioteca/internal/catalog"
	"biblioteca/internal/membership"
	"biblioteca/internal/storage"
)

// memStore is the shared in-memory state behind the fake stores. The fake
// database snapshots it before every transaction and restores it when the
// callback fails, so the rollback semantics of the real thing hold.
type memStore struct {
	users map[uuid.UUID]membership.User
	books map[uuid.UUID]catalog.Book
	loans map[uuid.UUID]Loan
	fines map[uuid.UUID]Fine
}

func newMemStore() *memStore {
	return &memStore{
		users: map[uuid.UUID]membership.User{},
		books: map[uuid.UUID]catalog.Book{},
		loans: map[uuid.UUID]Loan{},
		fines: map[uuid.UUID]Fine{},
	}
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.books {
		c.books[k] = v
	}
	for k, v := range s.loans {
		c.loans[k] = v
	}
	for k, v := range s.fines {
		c.fines[k] = v
	}
	return c
}

type fakeDB struct {
	store *memStore
}

func (f *fakeDB) WithinTx(_ context.Context, fn func(q storage.Querier) error) error {
	snapshot := f.store.clone()
	if err := fn(nil); err != nil {
		*f.store = *snapshot
		return err
	}
	return nil
}

type memUsers struct {
	s *memStore
}

func (m *memUsers) GetByID(_ context.Context, _ storage.Querier, id uuid.UUID) (*membership.User, error) {
	if user, ok := m.s.users[id]; ok {
		return &user, nil
	}
	return nil, nil
}

type memBooks struct {
	s *memStore
}

func (m *memBooks) GetByID(_ context.Context, _ storage.Querier, id uuid.UUID) (*catalog.Book, error) {
	if book, ok := m.s.books[id]; ok {
		return &book, nil
	}
	return nil, nil
}

func (m *memBooks) DecrementAvailable(_ context.Context, _ storage.Querier, id uuid.UUID) (bool, error) {
	book, ok := m.s.books[id]
	if !ok || book.CopiesAvailable <= 0 {
		return false, nil
	}
	book.CopiesAvailable--
	m.s.books[id] = book
	return true, nil
}

func (m *memBooks) IncrementAvailable(_ context.Context, _ storage.Querier, id uuid.UUID) (bool, error) {
	book, ok := m.s.books[id]
	if !ok || book.CopiesAvailable >= book.TotalCopies {
		return false, nil
	}
	book.CopiesAvailable++
	m.s.books[id] = book
	return true, nil
}

type memLoans struct {
	s         *memStore
	insertErr error
	updateErr error
}

func (m *memLoans) GetByID(_ context.Context, _ storage.Querier, id uuid.UUID) (*Loan, error) {
	if loan, ok := m.s.loans[id]; ok {
		return &loan, nil
	}
	return nil, nil
}

func (m *memLoans) CountActiveByUser(_ context.Context, _ storage.Querier, userID uuid.UUID) (int, error) {
	count := 0
	for _, loan := range m.s.loans {
		if loan.UserID == userID && loan.Status == LoanActive {
			count++
		}
	}
	return count, nil
}

func (m *memLoans) List(_ context.Context, _ storage.Querier, filter LoanFilter) ([]Loan, int, error) {
	loans := []Loan{}
	for _, loan := range m.s.loans {
		if filter.UserID != nil && loan.UserID != *filter.UserID {
			continue
		}
		if filter.BookID != nil && loan.BookID != *filter.BookID {
			continue
		}
		if filter.Status != "" && loan.Status != filter.Status {
			continue
		}
		loans = append(loans, loan)
	}
	return loans, len(loans), nil
}

func (m *memLoans) Insert(_ context.Context, _ storage.Querier, loan *Loan) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.s.loans[loan.ID] = *loan
	return nil
}

func (m *memLoans) Update(_ context.Context, _ storage.Querier, loan *Loan) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.s.loans[loan.ID] = *loan
	return nil
}

func (m *memLoans) Delete(_ context.Context, _ storage.Querier, id uuid.UUID) (bool, error) {
	if _, ok := m.s.loans[id]; !ok {
		return false, nil
	}
	delete(m.s.loans, id)
	return true, nil
}

type memFines struct {
	s         *memStore
	insertErr error
}

func (m *memFines) GetByID(_ context.Context, _ storage.Querier, id uuid.UUID) (*Fine, error) {
	if fine, ok := m.s.fines[id]; ok {
		return &fine, nil
	}
	return nil, nil
}

func (m *memFines) CountPendingByLoan(_ context.Context, _ storage.Querier, loanID uuid.UUID) (int, error) {
	count := 0
	for _, fine := range m.s.fines {
		if fine.LoanID == loanID && fine.Status == FinePending {
			count++
		}
	}
	return count, nil
}

func (m *memFines) List(_ context.Context, _ storage.Querier, filter FineFilter) ([]Fine, int, error) {
	fines := []Fine{}
	for _, fine := range m.s.fines {
		if filter.UserID != nil && fine.UserID != *filter.UserID {
			continue
		}
		if filter.LoanID != nil && fine.LoanID != *filter.LoanID {
			continue
		}
		if filter.Status != "" && fine.Status != filter.Status {
			continue
		}
		fines = append(fines, fine)
	}
	return fines, len(fines), nil
}

func (m *memFines) Insert(_ context.Context, _ storage.Querier, fine *Fine) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.s.fines[fine.ID] = *fine
	return nil
}

func (m *memFines) Update(_ context.Context, _ storage.Querier, fine *Fine) error {
	m.s.fines[fine.ID] = *fine
	return nil
}

func (m *memFines) Delete(_ context.Context, _ storage.Querier, id uuid.UUID) (bool, error) {
	if _, ok := m.s.fines[id]; !ok {
		return false, nil
	}
	delete(m.s.fines, id)
	return true, nil
}

// fixture wires services to the in-memory fakes.
type fixture struct {
	store *memStore
	loans *memLoans
	fines *memFines
	svc   Service
	fsvc  FineService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	db := &fakeDB{store: store}
	users := &memUsers{s: store}
	books := &memBooks{s: store}
	loans := &memLoans{s: store}
	fines := &memFines{s: store}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &fixture{
		store: store,
		loans: loans,
		fines: fines,
		svc:   NewService(db, users, books, loans, fines, logger),
		fsvc:  NewFineService(db, loans, fines, logger),
	}
}

func (f *fixture) addUser(role membership.Role, active bool) uuid.UUID {
	id := uuid.New()
	f.store.users[id] = membership.User{
		ID:     id,
		Name:   "Test User",
		Email:  id.String() + "@example.com",
		Role:   role,
		Active: active,
	}
	return id
}

func (f *fixture) addBook(total, available int, condition catalog.Condition, enabled bool) uuid.UUID {
	id := uuid.New()
	f.store.books[id] = catalog.Book{
		ID:              id,
		Title:           "Test Book",
		Author:          "Test Author",
		TotalCopies:     total,
		CopiesAvailable: available,
		Condition:       condition,
		Enabled:         enabled,
	}
	return id
}

func (f *fixture) addLoan(userID, bookID uuid.UUID, loanDate time.Time, status LoanStatus) uuid.UUID {
	id := uuid.New()
	f.store.loans[id] = Loan{
		ID:       id,
		UserID:   userID,
		BookID:   bookID,
		LoanDate: loanDate,
		DueDate:  loanDate.AddDate(0, 0, LoanPeriodDays),
		Status:   status,
	}
	return id
}

func (f *fixture) addFine(loanID, userID uuid.UUID, amount float64, status FineStatus) uuid.UUID {
	id := uuid.New()
	f.store.fines[id] = Fine{
		ID:       id,
		LoanID:   loanID,
		UserID:   userID,
		Reason:   LateReturnReason,
		Detail:   "returned 2 day(s) after the due date",
		AmountBs: amount,
		Status:   status,
	}
	return id
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
