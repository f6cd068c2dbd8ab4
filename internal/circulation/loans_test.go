// internal/circulation/loans_test.go
package circulation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biblioteca/internal/catalog"
	"biblioteca/internal/faults"
	"biblioteca/internal/membership"
)

func TestCreateLoan_Success(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(membership.RoleStudent, true)
	bookID := f.addBook(3, 3, catalog.ConditionGood, true)
	loanDate := date(2025, time.October, 25)

	loan, err := f.svc.CreateLoan(context.Background(), userID, bookID, loanDate)
	require.NoError(t, err)
	require.NotNil(t, loan)

	assert.Equal(t, userID, loan.UserID)
	assert.Equal(t, bookID, loan.BookID)
	assert.Equal(t, LoanActive, loan.Status)
	assert.Equal(t, date(2025, time.November, 1), loan.DueDate)
	assert.Nil(t, loan.ReturnDate)

	assert.Equal(t, 2, f.store.books[bookID].CopiesAvailable)
	assert.Len(t, f.store.loans, 1)
}

func TestCreateLoan_Preconditions(t *testing.T) {
	loanDate := date(2025, time.October, 25)

	tests := []struct {
		name     string
		setup    func(f *fixture) (uuid.UUID, uuid.UUID)
		wantKind faults.Kind
	}{
		{
			name: "unknown user",
			setup: func(f *fixture) (uuid.UUID, uuid.UUID) {
				bookID := f.addBook(1, 1, catalog.ConditionGood, true)
				return uuid.New(), bookID
			},
			wantKind: faults.KindNotFound,
		},
		{
			name: "inactive user",
			setup: func(f *fixture) (uuid.UUID, uuid.UUID) {
				userID := f.addUser(membership.RoleStudent, false)
				bookID := f.addBook(1, 1, catalog.ConditionGood, true)
				return userID, bookID
			},
			wantKind: faults.KindInvalidState,
		},
		{
			name: "unknown book",
			setup: func(f *fixture) (uuid.UUID, uuid.UUID) {
				userID := f.addUser(membership.RoleStudent, true)
				return userID, uuid.New()
			},
			wantKind: faults.KindNotFound,
		},
		{
			name: "disabled book",
			setup: func(f *fixture) (uuid.UUID, uuid.UUID) {
				userID := f.addUser(membership.RoleStudent, true)
				bookID := f.addBook(1, 1, catalog.ConditionGood, false)
				return userID, bookID
			},
			wantKind: faults.KindInvalidState,
		},
		{
			name: "book in poor condition",
			setup: func(f *fixture) (uuid.UUID, uuid.UUID) {
				userID := f.addUser(membership.RoleStudent, true)
				bookID := f.addBook(1, 1, catalog.ConditionPoor, true)
				return userID, bookID
			},
			wantKind: faults.KindInvalidState,
		},
		{
			name: "student at loan ceiling",
			setup: func(f *fixture) (uuid.UUID, uuid.UUID) {
				userID := f.addUser(membership.RoleStudent, true)
				bookID := f.addBook(5, 5, catalog.ConditionGood, true)
				for i := 0; i < 3; i++ {
					other := f.addBook(1, 0, catalog.ConditionGood, true)
					f.addLoan(userID, other, loanDate, LoanActive)
				}
				return userID, bookID
			},
			wantKind: faults.KindLimitExceeded,
		},
		{
			name: "no copies available",
			setup: func(f *fixture) (uuid.UUID, uuid.UUID) {
				userID := f.addUser(membership.RoleStudent, true)
				bookID := f.addBook(2, 0, catalog.ConditionGood, true)
				return userID, bookID
			},
			wantKind: faults.KindOutOfStock,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			userID, bookID := tc.setup(f)
			loansBefore := len(f.store.loans)
			booksBefore := f.store.books[bookID]

			loan, err := f.svc.CreateLoan(context.Background(), userID, bookID, loanDate)
			require.Error(t, err)
			assert.Nil(t, loan)
			assert.Equal(t, tc.wantKind, faults.KindOf(err))

			// No partial writes: stock and loan count are untouched.
			assert.Len(t, f.store.loans, loansBefore)
			assert.Equal(t, booksBefore.CopiesAvailable, f.store.books[bookID].CopiesAvailable)
		})
	}
}

func TestCreateLoan_StaffCeilingIsHigher(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(membership.RoleStaff, true)
	loanDate := date(2025, time.October, 25)
	for i := 0; i < 4; i++ {
		other := f.addBook(1, 0, catalog.ConditionGood, true)
		f.addLoan(userID, other, loanDate, LoanActive)
	}
	bookID := f.addBook(1, 1, catalog.ConditionGood, true)

	// 4 active loans is still under the staff limit of 5.
	loan, err := f.svc.CreateLoan(context.Background(), userID, bookID, loanDate)
	require.NoError(t, err)
	require.NotNil(t, loan)

	// The fifth pushed them to the ceiling.
	another := f.addBook(1, 1, catalog.ConditionGood, true)
	_, err = f.svc.CreateLoan(context.Background(), userID, another, loanDate)
	require.Error(t, err)
	assert.Equal(t, faults.KindLimitExceeded, faults.KindOf(err))
}

func TestCreateLoan_ReturnedLoansDoNotCountTowardCeiling(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(membership.RoleStudent, true)
	loanDate := date(2025, time.October, 25)
	for i := 0; i < 3; i++ {
		other := f.addBook(1, 1, catalog.ConditionGood, true)
		f.addLoan(userID, other, loanDate, LoanReturned)
	}
	bookID := f.addBook(1, 1, catalog.ConditionGood, true)

	loan, err := f.svc.CreateLoan(context.Background(), userID, bookID, loanDate)
	require.NoError(t, err)
	assert.NotNil(t, loan)
}

func TestCreateLoan_RolledBackWhenInsertFails(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(membership.RoleStudent, true)
	bookID := f.addBook(2, 2, catalog.ConditionGood, true)
	f.loans.insertErr = errors.New("connection reset")

	_, err := f.svc.CreateLoan(context.Background(), userID, bookID, date(2025, time.October, 25))
	require.Error(t, err)

	// The stock decrement happened before the failed insert and must be undone.
	assert.Equal(t, 2, f.store.books[bookID].CopiesAvailable)
	assert.Empty(t, f.store.loans)
}

func TestReturnLoan_OnTime(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(membership.RoleStudent, true)
	bookID := f.addBook(2, 1, catalog.ConditionGood, true)
	loanID := f.addLoan(userID, bookID, date(2025, time.October, 25), LoanActive)

	loan, err := f.svc.ReturnLoan(context.Background(), loanID, date(2025, time.November, 1))
	require.NoError(t, err)
	require.NotNil(t, loan)

	assert.Equal(t, LoanReturned, loan.Status)
	require.NotNil(t, loan.ReturnDate)
	assert.Equal(t, date(2025, time.November, 1), *loan.ReturnDate)
	assert.Equal(t, 2, f.store.books[bookID].CopiesAvailable)
	assert.Empty(t, f.store.fines, "a return on the due date must not be fined")
}

func TestReturnLoan_LateCreatesFine(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(membership.RoleStudent, true)
	bookID := f.addBook(2, 1, catalog.ConditionGood, true)
	loanID := f.addLoan(userID, bookID, date(2025, time.October, 25), LoanActive)

	// Due 2025-11-01, returned 2025-11-03: two days late.
	loan, err := f.svc.ReturnLoan(context.Background(), loanID, date(2025, time.November, 3))
	require.NoError(t, err)
	require.NotNil(t, loan)

	require.Len(t, f.store.fines, 1)
	for _, fine := range f.store.fines {
		assert.Equal(t, loanID, fine.LoanID)
		assert.Equal(t, userID, fine.UserID)
		assert.Equal(t, LateReturnReason, fine.Reason)
		assert.Equal(t, FinePending, fine.Status)
		assert.Equal(t, 2.0, fine.AmountBs)
	}
}

func TestReturnLoan_MissingLoanIsNilNil(t *testing.T) {
	f := newFixture(t)

	loan, err := f.svc.ReturnLoan(context.Background(), uuid.New(), date(2025, time.November, 3))
	assert.NoError(t, err)
	assert.Nil(t, loan)
}

func TestReturnLoan_AlreadyReturned(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(membership.RoleStudent, true)
	bookID := f.addBook(2, 2, catalog.ConditionGood, true)
	loanID := f.addLoan(userID, bookID, date(2025, time.October, 25), LoanReturned)

	_, err := f.svc.ReturnLoan(context.Background(), loanID, date(2025, time.November, 3))
	require.Error(t, err)
	assert.Equal(t, faults.KindInvalidState, faults.KindOf(err))
	assert.Equal(t, 2, f.store.books[bookID].CopiesAvailable, "stock must not move on a double return")
}

func TestReturnLoan_MissingBookIsIntegrityFailure(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(membership.RoleStudent, true)
	loanID := f.addLoan(userID, uuid.New(), date(2025, time.October, 25), LoanActive)

	_, err := f.svc.ReturnLoan(context.Background(), loanID, date(2025, time.November, 1))
	require.Error(t, err)
	assert.Equal(t, faults.KindIntegrityFailure, faults.KindOf(err))
	assert.Equal(t, LoanActive, f.store.loans[loanID].Status)
}

func TestReturnLoan_FullStockIsIntegrityFailure(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(membership.RoleStudent, true)
	bookID := f.addBook(2, 2, catalog.ConditionGood, true)
	loanID := f.addLoan(userID, bookID, date(2025, time.October, 25), LoanActive)

	_, err := f.svc.ReturnLoan(context.Background(), loanID, date(2025, time.November, 1))
	require.Error(t, err)
	assert.Equal(t, faults.KindIntegrityFailure, faults.KindOf(err))
	assert.Equal(t, LoanActive, f.store.loans[loanID].Status, "loan must stay active when the stock write is rejected")
}

func TestReturnLoan_RolledBackWhenFineInsertFails(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(membership.RoleStudent, true)
	bookID := f.addBook(2, 1, catalog.ConditionGood, true)
	loanID := f.addLoan(userID, bookID, date(2025, time.October, 25), LoanActive)
	f.fines.insertErr = errors.New("connection reset")

	_, err := f.svc.ReturnLoan(context.Background(), loanID, date(2025, time.November, 3))
	require.Error(t, err)

	assert.Equal(t, LoanActive, f.store.loans[loanID].Status)
	assert.Equal(t, 1, f.store.books[bookID].CopiesAvailable)
	assert.Empty(t, f.store.fines)
}

func TestGetLoan_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetLoan(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, faults.KindNotFound, faults.KindOf(err))
}

func TestListLoans_FiltersByStatus(t *testing.T) {
	f := newFixture(t)
	userID := f.addUser(membership.RoleStudent, true)
	bookID := f.addBook(5, 5, catalog.ConditionGood, true)
	f.addLoan(userID, bookID, date(2025, time.October, 1), LoanActive)
	f.addLoan(userID, bookID, date(2025, time.October, 2), LoanReturned)
	f.addLoan(userID, bookID, date(2025, time.October, 3), LoanActive)

	loans, total, err := f.svc.ListLoans(context.Background(), LoanFilter{Status: LoanActive})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, loans, 2)
}
