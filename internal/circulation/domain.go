// internal/circulation/domain.go
package circulation

import (
	"time"

	"github.com/google/uuid"

	"biblioteca/internal/membership"
)

// LoanStatus is the lifecycle state of a loan.
type LoanStatus string

const (
	LoanActive   LoanStatus = "active"
	LoanReturned LoanStatus = "returned"
	LoanClosed   LoanStatus = "closed"
)

// FineStatus is the lifecycle state of a fine.
type FineStatus string

const (
	FinePending  FineStatus = "pending"
	FinePaid     FineStatus = "paid"
	FineCanceled FineStatus = "canceled"
)

const (
	// LoanPeriodDays is the flat grace period applied to every loan.
	// Role-dependent periods are an open product decision.
	LoanPeriodDays = 7

	// FineRatePerDayBs is charged per day of late return.
	FineRatePerDayBs = 1.0

	// LateReturnReason marks fines created automatically on late returns.
	LateReturnReason = "late return"
)

// MaxActiveLoans is the role-based ceiling on concurrent active loans.
func MaxActiveLoans(role membership.Role) int {
	if role == membership.RoleStaff {
		return 5
	}
	return 3
}

// Loan records a book temporarily assigned to a user. Related entities are
// referenced by id only; navigation is a store lookup, never an embedded
// pointer.
type Loan struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	UserID     uuid.UUID  `db:"user_id" json:"user_id"`
	BookID     uuid.UUID  `db:"book_id" json:"book_id"`
	LoanDate   time.Time  `db:"loan_date" json:"loan_date"`
	DueDate    time.Time  `db:"due_date" json:"due_date"`
	ReturnDate *time.Time `db:"return_date" json:"return_date,omitempty"`
	Status     LoanStatus `db:"status" json:"status"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// Fine is a monetary penalty tied to a loan.
type Fine struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	LoanID    uuid.UUID  `db:"loan_id" json:"loan_id"`
	UserID    uuid.UUID  `db:"user_id" json:"user_id"`
	Reason    string     `db:"reason" json:"reason"`
	Detail    string     `db:"detail" json:"detail"`
	AmountBs  float64    `db:"amount_bs" json:"amount_bs"`
	Status    FineStatus `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// LoanFilter narrows loan listings. Nil fields match everything.
type LoanFilter struct {
	UserID   *uuid.UUID
	BookID   *uuid.UUID
	Status   LoanStatus
	Page     int
	PageSize int
}

// FineFilter narrows fine listings. Nil fields match everything.
type FineFilter struct {
	UserID   *uuid.UUID
	LoanID   *uuid.UUID
	Status   FineStatus
	Page     int
	PageSize int
}

// FineInput carries the mutable fields for manual fine create and update.
type FineInput struct {
	LoanID   uuid.UUID `json:"loan_id"`
	UserID   uuid.UUID `json:"user_id"`
	Reason   string    `json:"reason"`
	Detail   string    `json:"detail"`
	AmountBs float64   `json:"amount_bs"`
}

// daysLate counts whole calendar days between the due date and the return
// date, ignoring time of day. Returns on or before the due date count zero.
func daysLate(due, returned time.Time) int {
	dueDay := dateOf(due)
	returnedDay := dateOf(returned)
	if !returnedDay.After(dueDay) {
		return 0
	}
	return int(returnedDay.Sub(dueDay) / (24 * time.Hour))
}

// dateOf strips the time-of-day and zone from t.
func dateOf(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
