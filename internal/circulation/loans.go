// internal/circulation/loans.go
package circulation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"biblioteca/internal/catalog"
	"biblioteca/internal/faults"
	"biblioteca/internal/storage"
)

// loanService implements the Service interface.
type loanService struct {
	db     Database
	users  UserStore
	books  BookStore
	loans  LoanStore
	fines  FineStore
	tracer trace.Tracer
	logger *slog.Logger
}

// NewService creates a new loan service instance.
func NewService(db Database, users UserStore, books BookStore, loans LoanStore, fines FineStore, logger *slog.Logger) Service {
	return &loanService{
		db:     db,
		users:  users,
		books:  books,
		loans:  loans,
		fines:  fines,
		tracer: otel.Tracer("biblioteca/circulation"),
		logger: logger,
	}
}

// CreateLoan opens a loan after checking every eligibility rule, decrementing
// stock and inserting the loan row in one transaction. The stock decrement is
// re-validated at write time, so two concurrent loans cannot both take the
// last copy.
func (s *loanService) CreateLoan(ctx context.Context, userID, bookID uuid.UUID, loanDate time.Time) (*Loan, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.CreateLoan", trace.WithAttributes(
		attribute.String("user_id", userID.String()),
		attribute.String("book_id", bookID.String()),
	))
	defer span.End()

	var loan *Loan
	err := s.db.WithinTx(ctx, func(q storage.Querier) error {
		user, err := s.users.GetByID(ctx, q, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return faults.NotFound("user %s does not exist", userID)
		}
		if !user.Active {
			return faults.InvalidState("user %s is inactive", userID)
		}

		book, err := s.books.GetByID(ctx, q, bookID)
		if err != nil {
			return err
		}
		if book == nil {
			return faults.NotFound("book %s does not exist", bookID)
		}
		if !book.Enabled {
			return faults.InvalidState("book %s is not enabled for loans", bookID)
		}
		if book.Condition == catalog.ConditionPoor {
			return faults.InvalidState("book %s is in poor condition and withheld from circulation", bookID)
		}

		active, err := s.loans.CountActiveByUser(ctx, q, userID)
		if err != nil {
			return err
		}
		if limit := MaxActiveLoans(user.Role); active >= limit {
			return faults.LimitExceeded("user %s already has %d active loans, the limit for role %s is %d", userID, active, user.Role, limit)
		}

		if book.CopiesAvailable <= 0 {
			return faults.OutOfStock("no copies of book %s are available", bookID)
		}

		taken, err := s.books.DecrementAvailable(ctx, q, bookID)
		if err != nil {
			return err
		}
		if !taken {
			// A concurrent loan took the last copy between read and write.
			return faults.OutOfStock("no copies of book %s are available", bookID)
		}

		now := time.Now().UTC()
		loan = &Loan{
			ID:        uuid.New(),
			UserID:    userID,
			BookID:    bookID,
			LoanDate:  loanDate,
			DueDate:   loanDate.AddDate(0, 0, LoanPeriodDays),
			Status:    LoanActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return s.loans.Insert(ctx, q, loan)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.InfoContext(ctx, "loan created",
		"loan_id", loan.ID, "user_id", userID, "book_id", bookID, "due_date", loan.DueDate)
	return loan, nil
}

// ReturnLoan registers a return: stock back, loan marked returned and, when
// the return is late, one pending fine. All writes commit as one unit.
func (s *loanService) ReturnLoan(ctx context.Context, loanID uuid.UUID, returnDate time.Time) (*Loan, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.ReturnLoan", trace.WithAttributes(
		attribute.String("loan_id", loanID.String()),
	))
	defer span.End()

	var loan *Loan
	err := s.db.WithinTx(ctx, func(q storage.Querier) error {
		found, err := s.loans.GetByID(ctx, q, loanID)
		if err != nil {
			return err
		}
		if found == nil {
			return nil // not-found result, reported as (nil, nil)
		}
		if found.Status != LoanActive {
			return faults.InvalidState("loan %s was already returned", loanID)
		}

		book, err := s.books.GetByID(ctx, q, found.BookID)
		if err != nil {
			return err
		}
		if book == nil {
			return faults.IntegrityFailure("loan %s references book %s which no longer exists", loanID, found.BookID)
		}

		restored, err := s.books.IncrementAvailable(ctx, q, found.BookID)
		if err != nil {
			return err
		}
		if !restored {
			return faults.IntegrityFailure("book %s already has all %d copies available", found.BookID, book.TotalCopies)
		}

		now := time.Now().UTC()
		returned := returnDate
		found.Status = LoanReturned
		found.ReturnDate = &returned
		found.UpdatedAt = now
		if err := s.loans.Update(ctx, q, found); err != nil {
			return err
		}

		if days := daysLate(found.DueDate, returnDate); days > 0 {
			fine := &Fine{
				ID:        uuid.New(),
				LoanID:    found.ID,
				UserID:    found.UserID,
				Reason:    LateReturnReason,
				Detail:    fmt.Sprintf("returned %d day(s) after the due date", days),
				AmountBs:  float64(days) * FineRatePerDayBs,
				Status:    FinePending,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.fines.Insert(ctx, q, fine); err != nil {
				return err
			}
		}

		loan = found
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if loan == nil {
		return nil, nil
	}

	s.logger.InfoContext(ctx, "loan returned", "loan_id", loan.ID, "return_date", returnDate)
	return loan, nil
}

// GetLoan retrieves a loan by its ID.
func (s *loanService) GetLoan(ctx context.Context, id uuid.UUID) (*Loan, error) {
	var loan *Loan
	err := s.db.WithinTx(ctx, func(q storage.Querier) error {
		var err error
		loan, err = s.loans.GetByID(ctx, q, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, faults.NotFound("loan %s not found", id)
	}
	return loan, nil
}

// ListLoans returns loans matching the filter plus the unpaged total.
func (s *loanService) ListLoans(ctx context.Context, filter LoanFilter) ([]Loan, int, error) {
	var (
		loans []Loan
		total int
	)
	err := s.db.WithinTx(ctx, func(q storage.Querier) error {
		var err error
		loans, total, err = s.loans.List(ctx, q, filter)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return loans, total, nil
}

// DeleteLoan removes a loan record.
func (s *loanService) DeleteLoan(ctx context.Context, id uuid.UUID) error {
	return s.db.WithinTx(ctx, func(q storage.Querier) error {
		deleted, err := s.loans.Delete(ctx, q, id)
		if err != nil {
			return err
		}
		if !deleted {
			return faults.NotFound("loan %s not found", id)
		}
		return nil
	})
}
