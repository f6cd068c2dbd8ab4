// internal/circulation/fines.go
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

	"biblioteca/internal/faults"
	"biblioteca/internal/storage"
)

// fineService implements the FineService interface.
type fineService struct {
	db     Database
	loans  LoanStore
	fines  FineStore
	tracer trace.Tracer
	logger *slog.Logger
}

// NewFineService creates a new fine service instance.
func NewFineService(db Database, loans LoanStore, fines FineStore, logger *slog.Logger) FineService {
	return &fineService{
		db:     db,
		loans:  loans,
		fines:  fines,
		tracer: otel.Tracer("biblioteca/circulation"),
		logger: logger,
	}
}

// PayFine marks a fine paid and reconciles loan closure. Paying an
// already-paid fine still re-runs the closure check and succeeds.
func (s *fineService) PayFine(ctx context.Context, fineID uuid.UUID) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.PayFine", trace.WithAttributes(
		attribute.String("fine_id", fineID.String()),
	))
	defer span.End()

	found := false
	err := s.db.WithinTx(ctx, func(q storage.Querier) error {
		fine, err := s.fines.GetByID(ctx, q, fineID)
		if err != nil {
			return err
		}
		if fine == nil {
			return nil
		}
		found = true

		if fine.Status != FinePaid {
			fine.Status = FinePaid
			fine.UpdatedAt = time.Now().UTC()
			if err := s.fines.Update(ctx, q, fine); err != nil {
				return err
			}
		}

		return s.closeLoanIfSettled(ctx, q, fine.LoanID)
	})
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	if found {
		s.logger.InfoContext(ctx, "fine paid", "fine_id", fineID)
	}
	return found, nil
}

// CancelFine voids a fine. A non-blank reason is appended to the detail the
// first time the fine transitions to canceled.
func (s *fineService) CancelFine(ctx context.Context, fineID uuid.UUID, reason string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "circulation.CancelFine", trace.WithAttributes(
		attribute.String("fine_id", fineID.String()),
	))
	defer span.End()

	found := false
	err := s.db.WithinTx(ctx, func(q storage.Querier) error {
		fine, err := s.fines.GetByID(ctx, q, fineID)
		if err != nil {
			return err
		}
		if fine == nil {
			return nil
		}
		found = true

		if fine.Status != FineCanceled {
			fine.Status = FineCanceled
			if reason != "" {
				fine.Detail = fmt.Sprintf("%s (Canceled: %s)", fine.Detail, reason)
			}
			fine.UpdatedAt = time.Now().UTC()
			if err := s.fines.Update(ctx, q, fine); err != nil {
				return err
			}
		}

		return s.closeLoanIfSettled(ctx, q, fine.LoanID)
	})
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	if found {
		s.logger.InfoContext(ctx, "fine canceled", "fine_id", fineID, "reason", reason)
	}
	return found, nil
}

// closeLoanIfSettled transitions a returned loan to closed once no pending
// fines remain. This is the only place a loan reaches closed.
func (s *fineService) closeLoanIfSettled(ctx context.Context, q storage.Querier, loanID uuid.UUID) error {
	loan, err := s.loans.GetByID(ctx, q, loanID)
	if err != nil || loan == nil {
		return err
	}

	pending, err := s.fines.CountPendingByLoan(ctx, q, loanID)
	if err != nil {
		return err
	}

	if pending == 0 && loan.Status == LoanReturned {
		loan.Status = LoanClosed
		loan.UpdatedAt = time.Now().UTC()
		if err := s.loans.Update(ctx, q, loan); err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "loan closed", "loan_id", loanID)
	}
	return nil
}

// CreateFine records a manual fine against an existing loan.
func (s *fineService) CreateFine(ctx context.Context, input FineInput) (*Fine, error) {
	if input.Reason == "" {
		return nil, faults.InvalidState("reason must not be empty")
	}
	if input.AmountBs < 0 {
		return nil, faults.InvalidState("amount must not be negative")
	}

	now := time.Now().UTC()
	fine := &Fine{
		ID:        uuid.New(),
		LoanID:    input.LoanID,
		UserID:    input.UserID,
		Reason:    input.Reason,
		Detail:    input.Detail,
		AmountBs:  input.AmountBs,
		Status:    FinePending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithinTx(ctx, func(q storage.Querier) error {
		loan, err := s.loans.GetByID(ctx, q, input.LoanID)
		if err != nil {
			return err
		}
		if loan == nil {
			return faults.NotFound("loan %s does not exist", input.LoanID)
		}
		return s.fines.Insert(ctx, q, fine)
	})
	if err != nil {
		return nil, err
	}
	return fine, nil
}

// GetFine retrieves a fine by its ID.
func (s *fineService) GetFine(ctx context.Context, id uuid.UUID) (*Fine, error) {
	var fine *Fine
	err := s.db.WithinTx(ctx, func(q storage.Querier) error {
		var err error
		fine, err = s.fines.GetByID(ctx, q, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if fine == nil {
		return nil, faults.NotFound("fine %s not found", id)
	}
	return fine, nil
}

// ListFines returns fines matching the filter plus the unpaged total.
func (s *fineService) ListFines(ctx context.Context, filter FineFilter) ([]Fine, int, error) {
	var (
		fines []Fine
		total int
	)
	err := s.db.WithinTx(ctx, func(q storage.Querier) error {
		var err error
		fines, total, err = s.fines.List(ctx, q, filter)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return fines, total, nil
}

// UpdateFine rewrites the descriptive fields of a fine. Status is owned by
// PayFine and CancelFine and cannot be changed here.
func (s *fineService) UpdateFine(ctx context.Context, id uuid.UUID, input FineInput) (*Fine, error) {
	if input.Reason == "" {
		return nil, faults.InvalidState("reason must not be empty")
	}
	if input.AmountBs < 0 {
		return nil, faults.InvalidState("amount must not be negative")
	}

	var fine *Fine
	err := s.db.WithinTx(ctx, func(q storage.Querier) error {
		var err error
		fine, err = s.fines.GetByID(ctx, q, id)
		if err != nil {
			return err
		}
		if fine == nil {
			return faults.NotFound("fine %s not found", id)
		}
		if fine.Status != FinePending {
			return faults.InvalidState("fine %s is %s and can no longer be edited", id, fine.Status)
		}

		fine.Reason = input.Reason
		fine.Detail = input.Detail
		fine.AmountBs = input.AmountBs
		fine.UpdatedAt = time.Now().UTC()
		return s.fines.Update(ctx, q, fine)
	})
	if err != nil {
		return nil, err
	}
	return fine, nil
}

// DeleteFine removes a fine record.
func (s *fineService) DeleteFine(ctx context.Context, id uuid.UUID) error {
	return s.db.WithinTx(ctx, func(q storage.Querier) error {
		deleted, err := s.fines.Delete(ctx, q, id)
		if err != nil {
			return err
		}
		if !deleted {
			return faults.NotFound("fine %s not found", id)
		}
		return nil
	})
}
