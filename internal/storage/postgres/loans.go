// internal/storage/postgres/loans.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"biblioteca/internal/circulation"
	"biblioteca/internal/storage"
)

// LoanStore persists loans in Postgres.
type LoanStore struct{}

func NewLoanStore() *LoanStore {
	return &LoanStore{}
}

func (s *LoanStore) GetByID(ctx context.Context, q storage.Querier, id uuid.UUID) (*circulation.Loan, error) {
	query, args, err := pg.From("loans").
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building loan query: %w", err)
	}

	var loan circulation.Loan
	if err := q.GetContext(ctx, &loan, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying loan %s: %w", id, err)
	}
	return &loan, nil
}

func (s *LoanStore) CountActiveByUser(ctx context.Context, q storage.Querier, userID uuid.UUID) (int, error) {
	query, args, err := pg.From("loans").
		Select(goqu.COUNT("*")).
		Where(
			goqu.C("user_id").Eq(userID),
			goqu.C("status").Eq(string(circulation.LoanActive)),
		).Prepared(true).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("building active loan count: %w", err)
	}

	var count int
	if err := q.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("counting active loans for user %s: %w", userID, err)
	}
	return count, nil
}

func (s *LoanStore) List(ctx context.Context, q storage.Querier, filter circulation.LoanFilter) ([]circulation.Loan, int, error) {
	ds := pg.From("loans")
	if filter.UserID != nil {
		ds = ds.Where(goqu.C("user_id").Eq(*filter.UserID))
	}
	if filter.BookID != nil {
		ds = ds.Where(goqu.C("book_id").Eq(*filter.BookID))
	}
	if filter.Status != "" {
		ds = ds.Where(goqu.C("status").Eq(string(filter.Status)))
	}

	countQuery, countArgs, err := ds.Select(goqu.COUNT("*")).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("building loan count query: %w", err)
	}
	var total int
	if err := q.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("counting loans: %w", err)
	}

	query, args, err := paginate(ds.Order(goqu.C("loan_date").Desc()), filter.Page, filter.PageSize).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("building loan list query: %w", err)
	}

	loans := []circulation.Loan{}
	if err := q.SelectContext(ctx, &loans, query, args...); err != nil {
		return nil, 0, fmt.Errorf("listing loans: %w", err)
	}
	return loans, total, nil
}

func (s *LoanStore) Insert(ctx context.Context, q storage.Querier, loan *circulation.Loan) error {
	query, args, err := pg.Insert("loans").Rows(goqu.Record{
		"id":          loan.ID,
		"user_id":     loan.UserID,
		"book_id":     loan.BookID,
		"loan_date":   loan.LoanDate,
		"due_date":    loan.DueDate,
		"return_date": loan.ReturnDate,
		"status":      string(loan.Status),
		"created_at":  loan.CreatedAt,
		"updated_at":  loan.UpdatedAt,
	}).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("building loan insert: %w", err)
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting loan %s: %w", loan.ID, err)
	}
	return nil
}

func (s *LoanStore) Update(ctx context.Context, q storage.Querier, loan *circulation.Loan) error {
	query, args, err := pg.Update("loans").Set(goqu.Record{
		"return_date": loan.ReturnDate,
		"status":      string(loan.Status),
		"updated_at":  loan.UpdatedAt,
	}).Where(goqu.C("id").Eq(loan.ID)).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("building loan update: %w", err)
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("updating loan %s: %w", loan.ID, err)
	}
	return nil
}

func (s *LoanStore) Delete(ctx context.Context, q storage.Querier, id uuid.UUID) (bool, error) {
	query, args, err := pg.Delete("loans").
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return false, fmt.Errorf("building loan delete: %w", err)
	}

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("deleting loan %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting loan %s: %w", id, err)
	}
	return affected > 0, nil
}
