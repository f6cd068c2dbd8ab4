// internal/storage/postgres/fines.go
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

// FineStore persists fines in Postgres.
type FineStore struct{}

func NewFineStore() *FineStore {
	return &FineStore{}
}

func (s *FineStore) GetByID(ctx context.Context, q storage.Querier, id uuid.UUID) (*circulation.Fine, error) {
	query, args, err := pg.From("fines").
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building fine query: %w", err)
	}

	var fine circulation.Fine
	if err := q.GetContext(ctx, &fine, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying fine %s: %w", id, err)
	}
	return &fine, nil
}

func (s *FineStore) CountPendingByLoan(ctx context.Context, q storage.Querier, loanID uuid.UUID) (int, error) {
	query, args, err := pg.From("fines").
		Select(goqu.COUNT("*")).
		Where(
			goqu.C("loan_id").Eq(loanID),
			goqu.C("status").Eq(string(circulation.FinePending)),
		).Prepared(true).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("building pending fine count: %w", err)
	}

	var count int
	if err := q.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("counting pending fines for loan %s: %w", loanID, err)
	}
	return count, nil
}

func (s *FineStore) List(ctx context.Context, q storage.Querier, filter circulation.FineFilter) ([]circulation.Fine, int, error) {
	ds := pg.From("fines")
	if filter.UserID != nil {
		ds = ds.Where(goqu.C("user_id").Eq(*filter.UserID))
	}
	if filter.LoanID != nil {
		ds = ds.Where(goqu.C("loan_id").Eq(*filter.LoanID))
	}
	if filter.Status != "" {
		ds = ds.Where(goqu.C("status").Eq(string(filter.Status)))
	}

	countQuery, countArgs, err := ds.Select(goqu.COUNT("*")).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("building fine count query: %w", err)
	}
	var total int
	if err := q.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("counting fines: %w", err)
	}

	query, args, err := paginate(ds.Order(goqu.C("created_at").Desc()), filter.Page, filter.PageSize).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("building fine list query: %w", err)
	}

	fines := []circulation.Fine{}
	if err := q.SelectContext(ctx, &fines, query, args...); err != nil {
		return nil, 0, fmt.Errorf("listing fines: %w", err)
	}
	return fines, total, nil
}

func (s *FineStore) Insert(ctx context.Context, q storage.Querier, fine *circulation.Fine) error {
	query, args, err := pg.Insert("fines").Rows(goqu.Record{
		"id":         fine.ID,
		"loan_id":    fine.LoanID,
		"user_id":    fine.UserID,
		"reason":     fine.Reason,
		"detail":     fine.Detail,
		"amount_bs":  fine.AmountBs,
		"status":     string(fine.Status),
		"created_at": fine.CreatedAt,
		"updated_at": fine.UpdatedAt,
	}).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("building fine insert: %w", err)
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting fine %s: %w", fine.ID, err)
	}
	return nil
}

func (s *FineStore) Update(ctx context.Context, q storage.Querier, fine *circulation.Fine) error {
	query, args, err := pg.Update("fines").Set(goqu.Record{
		"reason":     fine.Reason,
		"detail":     fine.Detail,
		"amount_bs":  fine.AmountBs,
		"status":     string(fine.Status),
		"updated_at": fine.UpdatedAt,
	}).Where(goqu.C("id").Eq(fine.ID)).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("building fine update: %w", err)
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("updating fine %s: %w", fine.ID, err)
	}
	return nil
}

func (s *FineStore) Delete(ctx context.Context, q storage.Querier, id uuid.UUID) (bool, error) {
	query, args, err := pg.Delete("fines").
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return false, fmt.Errorf("building fine delete: %w", err)
	}

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("deleting fine %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting fine %s: %w", id, err)
	}
	return affected > 0, nil
}
