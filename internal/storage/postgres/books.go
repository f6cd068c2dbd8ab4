// internal/storage/postgres/books.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"biblioteca/internal/catalog"
	"biblioteca/internal/storage"
)

// BookStore persists catalog books in Postgres. The stock mutators are
// guarded UPDATEs so availability never leaves the [0, total_copies] range,
// even under concurrent transactions.
type BookStore struct{}

func NewBookStore() *BookStore {
	return &BookStore{}
}

func (s *BookStore) GetByID(ctx context.Context, q storage.Querier, id uuid.UUID) (*catalog.Book, error) {
	query, args, err := pg.From("books").
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building book query: %w", err)
	}

	var book catalog.Book
	if err := q.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying book %s: %w", id, err)
	}
	return &book, nil
}

func (s *BookStore) List(ctx context.Context, q storage.Querier, filter catalog.BookFilter) ([]catalog.Book, int, error) {
	ds := pg.From("books")
	if filter.Title != "" {
		ds = ds.Where(goqu.C("title").ILike("%" + filter.Title + "%"))
	}
	if filter.Author != "" {
		ds = ds.Where(goqu.C("author").ILike("%" + filter.Author + "%"))
	}
	if filter.Category != "" {
		ds = ds.Where(goqu.C("category").Eq(filter.Category))
	}
	if filter.Enabled != nil {
		ds = ds.Where(goqu.C("enabled").Eq(*filter.Enabled))
	}

	countQuery, countArgs, err := ds.Select(goqu.COUNT("*")).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("building book count query: %w", err)
	}
	var total int
	if err := q.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("counting books: %w", err)
	}

	query, args, err := paginate(ds.Order(goqu.C("title").Asc()), filter.Page, filter.PageSize).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("building book list query: %w", err)
	}

	books := []catalog.Book{}
	if err := q.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, 0, fmt.Errorf("listing books: %w", err)
	}
	return books, total, nil
}

func (s *BookStore) Insert(ctx context.Context, q storage.Querier, book *catalog.Book) error {
	query, args, err := pg.Insert("books").Rows(goqu.Record{
		"id":                  book.ID,
		"title":               book.Title,
		"author":              book.Author,
		"category":            book.Category,
		"replacement_cost_bs": book.ReplacementCostBs,
		"total_copies":        book.TotalCopies,
		"copies_available":    book.CopiesAvailable,
		"condition":           string(book.Condition),
		"enabled":             book.Enabled,
		"created_at":          book.CreatedAt,
		"updated_at":          book.UpdatedAt,
	}).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("building book insert: %w", err)
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting book %s: %w", book.ID, err)
	}
	return nil
}

func (s *BookStore) Update(ctx context.Context, q storage.Querier, book *catalog.Book) error {
	query, args, err := pg.Update("books").Set(goqu.Record{
		"title":               book.Title,
		"author":              book.Author,
		"category":            book.Category,
		"replacement_cost_bs": book.ReplacementCostBs,
		"total_copies":        book.TotalCopies,
		"copies_available":    book.CopiesAvailable,
		"condition":           string(book.Condition),
		"enabled":             book.Enabled,
		"updated_at":          book.UpdatedAt,
	}).Where(goqu.C("id").Eq(book.ID)).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("building book update: %w", err)
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("updating book %s: %w", book.ID, err)
	}
	return nil
}

func (s *BookStore) Delete(ctx context.Context, q storage.Querier, id uuid.UUID) (bool, error) {
	query, args, err := pg.Delete("books").
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return false, fmt.Errorf("building book delete: %w", err)
	}

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("deleting book %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting book %s: %w", id, err)
	}
	return affected > 0, nil
}

// DecrementAvailable takes one copy. The WHERE clause re-checks availability
// at write time; zero rows affected means another transaction won the copy.
func (s *BookStore) DecrementAvailable(ctx context.Context, q storage.Querier, id uuid.UUID) (bool, error) {
	query, args, err := pg.Update("books").Set(goqu.Record{
		"copies_available": goqu.L("copies_available - 1"),
		"updated_at":       goqu.L("now()"),
	}).Where(
		goqu.C("id").Eq(id),
		goqu.C("copies_available").Gt(0),
	).Prepared(true).ToSQL()
	if err != nil {
		return false, fmt.Errorf("building stock decrement: %w", err)
	}

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("decrementing stock for book %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("decrementing stock for book %s: %w", id, err)
	}
	return affected > 0, nil
}

// IncrementAvailable puts one copy back, capped at total_copies.
func (s *BookStore) IncrementAvailable(ctx context.Context, q storage.Querier, id uuid.UUID) (bool, error) {
	query, args, err := pg.Update("books").Set(goqu.Record{
		"copies_available": goqu.L("copies_available + 1"),
		"updated_at":       goqu.L("now()"),
	}).Where(
		goqu.C("id").Eq(id),
		goqu.C("copies_available").Lt(goqu.C("total_copies")),
	).Prepared(true).ToSQL()
	if err != nil {
		return false, fmt.Errorf("building stock increment: %w", err)
	}

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("incrementing stock for book %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("incrementing stock for book %s: %w", id, err)
	}
	return affected > 0, nil
}
