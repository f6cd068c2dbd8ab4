// internal/storage/postgres/users.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"biblioteca/internal/membership"
	"biblioteca/internal/storage"
)

// UserStore persists users and their credentials in Postgres.
type UserStore struct{}

func NewUserStore() *UserStore {
	return &UserStore{}
}

func (s *UserStore) GetByID(ctx context.Context, q storage.Querier, id uuid.UUID) (*membership.User, error) {
	query, args, err := pg.From("users").
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building user query: %w", err)
	}

	var user membership.User
	if err := q.GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying user %s: %w", id, err)
	}
	return &user, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, q storage.Querier, email string) (*membership.User, error) {
	query, args, err := pg.From("users").
		Where(goqu.C("email").Eq(email)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building user query: %w", err)
	}

	var user membership.User
	if err := q.GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying user by email: %w", err)
	}
	return &user, nil
}

func (s *UserStore) List(ctx context.Context, q storage.Querier, filter membership.UserFilter) ([]membership.User, int, error) {
	ds := pg.From("users")
	if filter.Role != "" {
		ds = ds.Where(goqu.C("role").Eq(string(filter.Role)))
	}
	if filter.Active != nil {
		ds = ds.Where(goqu.C("active").Eq(*filter.Active))
	}

	countQuery, countArgs, err := ds.Select(goqu.COUNT("*")).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("building user count query: %w", err)
	}
	var total int
	if err := q.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}

	query, args, err := paginate(ds.Order(goqu.C("created_at").Desc()), filter.Page, filter.PageSize).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("building user list query: %w", err)
	}

	users := []membership.User{}
	if err := q.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	return users, total, nil
}

func (s *UserStore) Insert(ctx context.Context, q storage.Querier, user *membership.User) error {
	query, args, err := pg.Insert("users").Rows(goqu.Record{
		"id":         user.ID,
		"name":       user.Name,
		"email":      user.Email,
		"role":       string(user.Role),
		"active":     user.Active,
		"created_at": user.CreatedAt,
		"updated_at": user.UpdatedAt,
	}).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("building user insert: %w", err)
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting user %s: %w", user.ID, err)
	}
	return nil
}

func (s *UserStore) Update(ctx context.Context, q storage.Querier, user *membership.User) error {
	query, args, err := pg.Update("users").Set(goqu.Record{
		"name":       user.Name,
		"email":      user.Email,
		"role":       string(user.Role),
		"active":     user.Active,
		"updated_at": user.UpdatedAt,
	}).Where(goqu.C("id").Eq(user.ID)).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("building user update: %w", err)
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("updating user %s: %w", user.ID, err)
	}
	return nil
}

func (s *UserStore) Delete(ctx context.Context, q storage.Querier, id uuid.UUID) (bool, error) {
	query, args, err := pg.Delete("users").
		Where(goqu.C("id").Eq(id)).
		Prepared(true).ToSQL()
	if err != nil {
		return false, fmt.Errorf("building user delete: %w", err)
	}

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("deleting user %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting user %s: %w", id, err)
	}
	return affected > 0, nil
}

func (s *UserStore) InsertCredential(ctx context.Context, q storage.Querier, credential *membership.Credential) error {
	query, args, err := pg.Insert("credentials").Rows(goqu.Record{
		"user_id":       credential.UserID,
		"password_hash": credential.PasswordHash,
		"salt":          credential.Salt,
	}).Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("building credential insert: %w", err)
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting credential for user %s: %w", credential.UserID, err)
	}
	return nil
}

func (s *UserStore) GetCredential(ctx context.Context, q storage.Querier, userID uuid.UUID) (*membership.Credential, error) {
	query, args, err := pg.From("credentials").
		Where(goqu.C("user_id").Eq(userID)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("building credential query: %w", err)
	}

	var credential membership.Credential
	if err := q.GetContext(ctx, &credential, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying credential for user %s: %w", userID, err)
	}
	return &credential, nil
}
