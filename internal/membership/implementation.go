// internal/membership/implementation.go
package membership

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"biblioteca/internal/faults"
	"biblioteca/internal/storage"
)

// service implements the Service interface.
type service struct {
	db          Database
	users       UserStore
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// NewService creates a new membership service instance.
// authBurst bounds how many register/authenticate attempts are accepted
// before throttling to one per minute.
func NewService(db Database, users UserStore, logger *slog.Logger, authBurst int) Service {
	return &service{
		db:          db,
		users:       users,
		rateLimiter: rate.NewLimiter(rate.Every(1*time.Minute), authBurst),
		logger:      logger,
	}
}

// Register creates a new user together with their credential.
func (s *service) Register(ctx context.Context, name, email, password string, role Role) (*User, error) {
	if !s.rateLimiter.Allow() {
		return nil, faults.RateLimited("too many registration attempts, try again later")
	}
	if !role.Valid() {
		return nil, faults.InvalidState("unknown role %q", role)
	}
	if name == "" || email == "" {
		return nil, faults.InvalidState("name and email must not be empty")
	}
	if len(password) < 8 {
		return nil, faults.InvalidState("password must be at least 8 characters")
	}

	passwordHash, salt, err := hashPassword(password)
	if err != nil {
		return nil, faults.IntegrityFailure("failed to hash password: %v", err)
	}

	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Role:      role,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.db.WithinTx(ctx, func(q storage.Querier) error {
		existing, err := s.users.GetByEmail(ctx, q, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return faults.InvalidState("email %s is already registered", email)
		}

		if err := s.users.Insert(ctx, q, user); err != nil {
			return err
		}
		return s.users.InsertCredential(ctx, q, &Credential{
			UserID:       user.ID,
			PasswordHash: passwordHash,
			Salt:         salt,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Authenticate verifies a user's credentials and returns the user if successful.
func (s *service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	if !s.rateLimiter.Allow() {
		return nil, faults.RateLimited("too many authentication attempts, try again later")
	}

	var (
		user       *User
		credential *Credential
	)
	err := s.db.WithinTx(ctx, func(q storage.Querier) error {
		var err error
		user, err = s.users.GetByEmail(ctx, q, email)
		if err != nil || user == nil {
			return err
		}
		credential, err = s.users.GetCredential(ctx, q, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if user == nil || credential == nil {
		return nil, faults.Unauthorized("invalid credentials")
	}

	ok, err := verifyPassword(password, credential.Salt, credential.PasswordHash)
	if err != nil {
		return nil, faults.IntegrityFailure("failed to verify password: %v", err)
	}
	if !ok {
		return nil, faults.Unauthorized("invalid credentials")
	}
	if !user.Active {
		return nil, faults.Unauthorized("account is inactive")
	}

	return user, nil
}

// GetUser retrieves a user by their ID.
func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	var user *User
	err := s.db.WithinTx(ctx, func(q storage.Querier) error {
		var err error
		user, err = s.users.GetByID(ctx, q, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, faults.NotFound("user %s not found", id)
	}
	return user, nil
}

// ListUsers returns users matching the filter plus the unpaged total.
func (s *service) ListUsers(ctx context.Context, filter UserFilter) ([]User, int, error) {
	var (
		users []User
		total int
	)
	err := s.db.WithinTx(ctx, func(q storage.Querier) error {
		var err error
		users, total, err = s.users.List(ctx, q, filter)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UpdateUser applies the input to an existing user.
func (s *service) UpdateUser(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*User, error) {
	if !input.Role.Valid() {
		return nil, faults.InvalidState("unknown role %q", input.Role)
	}
	if input.Name == "" || input.Email == "" {
		return nil, faults.InvalidState("name and email must not be empty")
	}

	var user *User
	err := s.db.WithinTx(ctx, func(q storage.Querier) error {
		var err error
		user, err = s.users.GetByID(ctx, q, id)
		if err != nil {
			return err
		}
		if user == nil {
			return faults.NotFound("user %s not found", id)
		}

		if input.Email != user.Email {
			existing, err := s.users.GetByEmail(ctx, q, input.Email)
			if err != nil {
				return err
			}
			if existing != nil {
				return faults.InvalidState("email %s is already registered", input.Email)
			}
		}

		user.Name = input.Name
		user.Email = input.Email
		user.Role = input.Role
		user.Active = input.Active
		user.UpdatedAt = time.Now().UTC()

		return s.users.Update(ctx, q, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes a user.
func (s *service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.db.WithinTx(ctx, func(q storage.Querier) error {
		deleted, err := s.users.Delete(ctx, q, id)
		if err != nil {
			return err
		}
		if !deleted {
			return faults.NotFound("user %s not found", id)
		}
		return nil
	})
}
