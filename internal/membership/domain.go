// internal/membership/domain.go
package membership

import (
	"time"

	"github.com/google/uuid"
)

// Role determines how many books a user may have on loan at once.
type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
)

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleStaff
}

// User represents a library user. Inactive users may not open new loans.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Role      Role      `db:"role" json:"role"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Credential stores a user's password hash. Kept out of User so the
// entity can be serialized to clients without leaking secrets.
type Credential struct {
	UserID       uuid.UUID `db:"user_id"`
	PasswordHash string    `db:"password_hash"`
	Salt         string    `db:"salt"`
}

// UserFilter narrows user listings. Zero values match everything.
type UserFilter struct {
	Role     Role
	Active   *bool
	Page     int
	PageSize int
}

// UpdateUserInput carries the mutable fields of a user.
type UpdateUserInput struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Active bool   `json:"active"`
}
