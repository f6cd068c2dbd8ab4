// internal/catalog/domain.go
package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Condition is the physical condition of a book's copies.
type Condition string

const (
	ConditionNew  Condition = "new"
	ConditionGood Condition = "good"
	ConditionFair Condition = "fair"
	ConditionPoor Condition = "poor"
)

// Valid reports whether c is one of the enumerated conditions.
func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// Book represents a title in the catalog together with its inventory counters.
// CopiesAvailable decreases with each loan and increases with each return;
// only the circulation core mutates it.
type Book struct {
	ID                uuid.UUID `db:"id" json:"id"`
	Title             string    `db:"title" json:"title"`
	Author            string    `db:"author" json:"author"`
	Category          string    `db:"category" json:"category"`
	ReplacementCostBs float64   `db:"replacement_cost_bs" json:"replacement_cost_bs"`
	TotalCopies       int       `db:"total_copies" json:"total_copies"`
	CopiesAvailable   int       `db:"copies_available" json:"copies_available"`
	Condition         Condition `db:"condition" json:"condition"`
	Enabled           bool      `db:"enabled" json:"enabled"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// BookFilter narrows book listings. Zero values match everything.
type BookFilter struct {
	Title    string
	Author   string
	Category string
	Enabled  *bool
	Page     int
	PageSize int
}

// BookInput carries the mutable fields for create and update operations.
type BookInput struct {
	Title             string    `json:"title"`
	Author            string    `json:"author"`
	Category          string    `json:"category"`
	ReplacementCostBs float64   `json:"replacement_cost_bs"`
	TotalCopies       int       `json:"total_copies"`
	Condition         Condition `json:"condition"`
	Enabled           bool      `json:"enabled"`
}
