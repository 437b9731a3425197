package model

import (
	"time"

	"github.com/lib/pq"
)

// StubBookTitle is stored for books first referenced by id alone, before enrichment.
const StubBookTitle = "external book"

type Book struct {
	ID             string         `db:"id" json:"id"`
	Title          string         `db:"title" json:"title"`
	Authors        string         `db:"authors" json:"authors"`
	Image          *string        `db:"image" json:"image,omitempty"`
	Description    *string        `db:"description" json:"description,omitempty"`
	Categories     pq.StringArray `db:"categories" json:"categories"`
	ExternalRating *float64       `db:"external_rating" json:"external_rating,omitempty"`
	AverageRating  *float64       `db:"average_rating" json:"average_rating,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// BookUpsert carries a partial catalog record. Nil fields are left untouched on an existing
// row; non-nil fields overwrite, empty values included. The Clear flags write NULL to the
// nullable columns when the matching pointer is nil.
type BookUpsert struct {
	ID          string
	Title       *string
	Authors     *string
	Image       *string
	Description *string
	Categories  []string
	Rating      *float64

	ClearImage       bool
	ClearDescription bool
	ClearRating      bool
}

// HasData reports whether u carries anything besides the id.
func (u BookUpsert) HasData() bool {
	return u.Title != nil || u.Authors != nil || u.Image != nil || u.Description != nil ||
		u.Categories != nil || u.Rating != nil ||
		u.ClearImage || u.ClearDescription || u.ClearRating
}

// HasCategories distinguishes an omitted category set from an explicitly empty one.
func (u BookUpsert) HasCategories() bool {
	return u.Categories != nil
}
