package model

import (
	"time"

	"github.com/google/uuid"
)

var DefaultListNames = []string{"want to read", "currently reading", "read"}

type BookList struct {
	ID        int64     `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type BookListSummary struct {
	BookList
	EntryCount int `db:"entry_count" json:"entry_count"`
}

type BookListEntry struct {
	ID      int64     `db:"id" json:"id"`
	ListID  int64     `db:"list_id" json:"list_id"`
	BookID  string    `db:"book_id" json:"book_id"`
	AddedAt time.Time `db:"added_at" json:"added_at"`
}

// ListedBook is an entry joined with its catalog record.
type ListedBook struct {
	AddedAt time.Time `db:"added_at" json:"added_at"`
	Book
}

type BookListDetails struct {
	BookList
	Books []ListedBook `json:"books"`
}
