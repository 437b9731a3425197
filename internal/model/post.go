package model

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID        int64     `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Content   string    `db:"content" json:"content"`
	BookID    *string   `db:"book_id" json:"book_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type PostDetails struct {
	Post
	Username  string  `db:"username" json:"username"`
	BookTitle *string `db:"book_title" json:"book_title,omitempty"`
}
