package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Birthdate    time.Time `db:"birthdate" json:"birthdate"`
	ProfileID    uuid.UUID `db:"profile_id" json:"profile_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type Profile struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Bio       string    `db:"bio" json:"bio"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// UserDetails is a user joined with its profile and favorite genres.
type UserDetails struct {
	User
	Bio    string   `db:"bio" json:"bio"`
	Genres []string `db:"-" json:"genres"`
}
