package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"shelf-service/internal/model"
)

const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether err carries a postgres unique-constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User, genres []string) (*model.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type postgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

// Create inserts the profile, the user, its favorite genres and the default lists atomically.
func (r *postgresUserRepository) Create(ctx context.Context, user *model.User, genres []string) (*model.User, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var profileID uuid.UUID
	if err := tx.QueryRowxContext(ctx, `INSERT INTO profiles (bio) VALUES ('') RETURNING id`).Scan(&profileID); err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}

	query := `
		INSERT INTO users (email, username, password_hash, birthdate, profile_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRowxContext(ctx, query, user.Email, user.Username, user.PasswordHash, user.Birthdate, profileID).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	user.ProfileID = profileID

	if err := insertGenres(ctx, tx, user.ID, genres); err != nil {
		return nil, err
	}

	for _, name := range model.DefaultListNames {
		if _, err := tx.ExecContext(ctx, `INSERT INTO book_lists (user_id, name) VALUES ($1, $2)`, user.ID, name); err != nil {
			return nil, fmt.Errorf("insert default list %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return user, nil
}

func insertGenres(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, genres []string) error {
	for _, name := range genres {
		query := `INSERT INTO favorite_genres (user_id, name) VALUES ($1, $2) ON CONFLICT (user_id, name) DO NOTHING`
		if _, err := tx.ExecContext(ctx, query, userID, name); err != nil {
			return fmt.Errorf("insert genre %q: %w", name, err)
		}
	}
	return nil
}

func (r *postgresUserRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 OR username = $2)`
	err := r.db.GetContext(ctx, &exists, query, email, username)
	if err != nil && err != sql.ErrNoRows {
		return false, err
	}
	return exists, nil
}

func (r *postgresUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	query := `SELECT id, email, username, password_hash, birthdate, profile_id, created_at, updated_at FROM users WHERE email = $1`
	err := r.db.GetContext(ctx, &user, query, email)

	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *postgresUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	query := `SELECT id, email, username, birthdate, profile_id, created_at, updated_at FROM users WHERE id = $1`
	err := r.db.GetContext(ctx, &user, query, id)

	if err != nil {
		return nil, err
	}

	return &user, nil
}
