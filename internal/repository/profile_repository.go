package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"shelf-service/internal/model"
)

type ProfileRepository interface {
	FindDetails(ctx context.Context, userID uuid.UUID) (*model.UserDetails, error)
	FindGenres(ctx context.Context, userID uuid.UUID) ([]string, error)
	// Update writes bio when non-nil and fully replaces genres when non-nil.
	Update(ctx context.Context, userID uuid.UUID, bio *string, genres []string) error
}

type postgresProfileRepository struct {
	db *sqlx.DB
}

func NewPostgresProfileRepository(db *sqlx.DB) ProfileRepository {
	return &postgresProfileRepository{db: db}
}

func (r *postgresProfileRepository) FindDetails(ctx context.Context, userID uuid.UUID) (*model.UserDetails, error) {
	var details model.UserDetails
	query := `
		SELECT u.id, u.email, u.username, u.birthdate, u.profile_id, u.created_at, u.updated_at, p.bio
		FROM users u
		JOIN profiles p ON p.id = u.profile_id
		WHERE u.id = $1
	`
	if err := r.db.GetContext(ctx, &details, query, userID); err != nil {
		return nil, err
	}

	genres, err := r.FindGenres(ctx, userID)
	if err != nil {
		return nil, err
	}
	details.Genres = genres

	return &details, nil
}

func (r *postgresProfileRepository) FindGenres(ctx context.Context, userID uuid.UUID) ([]string, error) {
	genres := []string{}
	query := `SELECT name FROM favorite_genres WHERE user_id = $1 ORDER BY name`
	err := r.db.SelectContext(ctx, &genres, query, userID)
	return genres, err
}

func (r *postgresProfileRepository) Update(ctx context.Context, userID uuid.UUID, bio *string, genres []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if bio != nil {
		query := `UPDATE profiles SET bio = $1, updated_at = now() WHERE id = (SELECT profile_id FROM users WHERE id = $2)`
		if _, err := tx.ExecContext(ctx, query, *bio, userID); err != nil {
			return fmt.Errorf("update bio: %w", err)
		}
	}

	if genres != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM favorite_genres WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("clear genres: %w", err)
		}
		if err := insertGenres(ctx, tx, userID, genres); err != nil {
			return err
		}
	}

	return tx.Commit()
}
