package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"shelf-service/internal/model"
)

type RatingRepository interface {
	// Rate upserts the (user, book) rating and recomputes the book average in one transaction.
	Rate(ctx context.Context, userID uuid.UUID, bookID string, rating int) (*model.RatingSummary, error)
	Delete(ctx context.Context, userID uuid.UUID, bookID string) (bool, error)
	RecomputeAverage(ctx context.Context, bookID string) (*model.RatingSummary, error)
	FindByUserAndBook(ctx context.Context, userID uuid.UUID, bookID string) (*model.Rating, error)
}

type postgresRatingRepository struct {
	db *sqlx.DB
}

func NewPostgresRatingRepository(db *sqlx.DB) RatingRepository {
	return &postgresRatingRepository{db: db}
}

func (r *postgresRatingRepository) Rate(ctx context.Context, userID uuid.UUID, bookID string, rating int) (*model.RatingSummary, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO ratings (user_id, book_id, rating)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, book_id) DO UPDATE SET rating = EXCLUDED.rating, updated_at = now()
	`
	if _, err := tx.ExecContext(ctx, query, userID, bookID, rating); err != nil {
		return nil, fmt.Errorf("upsert rating: %w", err)
	}

	summary, err := recomputeAverage(ctx, tx, bookID)
	if err != nil {
		return nil, err
	}
	summary.Rating = rating

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return summary, nil
}

func (r *postgresRatingRepository) RecomputeAverage(ctx context.Context, bookID string) (*model.RatingSummary, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	summary, err := recomputeAverage(ctx, tx, bookID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return summary, nil
}

// recomputeAverage re-reads every rating of the book and stores their arithmetic mean,
// or NULL when none remain.
func recomputeAverage(ctx context.Context, tx *sqlx.Tx, bookID string) (*model.RatingSummary, error) {
	var ratings []int
	if err := tx.SelectContext(ctx, &ratings, `SELECT rating FROM ratings WHERE book_id = $1`, bookID); err != nil {
		return nil, fmt.Errorf("read ratings: %w", err)
	}

	summary := &model.RatingSummary{Count: len(ratings)}

	var average *float64
	if mean, ok := model.MeanRating(ratings); ok {
		summary.Average = mean
		average = &mean
	}

	if _, err := tx.ExecContext(ctx, `UPDATE books SET average_rating = $1, updated_at = now() WHERE id = $2`, average, bookID); err != nil {
		return nil, fmt.Errorf("update average: %w", err)
	}

	return summary, nil
}

func (r *postgresRatingRepository) Delete(ctx context.Context, userID uuid.UUID, bookID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ratings WHERE user_id = $1 AND book_id = $2`, userID, bookID)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (r *postgresRatingRepository) FindByUserAndBook(ctx context.Context, userID uuid.UUID, bookID string) (*model.Rating, error) {
	var rating model.Rating
	query := `SELECT id, user_id, book_id, rating, created_at, updated_at FROM ratings WHERE user_id = $1 AND book_id = $2`
	err := r.db.GetContext(ctx, &rating, query, userID, bookID)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, err
	}

	return &rating, nil
}
