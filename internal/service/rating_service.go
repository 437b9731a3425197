package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"shelf-service/internal/events"
	"shelf-service/internal/model"
	"shelf-service/internal/repository"
)

type RatingService interface {
	Rate(ctx context.Context, userID uuid.UUID, bookID string, rating float64) (*model.RatingSummary, error)
	Unrate(ctx context.Context, userID uuid.UUID, bookID string) error
	MyRating(ctx context.Context, userID uuid.UUID, bookID string) (*model.Rating, error)
}

type RatingOptions struct {
	// RecomputeOnUnrate refreshes the book average after a rating is removed.
	RecomputeOnUnrate bool
}

type ratingService struct {
	ratingRepo repository.RatingRepository
	catalog    CatalogService
	publisher  events.EventPublisher
	opts       RatingOptions
}

func NewRatingService(ratingRepo repository.RatingRepository, catalog CatalogService, pub events.EventPublisher, opts RatingOptions) RatingService {
	return &ratingService{
		ratingRepo: ratingRepo,
		catalog:    catalog,
		publisher:  pub,
		opts:       opts,
	}
}

func (s *ratingService) Rate(ctx context.Context, userID uuid.UUID, bookID string, rating float64) (*model.RatingSummary, error) {
	value, ok := model.NormalizeRating(rating)
	if !ok {
		return nil, ErrInvalidRating
	}

	bookID, err := normalizeBookID(bookID)
	if err != nil {
		return nil, err
	}

	if _, err := s.catalog.EnsureStub(ctx, bookID); err != nil {
		return nil, err
	}

	summary, err := s.ratingRepo.Rate(ctx, userID, bookID, value)
	if err != nil {
		return nil, err
	}

	go s.publisher.PublishBookRated(userID, bookID, summary.Rating, summary.Average)

	return summary, nil
}

func (s *ratingService) Unrate(ctx context.Context, userID uuid.UUID, bookID string) error {
	bookID, err := normalizeBookID(bookID)
	if err != nil {
		return err
	}

	removed, err := s.ratingRepo.Delete(ctx, userID, bookID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrRatingNotFound
	}

	if s.opts.RecomputeOnUnrate {
		if _, err := s.ratingRepo.RecomputeAverage(ctx, bookID); err != nil {
			slog.ErrorContext(ctx, "Failed to recompute average after unrate", "book_id", bookID, "error", err)
			return err
		}
	}

	return nil
}

func (s *ratingService) MyRating(ctx context.Context, userID uuid.UUID, bookID string) (*model.Rating, error) {
	bookID, err := normalizeBookID(bookID)
	if err != nil {
		return nil, err
	}

	rating, err := s.ratingRepo.FindByUserAndBook(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if rating == nil {
		return nil, ErrRatingNotFound
	}
	return rating, nil
}
