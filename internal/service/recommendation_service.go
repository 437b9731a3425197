package service

import (
	"context"

	"github.com/google/uuid"

	"shelf-service/internal/model"
	"shelf-service/internal/repository"
)

const (
	RecommendationTarget   = 10
	RecommendationMinimum  = 5
	RecommendationMinScore = 4.0
)

type RecommendationService interface {
	Recommend(ctx context.Context, userID uuid.UUID) ([]model.Book, error)
}

type recommendationService struct {
	profileRepo repository.ProfileRepository
	listRepo    repository.ListRepository
	bookRepo    repository.BookRepository
}

func NewRecommendationService(profileRepo repository.ProfileRepository, listRepo repository.ListRepository, bookRepo repository.BookRepository) RecommendationService {
	return &recommendationService{
		profileRepo: profileRepo,
		listRepo:    listRepo,
		bookRepo:    bookRepo,
	}
}

// Recommend picks books sharing a favorite genre, best rated first, and backfills with
// highly rated books when fewer than RecommendationMinimum match. Books already in any of
// the user's lists are never returned.
func (s *recommendationService) Recommend(ctx context.Context, userID uuid.UUID) ([]model.Book, error) {
	genres, err := s.profileRepo.FindGenres(ctx, userID)
	if err != nil {
		return nil, err
	}

	owned, err := s.listRepo.BookIDsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	excluded := make(map[string]struct{}, len(owned))
	for _, id := range owned {
		excluded[id] = struct{}{}
	}

	picked := make([]model.Book, 0, RecommendationTarget)
	take := func(books []model.Book) {
		for _, b := range books {
			if len(picked) == RecommendationTarget {
				return
			}
			if _, skip := excluded[b.ID]; skip {
				continue
			}
			excluded[b.ID] = struct{}{}
			picked = append(picked, b)
		}
	}

	if len(genres) > 0 {
		byGenre, err := s.bookRepo.FindByCategories(ctx, genres, owned, RecommendationTarget)
		if err != nil {
			return nil, err
		}
		take(byGenre)
	}

	if len(picked) < RecommendationMinimum {
		seen := make([]string, 0, len(excluded))
		for id := range excluded {
			seen = append(seen, id)
		}

		topRated, err := s.bookRepo.FindTopRated(ctx, RecommendationMinScore, seen, RecommendationTarget-len(picked))
		if err != nil {
			return nil, err
		}
		take(topRated)
	}

	return picked, nil
}
