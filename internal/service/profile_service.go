package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"shelf-service/internal/model"
	"shelf-service/internal/repository"
)

type ProfileService interface {
	Me(ctx context.Context, userID uuid.UUID) (*model.UserDetails, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, bio *string, genres []string) (*model.UserDetails, error)
}

type profileService struct {
	profileRepo repository.ProfileRepository
}

func NewProfileService(profileRepo repository.ProfileRepository) ProfileService {
	return &profileService{profileRepo: profileRepo}
}

func (s *profileService) Me(ctx context.Context, userID uuid.UUID) (*model.UserDetails, error) {
	details, err := s.profileRepo.FindDetails(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return details, nil
}

// UpdateProfile writes bio when given and replaces the whole genre set when given.
func (s *profileService) UpdateProfile(ctx context.Context, userID uuid.UUID, bio *string, genres []string) (*model.UserDetails, error) {
	if bio != nil {
		trimmed := strings.TrimSpace(*bio)
		bio = &trimmed
	}

	if err := s.profileRepo.Update(ctx, userID, bio, normalizeGenres(genres)); err != nil {
		return nil, err
	}

	return s.Me(ctx, userID)
}
