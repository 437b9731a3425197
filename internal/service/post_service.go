package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"shelf-service/internal/model"
	"shelf-service/internal/repository"
)

const (
	defaultFeedPageSize = 20
	maxFeedPageSize     = 100
)

type PostService interface {
	CreatePost(ctx context.Context, userID uuid.UUID, content string, bookID *string) (*model.Post, error)
	Feed(ctx context.Context, page, limit int) (*repository.PaginatedPosts, error)
	DeletePost(ctx context.Context, userID uuid.UUID, postID int64) error
}

type postService struct {
	postRepo repository.PostRepository
	catalog  CatalogService
}

func NewPostService(postRepo repository.PostRepository, catalog CatalogService) PostService {
	return &postService{
		postRepo: postRepo,
		catalog:  catalog,
	}
}

func (s *postService) CreatePost(ctx context.Context, userID uuid.UUID, content string, bookID *string) (*model.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyPost
	}

	if bookID != nil {
		id := strings.TrimSpace(*bookID)
		if id == "" {
			bookID = nil
		} else {
			if _, err := s.catalog.EnsureStub(ctx, id); err != nil {
				return nil, err
			}
			bookID = &id
		}
	}

	return s.postRepo.Create(ctx, &model.Post{
		UserID:  userID,
		Content: content,
		BookID:  bookID,
	})
}

func (s *postService) Feed(ctx context.Context, page, limit int) (*repository.PaginatedPosts, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultFeedPageSize
	}
	if limit > maxFeedPageSize {
		limit = maxFeedPageSize
	}

	return s.postRepo.ListRecent(ctx, page, limit)
}

func (s *postService) DeletePost(ctx context.Context, userID uuid.UUID, postID int64) error {
	removed, err := s.postRepo.Delete(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrPostNotFound
	}
	return nil
}
