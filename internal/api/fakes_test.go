package api

import (
	"context"
	"time"

	"github.com/google/uuid"

	"shelf-service/internal/model"
	"shelf-service/internal/repository"
	"shelf-service/internal/service"
)

type stubAuth struct {
	registerErr error
	loginErr    error
	lastInput   service.RegisterInput
}

func (s *stubAuth) Register(_ context.Context, in service.RegisterInput) (*model.User, error) {
	s.lastInput = in
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &model.User{ID: uuid.New(), Email: in.Email, Username: in.Username, Birthdate: in.Birthdate, PasswordHash: "secret-hash"}, nil
}

func (s *stubAuth) Login(context.Context, string, string) (string, time.Time, error) {
	if s.loginErr != nil {
		return "", time.Time{}, s.loginErr
	}
	return "token", time.Now().Add(time.Hour), nil
}

type stubProfiles struct{}

func (stubProfiles) Me(_ context.Context, userID uuid.UUID) (*model.UserDetails, error) {
	return &model.UserDetails{User: model.User{ID: userID}, Genres: []string{"fantasy"}}, nil
}

func (stubProfiles) UpdateProfile(_ context.Context, userID uuid.UUID, bio *string, genres []string) (*model.UserDetails, error) {
	d := &model.UserDetails{User: model.User{ID: userID}, Genres: genres}
	if bio != nil {
		d.Bio = *bio
	}
	return d, nil
}

type stubLists struct {
	err      error
	lastBook model.BookUpsert
	lastList int64
}

func (s *stubLists) CreateList(_ context.Context, userID uuid.UUID, name string) (*model.BookList, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.BookList{ID: 7, UserID: userID, Name: name}, nil
}

func (s *stubLists) DeleteList(_ context.Context, _ uuid.UUID, listID int64) error {
	s.lastList = listID
	return s.err
}

func (s *stubLists) AddBook(_ context.Context, _ uuid.UUID, listID int64, book model.BookUpsert) error {
	s.lastList = listID
	s.lastBook = book
	return s.err
}

func (s *stubLists) RemoveBook(_ context.Context, _ uuid.UUID, listID int64, _ string) error {
	s.lastList = listID
	return s.err
}

func (s *stubLists) Lists(context.Context, uuid.UUID) ([]model.BookListSummary, error) {
	return []model.BookListSummary{}, s.err
}

func (s *stubLists) List(_ context.Context, _ uuid.UUID, listID int64) (*model.BookListDetails, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.BookListDetails{BookList: model.BookList{ID: listID}}, nil
}

type stubCatalog struct {
	searchErr error
}

func (stubCatalog) Upsert(_ context.Context, b model.BookUpsert) (*model.Book, error) {
	return &model.Book{ID: b.ID}, nil
}

func (stubCatalog) EnsureStub(_ context.Context, id string) (*model.Book, error) {
	return &model.Book{ID: id}, nil
}

func (stubCatalog) Get(_ context.Context, id string) (*model.Book, error) {
	if id == "missing" {
		return nil, service.ErrBookNotFound
	}
	return &model.Book{ID: id}, nil
}

func (s stubCatalog) Search(_ context.Context, q string) ([]model.Book, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	if q == "" {
		return nil, service.ErrEmptyQuery
	}
	return []model.Book{{ID: "b1"}}, nil
}

func (stubCatalog) Enrich(_ context.Context, id string) (*model.Book, error) {
	return &model.Book{ID: id}, nil
}

type stubRatings struct {
	lastRating float64
}

func (s *stubRatings) Rate(_ context.Context, _ uuid.UUID, _ string, rating float64) (*model.RatingSummary, error) {
	s.lastRating = rating
	r, ok := model.NormalizeRating(rating)
	if !ok {
		return nil, service.ErrInvalidRating
	}
	return &model.RatingSummary{Rating: r, Average: float64(r), Count: 1}, nil
}

func (s *stubRatings) Unrate(context.Context, uuid.UUID, string) error {
	return service.ErrRatingNotFound
}

func (s *stubRatings) MyRating(_ context.Context, userID uuid.UUID, bookID string) (*model.Rating, error) {
	return &model.Rating{UserID: userID, BookID: bookID, Rating: 4}, nil
}

type stubRecommendations struct{}

func (stubRecommendations) Recommend(context.Context, uuid.UUID) ([]model.Book, error) {
	return []model.Book{}, nil
}

type stubPosts struct {
	page, limit int
}

func (s *stubPosts) CreatePost(_ context.Context, userID uuid.UUID, content string, bookID *string) (*model.Post, error) {
	return &model.Post{ID: 1, UserID: userID, Content: content, BookID: bookID}, nil
}

func (s *stubPosts) Feed(_ context.Context, page, limit int) (*repository.PaginatedPosts, error) {
	s.page, s.limit = page, limit
	return &repository.PaginatedPosts{}, nil
}

func (s *stubPosts) DeletePost(context.Context, uuid.UUID, int64) error {
	return service.ErrPostNotFound
}
