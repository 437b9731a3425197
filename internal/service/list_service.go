package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"shelf-service/internal/events"
	"shelf-service/internal/model"
	"shelf-service/internal/repository"
)

type ListService interface {
	CreateList(ctx context.Context, userID uuid.UUID, name string) (*model.BookList, error)
	DeleteList(ctx context.Context, userID uuid.UUID, listID int64) error
	AddBook(ctx context.Context, userID uuid.UUID, listID int64, book model.BookUpsert) error
	RemoveBook(ctx context.Context, userID uuid.UUID, listID int64, bookID string) error
	Lists(ctx context.Context, userID uuid.UUID) ([]model.BookListSummary, error)
	List(ctx context.Context, userID uuid.UUID, listID int64) (*model.BookListDetails, error)
}

type listService struct {
	listRepo  repository.ListRepository
	catalog   CatalogService
	publisher events.EventPublisher
}

func NewListService(listRepo repository.ListRepository, catalog CatalogService, pub events.EventPublisher) ListService {
	return &listService{
		listRepo:  listRepo,
		catalog:   catalog,
		publisher: pub,
	}
}

func (s *listService) CreateList(ctx context.Context, userID uuid.UUID, name string) (*model.BookList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrListNameEmpty
	}

	exists, err := s.listRepo.ExistsByName(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrListNameTaken
	}

	list, err := s.listRepo.Create(ctx, userID, name)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrListNameTaken
		}
		return nil, err
	}

	return list, nil
}

func (s *listService) DeleteList(ctx context.Context, userID uuid.UUID, listID int64) error {
	if _, err := s.ownedList(ctx, userID, listID); err != nil {
		return err
	}

	return s.listRepo.Delete(ctx, listID)
}

// AddBook mirrors the book before linking it. A payload carrying only an id becomes a stub;
// anything more is upserted so every provided field reaches the mirror.
func (s *listService) AddBook(ctx context.Context, userID uuid.UUID, listID int64, book model.BookUpsert) error {
	bookID, err := normalizeBookID(book.ID)
	if err != nil {
		return err
	}
	book.ID = bookID

	if _, err := s.ownedList(ctx, userID, listID); err != nil {
		return err
	}

	if book.HasData() {
		_, err = s.catalog.Upsert(ctx, book)
	} else {
		_, err = s.catalog.EnsureStub(ctx, book.ID)
	}
	if err != nil {
		return err
	}

	exists, err := s.listRepo.EntryExists(ctx, listID, book.ID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyInList
	}

	if err := s.listRepo.AddEntry(ctx, listID, book.ID); err != nil {
		if repository.IsUniqueViolation(err) {
			return ErrAlreadyInList
		}
		return err
	}

	go s.publisher.PublishBookAddedToList(userID, listID, book.ID)

	return nil
}

func (s *listService) RemoveBook(ctx context.Context, userID uuid.UUID, listID int64, bookID string) error {
	bookID, err := normalizeBookID(bookID)
	if err != nil {
		return err
	}

	if _, err := s.ownedList(ctx, userID, listID); err != nil {
		return err
	}

	removed, err := s.listRepo.RemoveEntry(ctx, listID, bookID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrBookNotInList
	}

	return nil
}

func (s *listService) Lists(ctx context.Context, userID uuid.UUID) ([]model.BookListSummary, error) {
	return s.listRepo.ListByUser(ctx, userID)
}

func (s *listService) List(ctx context.Context, userID uuid.UUID, listID int64) (*model.BookListDetails, error) {
	list, err := s.ownedList(ctx, userID, listID)
	if err != nil {
		return nil, err
	}

	books, err := s.listRepo.ListBooks(ctx, listID)
	if err != nil {
		return nil, err
	}

	return &model.BookListDetails{BookList: *list, Books: books}, nil
}

// ownedList hides lists of other users behind the same NotFound as missing ones.
func (s *listService) ownedList(ctx context.Context, userID uuid.UUID, listID int64) (*model.BookList, error) {
	list, err := s.listRepo.FindOwned(ctx, userID, listID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, ErrListNotFound
	}
	return list, nil
}
