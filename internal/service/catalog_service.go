package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"shelf-service/internal/catalog"
	"shelf-service/internal/events"
	"shelf-service/internal/model"
	"shelf-service/internal/repository"
)

const localSearchLimit = 20

// BookIndexer is the local full-text index kept alongside the mirror.
type BookIndexer interface {
	IndexBook(book *model.Book) error
	Search(text string, limit int) ([]string, error)
}

type CatalogService interface {
	Upsert(ctx context.Context, book model.BookUpsert) (*model.Book, error)
	EnsureStub(ctx context.Context, bookID string) (*model.Book, error)
	Get(ctx context.Context, bookID string) (*model.Book, error)
	Search(ctx context.Context, query string) ([]model.Book, error)
	Enrich(ctx context.Context, bookID string) (*model.Book, error)
}

type catalogService struct {
	bookRepo  repository.BookRepository
	upstream  catalog.Catalog
	index     BookIndexer
	publisher events.EventPublisher
}

func NewCatalogService(bookRepo repository.BookRepository, upstream catalog.Catalog, index BookIndexer, pub events.EventPublisher) CatalogService {
	return &catalogService{
		bookRepo:  bookRepo,
		upstream:  upstream,
		index:     index,
		publisher: pub,
	}
}

func (s *catalogService) Upsert(ctx context.Context, u model.BookUpsert) (*model.Book, error) {
	id, err := normalizeBookID(u.ID)
	if err != nil {
		return nil, err
	}
	u.ID = id

	book, err := s.bookRepo.Upsert(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("upsert book %s: %w", u.ID, err)
	}

	s.indexBook(ctx, book)

	return book, nil
}

func (s *catalogService) EnsureStub(ctx context.Context, bookID string) (*model.Book, error) {
	bookID, err := normalizeBookID(bookID)
	if err != nil {
		return nil, err
	}

	created, err := s.bookRepo.InsertStub(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("insert stub %s: %w", bookID, err)
	}

	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, ErrBookNotFound
	}

	if created {
		go s.publisher.PublishBookStubCreated(bookID)
	}

	return book, nil
}

// Get serves from the mirror and falls through to the upstream catalog on a miss.
func (s *catalogService) Get(ctx context.Context, bookID string) (*model.Book, error) {
	bookID, err := normalizeBookID(bookID)
	if err != nil {
		return nil, err
	}

	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book != nil {
		return book, nil
	}

	return s.Enrich(ctx, bookID)
}

func (s *catalogService) Enrich(ctx context.Context, bookID string) (*model.Book, error) {
	bookID, err := normalizeBookID(bookID)
	if err != nil {
		return nil, err
	}

	volume, err := s.upstream.Volume(ctx, bookID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("fetch volume %s: %w", bookID, err)
	}

	return s.Upsert(ctx, *volume)
}

// Search asks the upstream catalog and mirrors every hit. When the upstream fails the local
// index answers instead; only when both come back empty is the upstream error returned.
func (s *catalogService) Search(ctx context.Context, query string) ([]model.Book, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	results, upstreamErr := s.upstream.Search(ctx, query)
	if upstreamErr == nil {
		books := make([]model.Book, 0, len(results))
		for _, r := range results {
			book, err := s.Upsert(ctx, r)
			if err != nil {
				return nil, err
			}
			books = append(books, *book)
		}
		return books, nil
	}

	slog.WarnContext(ctx, "Upstream catalog search failed, using local index", "query", query, "error", upstreamErr)

	ids, err := s.index.Search(query, localSearchLimit)
	if err != nil {
		slog.ErrorContext(ctx, "Local index search failed", "query", query, "error", err)
		return nil, fmt.Errorf("search %q: %w", query, upstreamErr)
	}

	books, err := s.bookRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, fmt.Errorf("search %q: %w", query, upstreamErr)
	}

	return books, nil
}

func (s *catalogService) indexBook(ctx context.Context, book *model.Book) {
	if err := s.index.IndexBook(book); err != nil {
		slog.WarnContext(ctx, "Failed to index book", "book_id", book.ID, "error", err)
	}
}

// normalizeBookID trims surrounding whitespace. Every operation keyed by a book id goes through it.
func normalizeBookID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrMissingID
	}
	return id, nil
}
