package search

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"shelf-service/internal/model"
)

// BookIndex is a local full-text index over the catalog mirror, used when the upstream
// catalog cannot answer a search. Safe for concurrent use.
type BookIndex struct {
	index bleve.Index
	path  string
	mu    sync.RWMutex
}

type Options struct {
	// Path is the index directory. Empty keeps the index in memory.
	Path string
}

func NewBookIndex(opts Options) (*BookIndex, error) {
	if opts.Path == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create in-memory index: %w", err)
		}
		return &BookIndex{index: index}, nil
	}

	indexPath := filepath.Clean(opts.Path)

	if _, statErr := os.Stat(indexPath); statErr == nil {
		index, err := bleve.Open(indexPath)
		if err == nil {
			slog.Info("Opened existing search index", "path", indexPath)
			return &BookIndex{index: index, path: indexPath}, nil
		}

		slog.Warn("Failed to open existing search index, recreating", "path", indexPath, "error", err)
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
	}

	index, err := bleve.New(indexPath, buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	slog.Info("Created new search index", "path", indexPath)

	return &BookIndex{index: index, path: indexPath}, nil
}

// bookDocument keys fields by the names used in buildIndexMapping.
func bookDocument(book *model.Book) map[string]interface{} {
	doc := map[string]interface{}{
		"title":      book.Title,
		"authors":    book.Authors,
		"categories": []string(book.Categories),
	}
	if book.Description != nil {
		doc["description"] = *book.Description
	}
	return doc
}

func (s *BookIndex) IndexBook(book *model.Book) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.index.Index(book.ID, bookDocument(book))
}

func (s *BookIndex) IndexBooks(books []model.Book) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch := s.index.NewBatch()
	for i := range books {
		if err := batch.Index(books[i].ID, bookDocument(&books[i])); err != nil {
			return fmt.Errorf("batch index %s: %w", books[i].ID, err)
		}
	}

	return s.index.Batch(batch)
}

// Search returns matching book ids ordered by relevance.
func (s *BookIndex) Search(text string, limit int) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" || limit <= 0 {
		return []string{}, nil
	}

	title := bleve.NewMatchQuery(text)
	title.SetField("title")
	title.SetBoost(3)

	authors := bleve.NewMatchQuery(text)
	authors.SetField("authors")
	authors.SetBoost(2)

	description := bleve.NewMatchQuery(text)
	description.SetField("description")

	category := bleve.NewTermQuery(text)
	category.SetField("categories")

	q := bleve.NewDisjunctionQuery([]query.Query{title, authors, description, category}...)

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)

	s.mu.RLock()
	res, err := s.index.Search(req)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}

	return ids, nil
}

func (s *BookIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Shutdown closes the index.
func (s *BookIndex) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}
