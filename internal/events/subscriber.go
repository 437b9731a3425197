package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"shelf-service/internal/model"
)

const (
	maxRetries    = 3
	retryDelaySec = 2
)

// Enricher refreshes a mirrored book from the external catalog.
type Enricher interface {
	Enrich(ctx context.Context, bookID string) (*model.Book, error)
}

type EnrichmentSubscriber struct {
	natsConn   *nats.Conn
	enricher   Enricher
	retryDelay time.Duration
	// permanent marks errors a retry cannot fix. They go to the dead-letter subject at once.
	permanent func(error) bool
	// deadLetter receives the raw event after the final failed attempt.
	deadLetter func(subject string, data []byte) error
}

func NewEnrichmentSubscriber(natsURL string, enricher Enricher, permanent func(error) bool) (*EnrichmentSubscriber, error) {
	nc, err := nats.Connect(natsURL, nats.Name("catalog-worker"))
	if err != nil {
		return nil, err
	}
	slog.Info("Enrichment subscriber connected to NATS")

	s := &EnrichmentSubscriber{
		natsConn:   nc,
		enricher:   enricher,
		retryDelay: retryDelaySec * time.Second,
		permanent:  permanent,
		deadLetter: nc.Publish,
	}

	if _, err := nc.Subscribe(SubjectBookStubCreated, func(msg *nats.Msg) {
		s.handleStubCreated(msg.Data)
	}); err != nil {
		nc.Close()
		return nil, err
	}
	slog.Info("Enrichment subscriber listening", "subject", SubjectBookStubCreated)

	return s, nil
}

func (s *EnrichmentSubscriber) handleStubCreated(data []byte) {
	var event BookStubCreatedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal stub created event", "error", err)
		return
	}
	if event.BookID == "" {
		slog.Warn("Stub created event without book id, dropping")
		return
	}

	var enrichErr error
	attempt := 1
	for ; attempt <= maxRetries; attempt++ {
		var book *model.Book
		book, enrichErr = s.enricher.Enrich(context.Background(), event.BookID)
		if enrichErr == nil {
			slog.Info("Book enriched", "book_id", event.BookID, "title", book.Title, "attempt", attempt)
			return
		}
		if s.permanent != nil && s.permanent(enrichErr) {
			break
		}
		if attempt == maxRetries {
			break
		}

		slog.Warn("Failed enriching book, retrying", "book_id", event.BookID, "attempt", attempt, "error", enrichErr, "delay", s.retryDelay)
		time.Sleep(s.retryDelay)
	}

	slog.Error("Giving up on book enrichment", "book_id", event.BookID, "attempts", attempt, "error", enrichErr)

	if err := s.deadLetter(SubjectEnrichFailed, data); err != nil {
		slog.Error("Failed to publish to DLQ", "subject", SubjectEnrichFailed, "error", err)
	} else {
		slog.Info("Published failed enrichment to DLQ", "subject", SubjectEnrichFailed)
	}
}

func (s *EnrichmentSubscriber) Shutdown() error {
	return s.natsConn.Drain()
}
