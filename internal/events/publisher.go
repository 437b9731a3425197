package events

import (
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	SubjectBookRated       = "book.rated"
	SubjectBookAddedToList = "list.book_added"
	SubjectBookStubCreated = "book.stub_created"
	SubjectEnrichFailed    = "book.enrich.failed"
)

type EventPublisher interface {
	PublishBookRated(userID uuid.UUID, bookID string, rating int, average float64) error
	PublishBookAddedToList(userID uuid.UUID, listID int64, bookID string) error
	PublishBookStubCreated(bookID string) error
}

type BookRatedEvent struct {
	EventType string    `json:"event_type"`
	UserID    uuid.UUID `json:"user_id"`
	BookID    string    `json:"book_id"`
	Rating    int       `json:"rating"`
	Average   float64   `json:"average"`
	RatedAt   time.Time `json:"rated_at"`
}

type BookAddedToListEvent struct {
	EventType string    `json:"event_type"`
	UserID    uuid.UUID `json:"user_id"`
	ListID    int64     `json:"list_id"`
	BookID    string    `json:"book_id"`
	AddedAt   time.Time `json:"added_at"`
}

type BookStubCreatedEvent struct {
	EventType string    `json:"event_type"`
	BookID    string    `json:"book_id"`
	CreatedAt time.Time `json:"created_at"`
}

type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(natsURL string) (*NatsPublisher, error) {
	nc, err := nats.Connect(natsURL, nats.Name("shelf-service"))
	if err != nil {
		return nil, err
	}

	return &NatsPublisher{conn: nc}, nil
}

func (p *NatsPublisher) PublishBookRated(userID uuid.UUID, bookID string, rating int, average float64) error {
	return p.publish(SubjectBookRated, BookRatedEvent{
		EventType: SubjectBookRated,
		UserID:    userID,
		BookID:    bookID,
		Rating:    rating,
		Average:   average,
		RatedAt:   time.Now(),
	})
}

func (p *NatsPublisher) PublishBookAddedToList(userID uuid.UUID, listID int64, bookID string) error {
	return p.publish(SubjectBookAddedToList, BookAddedToListEvent{
		EventType: SubjectBookAddedToList,
		UserID:    userID,
		ListID:    listID,
		BookID:    bookID,
		AddedAt:   time.Now(),
	})
}

func (p *NatsPublisher) PublishBookStubCreated(bookID string) error {
	return p.publish(SubjectBookStubCreated, BookStubCreatedEvent{
		EventType: SubjectBookStubCreated,
		BookID:    bookID,
		CreatedAt: time.Now(),
	})
}

func (p *NatsPublisher) publish(subject string, event interface{}) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		slog.Error("Error marshalling event JSON", "subject", subject, "error", err)
		return err
	}

	if err := p.conn.Publish(subject, eventJSON); err != nil {
		slog.Error("Error publishing to NATS", "subject", subject, "error", err)
		return err
	}

	slog.Debug("Published event to NATS", "subject", subject)

	return nil
}

// Shutdown flushes pending messages and closes the connection.
func (p *NatsPublisher) Shutdown() error {
	return p.conn.Drain()
}

// NopPublisher discards every event. Used when NATS is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishBookRated(uuid.UUID, string, int, float64) error { return nil }
func (NopPublisher) PublishBookAddedToList(uuid.UUID, int64, string) error  { return nil }
func (NopPublisher) PublishBookStubCreated(string) error                     { return nil }
