package di

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/samber/do/v2"

	_ "github.com/jackc/pgx/v5/stdlib"

	"shelf-service/internal/api"
	"shelf-service/internal/catalog"
	"shelf-service/internal/config"
	"shelf-service/internal/events"
	"shelf-service/internal/jwt"
	"shelf-service/internal/repository"
	"shelf-service/internal/search"
	"shelf-service/internal/service"
)

const (
	shutdownTimeout = 10 * time.Second
	reindexPageSize = 500
)

// DatabaseHandle wraps the connection pool with shutdown capability.
type DatabaseHandle struct {
	*sqlx.DB
}

// Shutdown implements do.ShutdownerWithError.
func (h *DatabaseHandle) Shutdown() error {
	return h.Close()
}

func ProvideDatabase(i do.Injector) (*DatabaseHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	db, err := sqlx.Connect("pgx", cfg.Database.URL())
	if err != nil {
		return nil, err
	}
	slog.Info("Successfully connected to the database", "host", cfg.Database.Host, "name", cfg.Database.Name)

	return &DatabaseHandle{DB: db}, nil
}

func ProvideTokenManager(i do.Injector) (*jwt.Manager, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return jwt.NewManager(cfg.JWT.Secret, cfg.JWT.TTL)
}

// ProvidePublisher connects to NATS, or discards events when messaging is disabled.
func ProvidePublisher(i do.Injector) (events.EventPublisher, error) {
	cfg := do.MustInvoke[*config.Config](i)

	if !cfg.NATS.Enabled {
		slog.Warn("NATS disabled, domain events will be dropped")
		return events.NopPublisher{}, nil
	}

	publisher, err := events.NewNatsPublisher(cfg.NATS.URL)
	if err != nil {
		return nil, err
	}
	slog.Info("Successfully connected to NATS", "url", cfg.NATS.URL)

	return publisher, nil
}

func ProvideCatalogClient(i do.Injector) (*catalog.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return catalog.NewClient(catalog.Options{
		BaseURL: cfg.Catalog.BaseURL,
		APIKey:  cfg.Catalog.APIKey,
		Timeout: cfg.Catalog.Timeout,
		RPS:     cfg.Catalog.RPS,
	}), nil
}

// BookIndexHandle wraps the search index with shutdown capability.
type BookIndexHandle struct {
	*search.BookIndex
}

// Shutdown implements do.ShutdownerWithError.
func (h *BookIndexHandle) Shutdown() error {
	return h.BookIndex.Shutdown()
}

func ProvideBookIndex(i do.Injector) (*BookIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	index, err := search.NewBookIndex(search.Options{Path: cfg.Search.IndexPath})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	slog.Info("Search index initialized", "documents", docCount, "path", cfg.Search.IndexPath)

	return &BookIndexHandle{BookIndex: index}, nil
}

// ReindexIfEmpty fills an empty search index from the mirrored catalog.
func ReindexIfEmpty(ctx context.Context, i do.Injector) error {
	indexHandle := do.MustInvoke[*BookIndexHandle](i)
	bookRepo := do.MustInvoke[repository.BookRepository](i)

	docCount, err := indexHandle.DocumentCount()
	if err != nil {
		return err
	}
	if docCount > 0 {
		return nil
	}

	indexed := 0
	for offset := 0; ; offset += reindexPageSize {
		books, err := bookRepo.List(ctx, reindexPageSize, offset)
		if err != nil {
			return err
		}
		if len(books) == 0 {
			break
		}
		if err := indexHandle.IndexBooks(books); err != nil {
			return err
		}
		indexed += len(books)
		if len(books) < reindexPageSize {
			break
		}
	}

	if indexed > 0 {
		slog.Info("Search index rebuilt from catalog", "books", indexed)
	}
	return nil
}

func ProvideUserRepository(i do.Injector) (repository.UserRepository, error) {
	return repository.NewPostgresUserRepository(do.MustInvoke[*DatabaseHandle](i).DB), nil
}

func ProvideProfileRepository(i do.Injector) (repository.ProfileRepository, error) {
	return repository.NewPostgresProfileRepository(do.MustInvoke[*DatabaseHandle](i).DB), nil
}

func ProvideBookRepository(i do.Injector) (repository.BookRepository, error) {
	return repository.NewPostgresBookRepository(do.MustInvoke[*DatabaseHandle](i).DB), nil
}

func ProvideListRepository(i do.Injector) (repository.ListRepository, error) {
	return repository.NewPostgresListRepository(do.MustInvoke[*DatabaseHandle](i).DB), nil
}

func ProvideRatingRepository(i do.Injector) (repository.RatingRepository, error) {
	return repository.NewPostgresRatingRepository(do.MustInvoke[*DatabaseHandle](i).DB), nil
}

func ProvidePostRepository(i do.Injector) (repository.PostRepository, error) {
	return repository.NewPostgresPostRepository(do.MustInvoke[*DatabaseHandle](i).DB), nil
}

func ProvideAuthService(i do.Injector) (service.AuthService, error) {
	return service.NewAuthService(
		do.MustInvoke[repository.UserRepository](i),
		do.MustInvoke[*jwt.Manager](i),
	), nil
}

func ProvideCatalogService(i do.Injector) (service.CatalogService, error) {
	return service.NewCatalogService(
		do.MustInvoke[repository.BookRepository](i),
		do.MustInvoke[*catalog.Client](i),
		do.MustInvoke[*BookIndexHandle](i).BookIndex,
		do.MustInvoke[events.EventPublisher](i),
	), nil
}

func ProvideListService(i do.Injector) (service.ListService, error) {
	return service.NewListService(
		do.MustInvoke[repository.ListRepository](i),
		do.MustInvoke[service.CatalogService](i),
		do.MustInvoke[events.EventPublisher](i),
	), nil
}

func ProvideRatingService(i do.Injector) (service.RatingService, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return service.NewRatingService(
		do.MustInvoke[repository.RatingRepository](i),
		do.MustInvoke[service.CatalogService](i),
		do.MustInvoke[events.EventPublisher](i),
		service.RatingOptions{RecomputeOnUnrate: cfg.Ratings.RecomputeOnUnrate},
	), nil
}

func ProvideRecommendationService(i do.Injector) (service.RecommendationService, error) {
	return service.NewRecommendationService(
		do.MustInvoke[repository.ProfileRepository](i),
		do.MustInvoke[repository.ListRepository](i),
		do.MustInvoke[repository.BookRepository](i),
	), nil
}

func ProvideProfileService(i do.Injector) (service.ProfileService, error) {
	return service.NewProfileService(do.MustInvoke[repository.ProfileRepository](i)), nil
}

func ProvidePostService(i do.Injector) (service.PostService, error) {
	return service.NewPostService(
		do.MustInvoke[repository.PostRepository](i),
		do.MustInvoke[service.CatalogService](i),
	), nil
}

// HTTPServerHandle wraps the fiber app with Shutdownable.
type HTTPServerHandle struct {
	*fiber.App
	Addr string
}

// Shutdown implements do.ShutdownerWithError.
func (h *HTTPServerHandle) Shutdown() error {
	return h.App.ShutdownWithTimeout(shutdownTimeout)
}

func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	tokens := do.MustInvoke[*jwt.Manager](i)
	validate := api.NewValidator()

	app := api.NewApp(api.Handlers{
		Auth:    api.NewAuthHandler(do.MustInvoke[service.AuthService](i), validate),
		Profile: api.NewProfileHandler(do.MustInvoke[service.ProfileService](i), validate),
		Lists:   api.NewListHandler(do.MustInvoke[service.ListService](i), validate),
		Books: api.NewBookHandler(
			do.MustInvoke[service.CatalogService](i),
			do.MustInvoke[service.RatingService](i),
			do.MustInvoke[service.RecommendationService](i),
			validate,
		),
		Posts: api.NewPostHandler(do.MustInvoke[service.PostService](i), validate),
	}, tokens, api.RouterOptions{
		ServiceName:    cfg.App.Name,
		AuthRateMax:    cfg.RateLimit.Max,
		AuthRateWindow: cfg.RateLimit.Expiration,
	})

	return &HTTPServerHandle{App: app, Addr: ":" + cfg.App.Port}, nil
}

// EnrichmentSubscriberHandle wraps the worker subscription with Shutdownable.
type EnrichmentSubscriberHandle struct {
	*events.EnrichmentSubscriber
}

func ProvideEnrichmentSubscriber(i do.Injector) (*EnrichmentSubscriberHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	notFound := func(err error) bool { return errors.Is(err, service.ErrNotFound) }

	subscriber, err := events.NewEnrichmentSubscriber(cfg.NATS.URL, do.MustInvoke[service.CatalogService](i), notFound)
	if err != nil {
		return nil, err
	}

	return &EnrichmentSubscriberHandle{EnrichmentSubscriber: subscriber}, nil
}
