// Package di wires the shelf service together with samber/do.
package di

import (
	"github.com/samber/do/v2"

	"shelf-service/internal/catalog"
	"shelf-service/internal/config"
	"shelf-service/internal/events"
	"shelf-service/internal/jwt"
)

// NewContainer registers every provider. cfg is provided as a value so callers decide how it is loaded.
func NewContainer(cfg *config.Config) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, cfg)
	do.Provide(injector, ProvideDatabase)
	do.Provide(injector, ProvideTokenManager)
	do.Provide(injector, ProvidePublisher)
	do.Provide(injector, ProvideCatalogClient)
	do.Provide(injector, ProvideBookIndex)

	// Repositories
	do.Provide(injector, ProvideUserRepository)
	do.Provide(injector, ProvideProfileRepository)
	do.Provide(injector, ProvideBookRepository)
	do.Provide(injector, ProvideListRepository)
	do.Provide(injector, ProvideRatingRepository)
	do.Provide(injector, ProvidePostRepository)

	// Business services
	do.Provide(injector, ProvideAuthService)
	do.Provide(injector, ProvideCatalogService)
	do.Provide(injector, ProvideListService)
	do.Provide(injector, ProvideRatingService)
	do.Provide(injector, ProvideRecommendationService)
	do.Provide(injector, ProvideProfileService)
	do.Provide(injector, ProvidePostService)

	// Server and worker
	do.Provide(injector, ProvideHTTPServer)
	do.Provide(injector, ProvideEnrichmentSubscriber)

	return injector
}

// BootstrapServer builds everything the HTTP server needs.
func BootstrapServer(injector *do.RootScope) (*HTTPServerHandle, error) {
	if _, err := do.Invoke[*DatabaseHandle](injector); err != nil {
		return nil, err
	}
	if _, err := do.Invoke[*jwt.Manager](injector); err != nil {
		return nil, err
	}
	if _, err := do.Invoke[events.EventPublisher](injector); err != nil {
		return nil, err
	}
	if _, err := do.Invoke[*catalog.Client](injector); err != nil {
		return nil, err
	}
	if _, err := do.Invoke[*BookIndexHandle](injector); err != nil {
		return nil, err
	}

	return do.Invoke[*HTTPServerHandle](injector)
}

// BootstrapWorker builds the enrichment subscriber and its catalog dependencies.
func BootstrapWorker(injector *do.RootScope) (*EnrichmentSubscriberHandle, error) {
	if _, err := do.Invoke[*DatabaseHandle](injector); err != nil {
		return nil, err
	}

	return do.Invoke[*EnrichmentSubscriberHandle](injector)
}
