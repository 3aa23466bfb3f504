// Package di provides dependency injection configuration for the DozenDreams server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/dozendreams/dozendreams-server/internal/backend"
	"github.com/dozendreams/dozendreams-server/internal/booking"
	"github.com/dozendreams/dozendreams-server/internal/chat"
	"github.com/dozendreams/dozendreams-server/internal/config"
	"github.com/dozendreams/dozendreams-server/internal/di/providers"
	"github.com/dozendreams/dozendreams-server/internal/listing"
	"github.com/dozendreams/dozendreams-server/internal/logger"
	"github.com/dozendreams/dozendreams-server/internal/media/images"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Backend layer
	do.Provide(injector, providers.ProvideBackendClient)
	do.Provide(injector, providers.ProvideStorageClient)
	do.Provide(injector, providers.ProvideFeedClient)
	do.Provide(injector, providers.ProvideSSEManager)

	// Business services
	do.Provide(injector, providers.ProvideCatalog)
	do.Provide(injector, providers.ProvideListingService)
	do.Provide(injector, providers.ProvideChatService)
	do.Provide(injector, providers.ProvideGeoService)
	do.Provide(injector, providers.ProvideBookingService)
	do.Provide(injector, providers.ProvideImageProcessor)

	// Session registries
	do.Provide(injector, providers.ProvideChatRegistry)
	do.Provide(injector, providers.ProvideSearchRegistry)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*backend.Client](injector)
	_ = do.MustInvoke[*backend.StorageClient](injector)
	_ = do.MustInvoke[*backend.FeedClient](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)

	// Business services
	_ = do.MustInvoke[*providers.CatalogHandle](injector)
	_ = do.MustInvoke[*listing.Service](injector)
	_ = do.MustInvoke[*chat.Service](injector)
	_ = do.MustInvoke[*providers.GeoServiceHandle](injector)
	_ = do.MustInvoke[*booking.Service](injector)
	_ = do.MustInvoke[*images.Processor](injector)

	// Session registries
	_ = do.MustInvoke[*providers.ChatRegistryHandle](injector)
	_ = do.MustInvoke[*providers.SearchRegistryHandle](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
