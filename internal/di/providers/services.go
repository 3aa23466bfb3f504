package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/dozendreams/dozendreams-server/internal/backend"
	"github.com/dozendreams/dozendreams-server/internal/booking"
	"github.com/dozendreams/dozendreams-server/internal/catalog"
	"github.com/dozendreams/dozendreams-server/internal/chat"
	"github.com/dozendreams/dozendreams-server/internal/config"
	"github.com/dozendreams/dozendreams-server/internal/geo"
	"github.com/dozendreams/dozendreams-server/internal/listing"
	"github.com/dozendreams/dozendreams-server/internal/logger"
	"github.com/dozendreams/dozendreams-server/internal/media/images"
)

// CatalogHandle wraps the category catalog with its startup-retry lifecycle.
type CatalogHandle struct {
	*catalog.Catalog
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *CatalogHandle) Shutdown() error {
	h.cancel()
	return nil
}

// ProvideCatalog provides the category catalog. The initial load runs
// against the live backend; if it fails the server still comes up and a
// background loop keeps retrying until the catalog is ready.
func ProvideCatalog(i do.Injector) (*CatalogHandle, error) {
	client := do.MustInvoke[*backend.Client](i)
	log := do.MustInvoke[*logger.Logger](i)

	cat := catalog.New(client, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())

	loadCtx, loadCancel := context.WithTimeout(ctx, shutdownTimeout)
	err := cat.Load(loadCtx)
	loadCancel()

	if err != nil {
		log.Warn("Initial catalog load failed, retrying in background", "error", err)
		go retryCatalogLoad(ctx, cat, log)
	} else {
		log.Info("Category catalog loaded")
	}

	return &CatalogHandle{Catalog: cat, cancel: cancel}, nil
}

func retryCatalogLoad(ctx context.Context, cat *catalog.Catalog, log *logger.Logger) {
	ticker := time.NewTicker(catalogRetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			loadCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			err := cat.Load(loadCtx)
			cancel()
			if err == nil {
				log.Info("Category catalog loaded")
				return
			}
			log.Warn("Catalog load retry failed", "error", err)
		}
	}
}

// ProvideListingService provides the listing service.
func ProvideListingService(i do.Injector) (*listing.Service, error) {
	client := do.MustInvoke[*backend.Client](i)
	catHandle := do.MustInvoke[*CatalogHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return listing.NewService(client, catHandle.Catalog, log.Logger), nil
}

// ProvideChatService provides the conversation service.
func ProvideChatService(i do.Injector) (*chat.Service, error) {
	client := do.MustInvoke[*backend.Client](i)
	feed := do.MustInvoke[*backend.FeedClient](i)
	log := do.MustInvoke[*logger.Logger](i)

	return chat.NewService(client, feed, log.Logger), nil
}

// GeoServiceHandle wraps the geolocation service with Shutdownable.
type GeoServiceHandle struct {
	*geo.Service
}

// Shutdown implements do.Shutdownable.
func (h *GeoServiceHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideGeoService provides the geolocation service.
func ProvideGeoService(i do.Injector) (*GeoServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return &GeoServiceHandle{Service: geo.NewService(cfg.Geo, log.Logger)}, nil
}

// ProvideBookingService provides the stay booking service.
func ProvideBookingService(i do.Injector) (*booking.Service, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return booking.NewService(cfg.Booking, log.Logger), nil
}

// ProvideImageProcessor provides the listing photo processor.
func ProvideImageProcessor(i do.Injector) (*images.Processor, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storage := do.MustInvoke[*backend.StorageClient](i)
	log := do.MustInvoke[*logger.Logger](i)

	return images.NewProcessor(cfg.Media, storage, log.Logger), nil
}
