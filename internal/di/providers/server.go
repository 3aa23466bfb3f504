package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/dozendreams/dozendreams-server/internal/api"
	"github.com/dozendreams/dozendreams-server/internal/backend"
	"github.com/dozendreams/dozendreams-server/internal/booking"
	"github.com/dozendreams/dozendreams-server/internal/chat"
	"github.com/dozendreams/dozendreams-server/internal/config"
	"github.com/dozendreams/dozendreams-server/internal/listing"
	"github.com/dozendreams/dozendreams-server/internal/logger"
	"github.com/dozendreams/dozendreams-server/internal/media/images"
	"github.com/dozendreams/dozendreams-server/internal/sse"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	client := do.MustInvoke[*backend.Client](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	catHandle := do.MustInvoke[*CatalogHandle](i)
	listings := do.MustInvoke[*listing.Service](i)
	chatService := do.MustInvoke[*chat.Service](i)
	chatSessions := do.MustInvoke[*ChatRegistryHandle](i)
	searchSessions := do.MustInvoke[*SearchRegistryHandle](i)
	geoHandle := do.MustInvoke[*GeoServiceHandle](i)
	bookingService := do.MustInvoke[*booking.Service](i)
	photos := do.MustInvoke[*images.Processor](i)

	sseHandler := sse.NewHandler(sseHandle.Manager, log.Logger)

	services := &api.Services{
		Catalog:        catHandle.Catalog,
		Listings:       listings,
		Chat:           chatService,
		ChatSessions:   chatSessions.Registry,
		SearchSessions: searchSessions.Registry,
		Geo:            geoHandle.Service,
		Booking:        bookingService,
		Photos:         photos,
	}

	handler := api.NewServer(cfg.Server, client, client, services, sseHandle.Manager, sseHandler, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv}, nil
}
