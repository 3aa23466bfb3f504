package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/dozendreams/dozendreams-server/internal/backend"
	"github.com/dozendreams/dozendreams-server/internal/config"
	"github.com/dozendreams/dozendreams-server/internal/logger"
	"github.com/dozendreams/dozendreams-server/internal/sse"
)

// ProvideBackendClient provides the hosted-backend REST client.
func ProvideBackendClient(i do.Injector) (*backend.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.APIKey, cfg.Backend.RequestTimeout, log.Logger)

	log.Info("Backend client initialized", "url", cfg.Backend.URL)

	return client, nil
}

// ProvideStorageClient provides the listing photo storage client.
func ProvideStorageClient(i do.Injector) (*backend.StorageClient, error) {
	cfg := do.MustInvoke[*config.Config](i)
	client := do.MustInvoke[*backend.Client](i)

	return backend.NewStorageClient(client, cfg.Backend.StorageBucket), nil
}

// ProvideFeedClient provides the realtime change feed client.
func ProvideFeedClient(i do.Injector) (*backend.FeedClient, error) {
	client := do.MustInvoke[*backend.Client](i)
	log := do.MustInvoke[*logger.Logger](i)

	return backend.NewFeedClient(client, log.Logger), nil
}

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Logger)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}
