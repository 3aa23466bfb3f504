package providers

import (
	"github.com/samber/do/v2"

	"github.com/dozendreams/dozendreams-server/internal/chat"
	"github.com/dozendreams/dozendreams-server/internal/config"
	"github.com/dozendreams/dozendreams-server/internal/listing"
	"github.com/dozendreams/dozendreams-server/internal/logger"
	"github.com/dozendreams/dozendreams-server/internal/search"
)

// ChatRegistryHandle wraps the chat session registry with Shutdownable.
type ChatRegistryHandle struct {
	*chat.Registry
}

// Shutdown implements do.Shutdownable.
func (h *ChatRegistryHandle) Shutdown() error {
	h.Registry.Shutdown()
	return nil
}

// ProvideChatRegistry provides the live chat session registry.
func ProvideChatRegistry(i do.Injector) (*ChatRegistryHandle, error) {
	service := do.MustInvoke[*chat.Service](i)
	log := do.MustInvoke[*logger.Logger](i)

	return &ChatRegistryHandle{Registry: chat.NewRegistry(service, log.Logger)}, nil
}

// SearchRegistryHandle wraps the search session registry with Shutdownable.
type SearchRegistryHandle struct {
	*search.Registry
}

// Shutdown implements do.Shutdownable.
func (h *SearchRegistryHandle) Shutdown() error {
	h.Registry.Shutdown()
	return nil
}

// ProvideSearchRegistry provides the live search session registry.
func ProvideSearchRegistry(i do.Injector) (*SearchRegistryHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	listings := do.MustInvoke[*listing.Service](i)
	log := do.MustInvoke[*logger.Logger](i)

	quiet := cfg.Search.DebounceQuiet
	if quiet <= 0 {
		quiet = search.DefaultQuiet
	}

	return &SearchRegistryHandle{Registry: search.NewRegistry(listings, quiet, log.Logger)}, nil
}
