// Package catalog loads the category table once at startup and answers
// name/id lookups for the rest of the application.
//
// Listing queries and writes are phrased against numeric category ids while
// the rest of the system speaks canonical category names. The catalog is
// the single translation point. Until Load succeeds the catalog reports not
// ready and dependent operations are expected to no-op or fail fast rather
// than query with an incomplete map.
package catalog

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dozendreams/dozendreams-server/internal/backend"
	"github.com/dozendreams/dozendreams-server/internal/domain"
	"github.com/dozendreams/dozendreams-server/internal/errors"
)

const table = "categories"

type categoryRow struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Catalog is the in-memory category map. Immutable once loaded; lookups
// after a successful Load never hit the backend.
type Catalog struct {
	reader backend.Reader
	logger *slog.Logger

	mu       sync.RWMutex
	ready    bool
	idByName map[string]int64
	nameByID map[int64]string
}

// New creates an unloaded catalog.
func New(reader backend.Reader, logger *slog.Logger) *Catalog {
	return &Catalog{
		reader: reader,
		logger: logger,
	}
}

// Load fetches the category table. Subsequent calls after a successful load
// are no-ops, so a retry loop at startup is safe.
func (c *Catalog) Load(ctx context.Context) error {
	c.mu.RLock()
	loaded := c.ready
	c.mu.RUnlock()
	if loaded {
		return nil
	}

	var rows []categoryRow
	q := backend.From(table).Select("id", "name").OrderBy("id", false)
	if err := c.reader.Select(ctx, q, &rows); err != nil {
		return errors.Upstream("loading categories").WithCause(err)
	}
	if len(rows) == 0 {
		return errors.Upstream("category table is empty")
	}

	idByName := make(map[string]int64, len(rows))
	nameByID := make(map[int64]string, len(rows))
	for _, row := range rows {
		idByName[row.Name] = row.ID
		nameByID[row.ID] = row.Name
	}

	c.mu.Lock()
	if !c.ready {
		c.idByName = idByName
		c.nameByID = nameByID
		c.ready = true
	}
	c.mu.Unlock()

	c.logger.Info("category catalog loaded", "categories", len(rows))
	return nil
}

// Ready reports whether the catalog has loaded.
func (c *Catalog) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// IDForName resolves a canonical category name. The second return is false
// for unknown names and whenever the catalog has not loaded.
func (c *Catalog) IDForName(name string) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.ready {
		return 0, false
	}
	id, ok := c.idByName[name]
	return id, ok
}

// NameForID resolves a category id to its canonical name. Returns "" for
// ids absent from the map.
func (c *Catalog) NameForID(id int64) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.ready {
		return ""
	}
	return c.nameByID[id]
}

// ResolveNames maps category names to ids, silently dropping names the
// catalog does not know. Used when building browse queries, where a stale
// client-side name must narrow the query rather than break it.
func (c *Catalog) ResolveNames(names []string) []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.ready {
		return nil
	}
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		if id, ok := c.idByName[name]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// MustResolveName is ResolveNames' strict counterpart for writes: an
// unknown name is a hard validation error, never a silent drop.
func (c *Catalog) MustResolveName(name string) (int64, error) {
	if !c.Ready() {
		return 0, errors.NotReady("category catalog not loaded")
	}
	id, ok := c.IDForName(name)
	if !ok {
		return 0, errors.Validationf("unknown category %q", name)
	}
	return id, nil
}

// Browse returns the ordered category names for the given listing type's
// category scroller.
func (c *Catalog) Browse(listingType domain.ListingType) []string {
	switch listingType {
	case domain.TypeRent:
		return domain.BookCategories
	default:
		return domain.SaleCategories
	}
}
