// Package search holds the per-session browse state machine: structured
// filters, debounced keyword input, and a staleness-suppressed results
// snapshot pushed to the session's event stream.
package search

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dozendreams/dozendreams-server/internal/domain"
	"github.com/dozendreams/dozendreams-server/internal/errors"
)

// DefaultQuiet is the debounce window applied to keyword input.
const DefaultQuiet = 400 * time.Millisecond

// Browser runs the filtered feed query. Satisfied by listing.Service.
type Browser interface {
	Browse(ctx context.Context, filters domain.FilterState, keyword string) ([]domain.Listing, error)
}

// Snapshot is the session's current view of the feed.
type Snapshot struct {
	Filters domain.FilterState `json:"filters"`
	// Input is the live text; Keyword is the last settled value actually
	// applied to the query.
	Input      string           `json:"input"`
	Keyword    string           `json:"keyword"`
	Results    []domain.Listing `json:"results"`
	Error      string           `json:"error,omitempty"`
	Generation uint64           `json:"generation"`
}

// Controller drives one session's browse feed.
//
// Keyword input is debounced: the query only sees text once it has been
// quiet for the configured window. Structured filter changes skip the
// debounce and refresh immediately. Every refresh carries a generation
// number; a response arriving after a newer refresh started is discarded,
// so results always reflect the latest intent regardless of response
// ordering.
type Controller struct {
	browser Browser
	logger  *slog.Logger
	quiet   time.Duration
	notify  func(Snapshot)

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	filters    domain.FilterState
	input      string
	keyword    string
	timer      *time.Timer
	generation uint64
	results    []domain.Listing
	lastError  string
	closed     bool
}

// NewController creates a controller with default filters. notify, when
// non-nil, receives a snapshot after every settled state change.
func NewController(browser Browser, quiet time.Duration, notify func(Snapshot), logger *slog.Logger) *Controller {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		browser: browser,
		logger:  logger,
		quiet:   quiet,
		notify:  notify,
		ctx:     ctx,
		cancel:  cancel,
		filters: domain.DefaultFilters(),
	}
}

// SetInput records live keyword text and restarts the quiet window. The
// query is untouched until the window elapses.
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.input = text
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.quiet, c.settle)
}

// settle promotes the live input to the applied keyword once it has been
// quiet long enough.
func (c *Controller) settle() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.keyword = strings.TrimSpace(c.input)
	c.mu.Unlock()
	c.Refresh()
}

// SetFilters replaces the structured filter state and refreshes
// immediately. A pending keyword debounce keeps running.
func (c *Controller) SetFilters(filters domain.FilterState) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.filters = filters.Clone()
	c.mu.Unlock()
	c.Refresh()
}

// Filters returns a copy of the structured filter state.
func (c *Controller) Filters() domain.FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters.Clone()
}

// Refresh starts a fetch for the current state. The fetch runs on the
// caller's goroutine's behalf asynchronously; its result is dropped if a
// newer refresh has started by the time it lands.
func (c *Controller) Refresh() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.generation++
	generation := c.generation
	filters := c.filters.Clone()
	keyword := c.keyword
	c.mu.Unlock()

	go c.fetch(generation, filters, keyword)
}

func (c *Controller) fetch(generation uint64, filters domain.FilterState, keyword string) {
	results, err := c.browser.Browse(c.ctx, filters, keyword)

	c.mu.Lock()
	if c.closed || generation != c.generation {
		// A newer refresh superseded this one.
		c.mu.Unlock()
		return
	}
	switch {
	case err == nil:
		c.results = results
		c.lastError = ""
	case errors.Is(err, errors.ErrNotReady):
		// Catalog still loading; keep whatever was displayed.
		c.mu.Unlock()
		return
	default:
		// Failed fetches clear the feed rather than show stale rows.
		c.results = nil
		c.lastError = err.Error()
		c.logger.Error("feed refresh failed", "generation", generation, "error", err)
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	if c.notify != nil {
		c.notify(snapshot)
	}
}

// Snapshot returns the current feed view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	results := make([]domain.Listing, len(c.results))
	copy(results, c.results)
	return Snapshot{
		Filters:    c.filters.Clone(),
		Input:      c.input,
		Keyword:    c.keyword,
		Results:    results,
		Error:      c.lastError,
		Generation: c.generation,
	}
}

// Close stops the debounce timer and cancels any in-flight fetch. The
// controller ignores all calls afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	c.cancel()
}
