package search

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dozendreams/dozendreams-server/internal/domain"
	"github.com/dozendreams/dozendreams-server/internal/errors"
)

type browseCall struct {
	filters domain.FilterState
	keyword string
}

// stubBrowser records calls and lets tests gate individual responses to
// reorder their completion.
type stubBrowser struct {
	mu      sync.Mutex
	calls   []browseCall
	respond func(filters domain.FilterState, keyword string) ([]domain.Listing, error)
	gates   map[int64]chan struct{}
}

func newStubBrowser() *stubBrowser {
	return &stubBrowser{
		gates: make(map[int64]chan struct{}),
		respond: func(filters domain.FilterState, keyword string) ([]domain.Listing, error) {
			return []domain.Listing{{ID: "lst_" + keyword}}, nil
		},
	}
}

func (b *stubBrowser) Browse(ctx context.Context, filters domain.FilterState, keyword string) ([]domain.Listing, error) {
	b.mu.Lock()
	b.calls = append(b.calls, browseCall{filters: filters, keyword: keyword})
	gate := b.gates[filters.PriceCeiling]
	respond := b.respond
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return respond(filters, keyword)
}

func (b *stubBrowser) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func (b *stubBrowser) lastCall() browseCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[len(b.calls)-1]
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestDebounceCollapsesKeystrokes(t *testing.T) {
	browser := newStubBrowser()
	c := NewController(browser, 50*time.Millisecond, nil, discard())
	defer c.Close()

	c.SetInput("p")
	c.SetInput("pe")
	c.SetInput("pent")

	assert.Eventually(t, func() bool {
		return browser.callCount() == 1
	}, time.Second, 5*time.Millisecond, "one query for the whole burst")

	assert.Equal(t, "pent", browser.lastCall().keyword)
	assert.Eventually(t, func() bool {
		snapshot := c.Snapshot()
		return len(snapshot.Results) == 1 && snapshot.Results[0].ID == "lst_pent"
	}, time.Second, 5*time.Millisecond)
}

func TestClearedInputSettlesToNoKeyword(t *testing.T) {
	browser := newStubBrowser()
	c := NewController(browser, 20*time.Millisecond, nil, discard())
	defer c.Close()

	c.SetInput("pent")
	assert.Eventually(t, func() bool { return browser.callCount() == 1 }, time.Second, 5*time.Millisecond)

	c.SetInput("   ")
	assert.Eventually(t, func() bool { return browser.callCount() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "", browser.lastCall().keyword, "whitespace settles to no keyword predicate")
}

func TestFilterChangeRefreshesImmediately(t *testing.T) {
	browser := newStubBrowser()
	c := NewController(browser, time.Hour, nil, discard())
	defer c.Close()

	filters := domain.DefaultFilters()
	filters.ListingType = domain.TypeRent
	c.SetFilters(filters)

	assert.Eventually(t, func() bool { return browser.callCount() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, domain.TypeRent, browser.lastCall().filters.ListingType)
}

func TestStaleResponseDiscarded(t *testing.T) {
	browser := newStubBrowser()

	var notifications []Snapshot
	var notifyMu sync.Mutex
	notify := func(s Snapshot) {
		notifyMu.Lock()
		notifications = append(notifications, s)
		notifyMu.Unlock()
	}

	c := NewController(browser, time.Hour, notify, discard())
	defer c.Close()

	// Gate the first refresh so it completes after the second.
	slow := domain.DefaultFilters()
	slow.PriceCeiling = 111
	gate := make(chan struct{})
	browser.mu.Lock()
	browser.gates[111] = gate
	browser.respond = func(filters domain.FilterState, keyword string) ([]domain.Listing, error) {
		if filters.PriceCeiling == 111 {
			return []domain.Listing{{ID: "lst_stale"}}, nil
		}
		return []domain.Listing{{ID: "lst_fresh"}}, nil
	}
	browser.mu.Unlock()

	c.SetFilters(slow)

	fresh := domain.DefaultFilters()
	fresh.PriceCeiling = 222
	c.SetFilters(fresh)

	assert.Eventually(t, func() bool {
		return len(c.Snapshot().Results) == 1
	}, time.Second, 5*time.Millisecond)

	close(gate) // stale response lands now
	time.Sleep(50 * time.Millisecond)

	snapshot := c.Snapshot()
	require.Len(t, snapshot.Results, 1)
	assert.Equal(t, "lst_fresh", snapshot.Results[0].ID, "superseded response must not overwrite")

	notifyMu.Lock()
	defer notifyMu.Unlock()
	for _, n := range notifications {
		for _, l := range n.Results {
			assert.NotEqual(t, "lst_stale", l.ID)
		}
	}
}

func TestFetchErrorClearsResults(t *testing.T) {
	browser := newStubBrowser()
	c := NewController(browser, time.Hour, nil, discard())
	defer c.Close()

	c.Refresh()
	assert.Eventually(t, func() bool { return len(c.Snapshot().Results) == 1 }, time.Second, 5*time.Millisecond)

	browser.mu.Lock()
	browser.respond = func(domain.FilterState, string) ([]domain.Listing, error) {
		return nil, errors.Upstream("backend down")
	}
	browser.mu.Unlock()

	c.Refresh()
	assert.Eventually(t, func() bool {
		snapshot := c.Snapshot()
		return len(snapshot.Results) == 0 && snapshot.Error != ""
	}, time.Second, 5*time.Millisecond, "failed fetch clears the feed")
}

func TestNotReadyKeepsPreviousResults(t *testing.T) {
	browser := newStubBrowser()
	c := NewController(browser, time.Hour, nil, discard())
	defer c.Close()

	c.Refresh()
	assert.Eventually(t, func() bool { return len(c.Snapshot().Results) == 1 }, time.Second, 5*time.Millisecond)
	before := c.Snapshot().Results

	browser.mu.Lock()
	browser.respond = func(domain.FilterState, string) ([]domain.Listing, error) {
		return nil, errors.NotReady("catalog loading")
	}
	browser.mu.Unlock()

	c.Refresh()
	time.Sleep(50 * time.Millisecond)

	snapshot := c.Snapshot()
	assert.Equal(t, before, snapshot.Results, "not-ready refresh leaves the feed untouched")
	assert.Empty(t, snapshot.Error)
}

func TestCloseCancelsPendingDebounce(t *testing.T) {
	browser := newStubBrowser()
	c := NewController(browser, 30*time.Millisecond, nil, discard())

	c.SetInput("pent")
	c.Close()

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, browser.callCount(), "no query after teardown")
}

func TestRegistryLifecycle(t *testing.T) {
	browser := newStubBrowser()
	registry := NewRegistry(browser, 10*time.Millisecond, discard())
	defer registry.Shutdown()

	sessionID := registry.Open(nil)
	require.NotEmpty(t, sessionID)

	controller, err := registry.Get(sessionID)
	require.NoError(t, err)
	require.NotNil(t, controller)

	// Open kicks off the initial fetch.
	assert.Eventually(t, func() bool { return browser.callCount() >= 1 }, time.Second, 5*time.Millisecond)

	registry.Close(sessionID)
	_, err = registry.Get(sessionID)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}
