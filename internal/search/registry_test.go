package search

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRegistry(t *testing.T) (*Registry, *stubBrowser) {
	t.Helper()
	browser := newStubBrowser()
	r := NewRegistry(browser, time.Millisecond, discard())
	t.Cleanup(r.Shutdown)
	return r, browser
}

func TestRegistryOpenTagsNotifications(t *testing.T) {
	r, _ := setupRegistry(t)

	got := make(chan string, 4)
	sessionID := r.Open(func(id string, snapshot Snapshot) {
		got <- id
	})

	assert.True(t, strings.HasPrefix(sessionID, "ses_"))

	select {
	case id := <-got:
		assert.Equal(t, sessionID, id)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot delivered")
	}
}

func TestRegistryGetUnknownSession(t *testing.T) {
	r, _ := setupRegistry(t)

	_, err := r.Get("ses_missing")
	require.Error(t, err)
}

func TestRegistryCloseRemovesSession(t *testing.T) {
	r, _ := setupRegistry(t)

	sessionID := r.Open(nil)
	_, err := r.Get(sessionID)
	require.NoError(t, err)

	r.Close(sessionID)
	_, err = r.Get(sessionID)
	require.Error(t, err)

	// Unknown ids are a no-op.
	r.Close(sessionID)
}

func TestRegistrySweepExpiresIdleSessions(t *testing.T) {
	r, _ := setupRegistry(t)
	r.idleTTL = 10 * time.Millisecond

	sessionID := r.Open(nil)
	time.Sleep(30 * time.Millisecond)
	r.sweep()

	_, err := r.Get(sessionID)
	require.Error(t, err)
}

func TestRegistryShutdownClosesAll(t *testing.T) {
	browser := newStubBrowser()
	r := NewRegistry(browser, time.Millisecond, discard())

	a := r.Open(nil)
	b := r.Open(nil)
	r.Shutdown()

	_, err := r.Get(a)
	require.Error(t, err)
	_, err = r.Get(b)
	require.Error(t, err)

	// Shutdown is idempotent.
	r.Shutdown()
}
