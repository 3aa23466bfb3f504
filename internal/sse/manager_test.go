package sse

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, context.CancelFunc) {
	t.Helper()
	m := NewManager(slog.New(slog.DiscardHandler))
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)
	return m, cancel
}

func TestPublishRoutesByTopic(t *testing.T) {
	m, cancel := newTestManager(t)
	defer cancel()

	chatClient, err := m.Connect("chat:ses_1")
	require.NoError(t, err)
	searchClient, err := m.Connect("search:ses_2")
	require.NoError(t, err)

	m.Publish("chat:ses_1", NewEvent(EventChatMessage, map[string]string{"content": "hi"}))

	select {
	case event := <-chatClient.EventChan:
		assert.Equal(t, EventChatMessage, event.Type)
		assert.Equal(t, "chat:ses_1", event.Topic)
	case <-time.After(time.Second):
		t.Fatal("subscribed client did not receive event")
	}

	select {
	case event := <-searchClient.EventChan:
		t.Fatalf("unsubscribed client received %v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestClientWithoutTopicsReceivesAll(t *testing.T) {
	m, cancel := newTestManager(t)
	defer cancel()

	client, err := m.Connect()
	require.NoError(t, err)

	m.Publish("search:ses_9", NewEvent(EventFeedSnapshot, nil))

	select {
	case event := <-client.EventChan:
		assert.Equal(t, EventFeedSnapshot, event.Type)
	case <-time.After(time.Second):
		t.Fatal("catch-all client did not receive event")
	}
}

func TestDisconnectRemovesClient(t *testing.T) {
	m, cancel := newTestManager(t)
	defer cancel()

	client, err := m.Connect("chat:ses_1")
	require.NoError(t, err)
	assert.Equal(t, 1, m.ClientCount())

	m.Disconnect(client.ID)
	assert.Equal(t, 0, m.ClientCount())

	_, open := <-client.Done
	assert.False(t, open)
}

func TestShutdownDrainsAndCloses(t *testing.T) {
	m := NewManager(slog.New(slog.DiscardHandler))
	ctx, cancel := context.WithCancel(context.Background())
	go m.Start(ctx)

	client, err := m.Connect()
	require.NoError(t, err)

	// Stop the fan-out loop first; Shutdown waits for it to exit.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
	defer shutdownCancel()
	require.NoError(t, m.Shutdown(shutdownCtx))

	// Publishing after shutdown is a silent no-op.
	m.Publish("any", NewEvent(EventChatMessage, nil))

	assert.Eventually(t, func() bool {
		select {
		case _, open := <-client.Done:
			return !open
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}
