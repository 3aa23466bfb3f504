package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedDeliversChanges(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "messages", r.URL.Query().Get("table"))
		assert.Equal(t, "eq.conv_1", r.URL.Query().Get("conversation_id"))

		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)

		w.Write([]byte(": connected\n\n"))
		w.Write([]byte("event: insert\n"))
		w.Write([]byte(`data: {"table":"messages","record":{"id":"msg_1","content":"hi"}}`))
		w.Write([]byte("\n\n"))
		flusher.Flush()

		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second, testLogger())
	feed := NewFeedClient(client, testLogger())

	filter := Eq("conversation_id", "conv_1")
	sub, err := feed.Subscribe(context.Background(), "messages", &filter)
	require.NoError(t, err)
	defer sub.Close()

	select {
	case event := <-sub.Events():
		assert.Equal(t, EventInsert, event.Kind)
		assert.Equal(t, "messages", event.Table)

		var msg struct {
			ID      string `json:"id"`
			Content string `json:"content"`
		}
		require.NoError(t, event.DecodeRecord(&msg))
		assert.Equal(t, "msg_1", msg.ID)
		assert.Equal(t, "hi", msg.Content)
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
	}
}

func TestFeedCloseEndsStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second, testLogger())
	feed := NewFeedClient(client, testLogger())

	sub, err := feed.Subscribe(context.Background(), "messages", nil)
	require.NoError(t, err)

	sub.Close()

	select {
	case _, open := <-sub.Events():
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed")
	}
}

func TestSubscriptionDropsWhenFull(t *testing.T) {
	sub := NewSubscription(1, nil)
	sub.Publish(ChangeEvent{Kind: EventInsert})
	sub.Publish(ChangeEvent{Kind: EventUpdate}) // buffer full, dropped

	event := <-sub.Events()
	assert.Equal(t, EventInsert, event.Kind)

	sub.Close()
	_, open := <-sub.Events()
	assert.False(t, open)
}
