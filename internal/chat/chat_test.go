package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dozendreams/dozendreams-server/internal/backend/backendtest"
	"github.com/dozendreams/dozendreams-server/internal/domain"
	"github.com/dozendreams/dozendreams-server/internal/errors"
)

func setupTestChat(t *testing.T) (*Service, *backendtest.Fake) {
	t.Helper()
	fake := backendtest.New()
	fake.Seed("profiles",
		backendtest.Row{"id": "user_buyer", "full_name": "Asha Buyer"},
		backendtest.Row{"id": "user_seller", "full_name": "Sam Seller"},
	)
	fake.Seed("listings",
		backendtest.Row{"id": "lst_villa", "title": "Cliffside Villa", "image_url": "https://img/villa.jpg", "user_id": "user_seller"},
	)
	return NewService(fake, fake, slog.New(slog.DiscardHandler)), fake
}

func seedConversation(fake *backendtest.Fake) {
	fake.Seed("conversations", backendtest.Row{
		"id": "conv_1", "listing_id": "lst_villa",
		"buyer_id": "user_buyer", "seller_id": "user_seller",
		"created_at": "2026-08-01T10:00:00Z",
	})
	fake.Seed("messages",
		backendtest.Row{
			"id": "msg_1", "conversation_id": "conv_1", "sender_id": "user_buyer",
			"content": "Is the villa available?", "is_read": true,
			"created_at": "2026-08-01T10:01:00Z",
		},
		backendtest.Row{
			"id": "msg_2", "conversation_id": "conv_1", "sender_id": "user_seller",
			"content": "It is, would you like a viewing?", "is_read": false,
			"created_at": "2026-08-01T10:05:00Z",
		},
	)
}

func TestStartCreatesOnce(t *testing.T) {
	svc, fake := setupTestChat(t)

	first, err := svc.Start(context.Background(), "user_buyer", "lst_villa")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.ID, "conv_"))
	assert.Equal(t, "user_seller", first.SellerID)

	second, err := svc.Start(context.Background(), "user_buyer", "lst_villa")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "repeat contact reuses the thread")
	assert.Len(t, fake.Rows("conversations"), 1)
}

func TestStartRejectsSelfAndMissingListing(t *testing.T) {
	svc, _ := setupTestChat(t)

	_, err := svc.Start(context.Background(), "user_seller", "lst_villa")
	assert.ErrorIs(t, err, errors.ErrValidation)

	_, err = svc.Start(context.Background(), "user_buyer", "lst_missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestInboxEnrichment(t *testing.T) {
	svc, fake := setupTestChat(t)
	seedConversation(fake)

	inbox, err := svc.Inbox(context.Background(), "user_buyer")
	require.NoError(t, err)
	require.Len(t, inbox, 1)

	c := inbox[0]
	assert.Equal(t, "Sam Seller", c.OtherParty.FullName)
	assert.Equal(t, "Cliffside Villa", c.ListingTitle)
	assert.Equal(t, "It is, would you like a viewing?", c.LastMessage)
	assert.Equal(t, 1, c.UnreadCount, "own messages never count as unread")

	// The seller sees the same thread from the other side, fully read.
	inbox, err = svc.Inbox(context.Background(), "user_seller")
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "Asha Buyer", inbox[0].OtherParty.FullName)
	assert.Equal(t, 0, inbox[0].UnreadCount)
}

func TestInboxEmptyThreadPreview(t *testing.T) {
	svc, fake := setupTestChat(t)
	fake.Seed("conversations", backendtest.Row{
		"id": "conv_empty", "listing_id": "lst_villa",
		"buyer_id": "user_buyer", "seller_id": "user_seller",
		"created_at": "2026-08-02T09:00:00Z",
	})

	inbox, err := svc.Inbox(context.Background(), "user_buyer")
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, domain.NoMessagesYet, inbox[0].LastMessage)
	assert.Zero(t, inbox[0].UnreadCount)
}

func TestConversationAccessControl(t *testing.T) {
	svc, fake := setupTestChat(t)
	seedConversation(fake)

	_, err := svc.Conversation(context.Background(), "conv_1", "user_buyer")
	require.NoError(t, err)

	_, err = svc.Conversation(context.Background(), "conv_1", "user_stranger")
	assert.ErrorIs(t, err, errors.ErrForbidden)
}

func TestOpenSessionLoadsHistoryAndMarksRead(t *testing.T) {
	svc, fake := setupTestChat(t)
	seedConversation(fake)

	session, err := svc.OpenSession(context.Background(), "conv_1", "user_buyer", nil)
	require.NoError(t, err)
	defer session.Close()

	messages := session.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "msg_1", messages[0].ID, "history arrives oldest first")
	assert.Equal(t, "msg_2", messages[1].ID)

	for _, row := range fake.Rows("messages") {
		if row["sender_id"] == "user_seller" {
			assert.Equal(t, true, row["is_read"], "counterparty messages flip to read on open")
		}
	}
}

func TestSessionReceivesIncoming(t *testing.T) {
	svc, fake := setupTestChat(t)
	seedConversation(fake)

	incoming := make(chan domain.Message, 4)
	session, err := svc.OpenSession(context.Background(), "conv_1", "user_buyer",
		func(m domain.Message) { incoming <- m })
	require.NoError(t, err)
	defer session.Close()

	require.NoError(t, fake.Insert(context.Background(), "messages", backendtest.Row{
		"id": "msg_3", "conversation_id": "conv_1", "sender_id": "user_seller",
		"content": "Viewing slots on Friday", "is_read": false,
		"created_at": "2026-08-01T11:00:00Z",
	}, nil))

	select {
	case m := <-incoming:
		assert.Equal(t, "msg_3", m.ID)
	case <-time.After(time.Second):
		t.Fatal("incoming message not delivered")
	}
	assert.Len(t, session.Messages(), 3)

	// A message on another conversation never reaches this session.
	require.NoError(t, fake.Insert(context.Background(), "messages", backendtest.Row{
		"id": "msg_other", "conversation_id": "conv_2", "sender_id": "user_seller",
		"content": "wrong thread", "is_read": false,
	}, nil))
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, session.Messages(), 3)
}

func TestSendDedupesFeedEcho(t *testing.T) {
	svc, fake := setupTestChat(t)
	seedConversation(fake)

	session, err := svc.OpenSession(context.Background(), "conv_1", "user_buyer", nil)
	require.NoError(t, err)
	defer session.Close()

	sent, err := session.Send(context.Background(), "  See you Friday  ")
	require.NoError(t, err)
	assert.Equal(t, "See you Friday", sent.Content)

	// The insert above echoed back on the feed; the id dedup must keep the
	// transcript at exactly one copy.
	time.Sleep(50 * time.Millisecond)
	count := 0
	for _, m := range session.Messages() {
		if m.ID == sent.ID {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestSendFailureSurfacesDraft(t *testing.T) {
	svc, fake := setupTestChat(t)
	seedConversation(fake)

	session, err := svc.OpenSession(context.Background(), "conv_1", "user_buyer", nil)
	require.NoError(t, err)
	defer session.Close()

	before := len(session.Messages())
	fake.FailNextWith(errors.Upstream("insert failed"))

	_, err = session.Send(context.Background(), "lost words")
	require.Error(t, err)

	var domainErr *errors.Error
	require.ErrorAs(t, err, &domainErr)
	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "lost words", details["draft"], "draft rides back for composer restore")

	assert.Len(t, session.Messages(), before, "failed send never mutates the transcript")
}

func TestSendRejectsEmpty(t *testing.T) {
	svc, _ := setupTestChat(t)

	_, err := svc.Send(context.Background(), "conv_1", "user_buyer", "   ")
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestCloseTearsDownSubscription(t *testing.T) {
	svc, fake := setupTestChat(t)
	seedConversation(fake)

	session, err := svc.OpenSession(context.Background(), "conv_1", "user_buyer", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.SubscriberCount("messages"))

	session.Close()
	assert.Eventually(t, func() bool {
		return fake.SubscriberCount("messages") == 0
	}, time.Second, 10*time.Millisecond)
}

func TestRegistrySwitchClosesPrevious(t *testing.T) {
	svc, fake := setupTestChat(t)
	seedConversation(fake)
	fake.Seed("conversations", backendtest.Row{
		"id": "conv_2", "listing_id": "lst_villa",
		"buyer_id": "user_buyer", "seller_id": "user_seller",
		"created_at": "2026-08-03T09:00:00Z",
	})

	registry := NewRegistry(svc, slog.New(slog.DiscardHandler))
	defer registry.Shutdown()

	firstID, _, err := registry.Open(context.Background(), "conv_1", "user_buyer", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.SubscriberCount("messages"))

	_, _, err = registry.Open(context.Background(), "conv_2", "user_buyer", nil)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return fake.SubscriberCount("messages") == 1
	}, time.Second, 10*time.Millisecond, "switching conversations drops the old subscription")

	_, err = registry.Get(firstID)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestRegistrySweepExpiresIdleSessions(t *testing.T) {
	svc, fake := setupTestChat(t)
	seedConversation(fake)

	registry := NewRegistry(svc, slog.New(slog.DiscardHandler))
	defer registry.Shutdown()
	registry.idleTTL = 10 * time.Millisecond

	sessionID, _, err := registry.Open(context.Background(), "conv_1", "user_buyer", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, fake.SubscriberCount("messages"))

	time.Sleep(20 * time.Millisecond)
	registry.sweep()

	_, err = registry.Get(sessionID)
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.Eventually(t, func() bool {
		return fake.SubscriberCount("messages") == 0
	}, time.Second, 10*time.Millisecond, "idle sessions drop their subscription")
}

func TestRegistrySweepKeepsActiveSessions(t *testing.T) {
	svc, fake := setupTestChat(t)
	seedConversation(fake)

	registry := NewRegistry(svc, slog.New(slog.DiscardHandler))
	defer registry.Shutdown()
	registry.idleTTL = 50 * time.Millisecond

	sessionID, _, err := registry.Open(context.Background(), "conv_1", "user_buyer", nil)
	require.NoError(t, err)

	// Touching the session through Get resets the idle clock.
	time.Sleep(30 * time.Millisecond)
	_, err = registry.Get(sessionID)
	require.NoError(t, err)
	time.Sleep(30 * time.Millisecond)
	registry.sweep()

	_, err = registry.Get(sessionID)
	assert.NoError(t, err)
}

func TestRegistryConcurrentOpensLeaveOneSession(t *testing.T) {
	svc, fake := setupTestChat(t)
	seedConversation(fake)

	registry := NewRegistry(svc, slog.New(slog.DiscardHandler))
	defer registry.Shutdown()

	const openers = 8
	var wg sync.WaitGroup
	for range openers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := registry.Open(context.Background(), "conv_1", "user_buyer", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	registry.mu.Lock()
	tracked := len(registry.byID)
	winner := registry.byViewer["user_buyer"]
	_, winnerTracked := registry.byID[winner]
	registry.mu.Unlock()

	assert.Equal(t, 1, tracked, "losing sessions must not linger in the registry")
	assert.True(t, winnerTracked)
	assert.Eventually(t, func() bool {
		return fake.SubscriberCount("messages") == 1
	}, time.Second, 10*time.Millisecond, "losing sessions release their subscription")
}
