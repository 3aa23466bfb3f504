package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dozendreams/dozendreams-server/internal/backend/backendtest"
	"github.com/dozendreams/dozendreams-server/internal/domain"
)

func seedThread(ts *testServer) {
	ts.fake.Seed("conversations", backendtest.Row{
		"id": "conv_1", "listing_id": "lst_villa",
		"buyer_id": "user_buyer", "seller_id": "user_seller",
		"created_at": "2026-08-01T10:00:00Z",
	})
	ts.fake.Seed("messages",
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

func TestStartConversation(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/conversations",
		"Authorization: Bearer tok_buyer",
		map[string]any{"listing_id": "lst_villa"})
	require.Equal(t, http.StatusOK, resp.Code)

	var conversation domain.Conversation
	decodeData(t, resp.Body.Bytes(), &conversation)
	assert.Equal(t, "user_buyer", conversation.BuyerID)
	assert.Equal(t, "user_seller", conversation.SellerID)

	// Starting again returns the same thread.
	resp = ts.api.Post("/api/v1/conversations",
		"Authorization: Bearer tok_buyer",
		map[string]any{"listing_id": "lst_villa"})
	require.Equal(t, http.StatusOK, resp.Code)

	var again domain.Conversation
	decodeData(t, resp.Body.Bytes(), &again)
	assert.Equal(t, conversation.ID, again.ID)
}

func TestStartConversationWithOwnListing(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/conversations",
		"Authorization: Bearer tok_seller",
		map[string]any{"listing_id": "lst_villa"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestInbox(t *testing.T) {
	ts := setupTestServer(t)
	seedThread(ts)

	resp := ts.api.Get("/api/v1/conversations", "Authorization: Bearer tok_buyer")
	require.Equal(t, http.StatusOK, resp.Code)

	var inbox ConversationsResponse
	decodeData(t, resp.Body.Bytes(), &inbox)
	require.Len(t, inbox.Conversations, 1)

	thread := inbox.Conversations[0]
	assert.Equal(t, "Sam Seller", thread.OtherParty.FullName)
	assert.Equal(t, "Cliffside Villa", thread.ListingTitle)
	assert.Equal(t, "It is, would you like a viewing?", thread.LastMessage)
	assert.Equal(t, 1, thread.UnreadCount)
}

func TestChatSessionLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	seedThread(ts)

	resp := ts.api.Post("/api/v1/conversations/conv_1/session", "Authorization: Bearer tok_buyer")
	require.Equal(t, http.StatusOK, resp.Code)

	var opened ChatSessionResponse
	decodeData(t, resp.Body.Bytes(), &opened)
	require.Len(t, opened.Messages, 2)
	assert.Equal(t, "msg_1", opened.Messages[0].ID)

	// Opening marked the seller's message read.
	inboxResp := ts.api.Get("/api/v1/conversations", "Authorization: Bearer tok_buyer")
	var inbox ConversationsResponse
	decodeData(t, inboxResp.Body.Bytes(), &inbox)
	require.Len(t, inbox.Conversations, 1)
	assert.Zero(t, inbox.Conversations[0].UnreadCount)

	// Send a reply.
	resp = ts.api.Post("/api/v1/chat/sessions/"+opened.SessionID+"/messages",
		"Authorization: Bearer tok_buyer",
		map[string]any{"content": "Saturday works for me"})
	require.Equal(t, http.StatusOK, resp.Code)

	var sent domain.Message
	decodeData(t, resp.Body.Bytes(), &sent)
	assert.Equal(t, "user_buyer", sent.SenderID)
	assert.Equal(t, "Saturday works for me", sent.Content)

	// The transcript grows by exactly one.
	rows := ts.fake.Rows("messages")
	assert.Len(t, rows, 3)

	resp = ts.api.Delete("/api/v1/chat/sessions/"+opened.SessionID, "Authorization: Bearer tok_buyer")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Zero(t, ts.fake.SubscriberCount("messages"))
}

func TestChatSessionAccessControl(t *testing.T) {
	ts := setupTestServer(t)
	seedThread(ts)

	// A stranger cannot open the thread.
	resp := ts.api.Post("/api/v1/conversations/conv_1/session", "Authorization: Bearer tok_admin")
	assert.Equal(t, http.StatusForbidden, resp.Code)

	// The viewer's session cannot be driven by someone else.
	resp = ts.api.Post("/api/v1/conversations/conv_1/session", "Authorization: Bearer tok_buyer")
	require.Equal(t, http.StatusOK, resp.Code)

	var opened ChatSessionResponse
	decodeData(t, resp.Body.Bytes(), &opened)

	resp = ts.api.Post("/api/v1/chat/sessions/"+opened.SessionID+"/messages",
		"Authorization: Bearer tok_seller",
		map[string]any{"content": "hijack"})
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestSendEmptyMessageRejected(t *testing.T) {
	ts := setupTestServer(t)
	seedThread(ts)

	resp := ts.api.Post("/api/v1/conversations/conv_1/session", "Authorization: Bearer tok_buyer")
	require.Equal(t, http.StatusOK, resp.Code)

	var opened ChatSessionResponse
	decodeData(t, resp.Body.Bytes(), &opened)

	resp = ts.api.Post("/api/v1/chat/sessions/"+opened.SessionID+"/messages",
		"Authorization: Bearer tok_buyer",
		map[string]any{"content": ""})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
