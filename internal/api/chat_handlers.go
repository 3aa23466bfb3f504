package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/dozendreams/dozendreams-server/internal/domain"
	"github.com/dozendreams/dozendreams-server/internal/sse"
)

func (s *Server) registerChatRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "startConversation",
		Method:      http.MethodPost,
		Path:        "/api/v1/conversations",
		Summary:     "Start conversation",
		Description: "Opens (or returns the existing) conversation between the caller and a listing's seller",
		Tags:        []string{"Chat"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleStartConversation)

	huma.Register(s.api, huma.Operation{
		OperationID: "listConversations",
		Method:      http.MethodGet,
		Path:        "/api/v1/conversations",
		Summary:     "List conversations",
		Description: "Returns the caller's inbox, most recently active first",
		Tags:        []string{"Chat"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListConversations)

	huma.Register(s.api, huma.Operation{
		OperationID: "openChatSession",
		Method:      http.MethodPost,
		Path:        "/api/v1/conversations/{id}/session",
		Summary:     "Open chat session",
		Description: "Loads history, marks the thread read, and starts the live message feed. Opening a second conversation closes the caller's previous session.",
		Tags:        []string{"Chat"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleOpenChatSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "sendChatMessage",
		Method:      http.MethodPost,
		Path:        "/api/v1/chat/sessions/{sessionID}/messages",
		Summary:     "Send message",
		Description: "Sends a message on an open session",
		Tags:        []string{"Chat"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSendChatMessage)

	huma.Register(s.api, huma.Operation{
		OperationID: "markChatRead",
		Method:      http.MethodPost,
		Path:        "/api/v1/chat/sessions/{sessionID}/read",
		Summary:     "Mark thread read",
		Description: "Marks the counterparty's messages in the open session as read",
		Tags:        []string{"Chat"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleMarkChatRead)

	huma.Register(s.api, huma.Operation{
		OperationID: "closeChatSession",
		Method:      http.MethodDelete,
		Path:        "/api/v1/chat/sessions/{sessionID}",
		Summary:     "Close chat session",
		Description: "Tears the session and its feed subscription down",
		Tags:        []string{"Chat"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCloseChatSession)
}

// chatTopic names the SSE topic carrying one session's messages.
func chatTopic(sessionID string) string {
	return "chat:" + sessionID
}

// inboxTopic names the SSE topic nudging one user's inbox.
func inboxTopic(userID string) string {
	return "inbox:" + userID
}

// === DTOs ===

type StartConversationRequest struct {
	ListingID string `json:"listing_id" validate:"required" doc:"Listing to open a thread on"`
}

type StartConversationInput struct {
	Authorization string `header:"Authorization"`
	Body          StartConversationRequest
}

type ConversationOutput struct {
	Body domain.Conversation
}

type ListConversationsInput struct {
	Authorization string `header:"Authorization"`
}

type ConversationsResponse struct {
	Conversations []domain.Conversation `json:"conversations" doc:"Inbox, most recently active first"`
}

type ConversationsOutput struct {
	Body ConversationsResponse
}

type OpenChatSessionInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Conversation ID"`
}

type ChatSessionResponse struct {
	SessionID string           `json:"session_id" doc:"Handle for subsequent session calls"`
	Messages  []domain.Message `json:"messages" doc:"Full history, oldest first"`
}

type ChatSessionOutput struct {
	Body ChatSessionResponse
}

type SendChatMessageRequest struct {
	Content string `json:"content" validate:"required,max=10000" doc:"Message text"`
}

type SendChatMessageInput struct {
	Authorization string `header:"Authorization"`
	SessionID     string `path:"sessionID" doc:"Chat session ID"`
	Body          SendChatMessageRequest
}

type MessageSentOutput struct {
	Body domain.Message
}

type MarkChatReadInput struct {
	Authorization string `header:"Authorization"`
	SessionID     string `path:"sessionID" doc:"Chat session ID"`
}

type CloseChatSessionInput struct {
	Authorization string `header:"Authorization"`
	SessionID     string `path:"sessionID" doc:"Chat session ID"`
}

// === Handlers ===

func (s *Server) handleStartConversation(ctx context.Context, input *StartConversationInput) (*ConversationOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.validate.Validate(input.Body); err != nil {
		return nil, err
	}

	conversation, err := s.services.Chat.Start(ctx, userID, input.Body.ListingID)
	if err != nil {
		return nil, err
	}

	return &ConversationOutput{Body: *conversation}, nil
}

func (s *Server) handleListConversations(ctx context.Context, input *ListConversationsInput) (*ConversationsOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	conversations, err := s.services.Chat.Inbox(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ConversationsOutput{Body: ConversationsResponse{Conversations: conversations}}, nil
}

func (s *Server) handleOpenChatSession(ctx context.Context, input *OpenChatSessionInput) (*ChatSessionOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	sessionID, session, err := s.services.ChatSessions.Open(ctx, input.ID, userID,
		func(sessionID string, message domain.Message) {
			s.sseManager.Publish(chatTopic(sessionID), sse.NewEvent(sse.EventChatMessage, message))
			if message.SenderID != userID {
				s.sseManager.Publish(inboxTopic(userID), sse.NewEvent(sse.EventInboxChanged, nil))
			}
		})
	if err != nil {
		return nil, err
	}

	return &ChatSessionOutput{Body: ChatSessionResponse{
		SessionID: sessionID,
		Messages:  session.Messages(),
	}}, nil
}

func (s *Server) handleSendChatMessage(ctx context.Context, input *SendChatMessageInput) (*MessageSentOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	session, err := s.services.ChatSessions.Get(input.SessionID)
	if err != nil {
		return nil, err
	}
	if session.ViewerID != userID {
		return nil, huma.Error403Forbidden("Not your chat session")
	}

	if err := s.validate.Validate(input.Body); err != nil {
		return nil, err
	}

	message, err := session.Send(ctx, input.Body.Content)
	if err != nil {
		return nil, err
	}

	// Nudge the counterparty's inbox so unread badges update without
	// them holding the thread open.
	if conversation, convErr := s.services.Chat.Conversation(ctx, session.ConversationID, userID); convErr == nil {
		recipient := conversation.CounterpartyID(userID)
		s.sseManager.Publish(inboxTopic(recipient), sse.NewEvent(sse.EventInboxChanged, nil))
	}

	return &MessageSentOutput{Body: *message}, nil
}

func (s *Server) handleMarkChatRead(ctx context.Context, input *MarkChatReadInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	session, err := s.services.ChatSessions.Get(input.SessionID)
	if err != nil {
		return nil, err
	}
	if session.ViewerID != userID {
		return nil, huma.Error403Forbidden("Not your chat session")
	}

	if err := session.MarkRead(ctx); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Thread marked read"}}, nil
}

func (s *Server) handleCloseChatSession(ctx context.Context, input *CloseChatSessionInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	session, err := s.services.ChatSessions.Get(input.SessionID)
	if err == nil && session.ViewerID != userID {
		return nil, huma.Error403Forbidden("Not your chat session")
	}

	s.services.ChatSessions.Close(input.SessionID)
	return &MessageOutput{Body: MessageResponse{Message: "Session closed"}}, nil
}

// handleChatStream pushes a session's live messages over SSE.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := s.services.ChatSessions.Get(sessionID); err != nil {
		http.Error(w, "unknown chat session", http.StatusNotFound)
		return
	}

	s.sseHandler.Serve(w, r, chatTopic(sessionID))
}

// handleInboxStream pushes inbox change nudges for the authenticated user.
func (s *Server) handleInboxStream(w http.ResponseWriter, r *http.Request) {
	token, ok := streamToken(r)
	if !ok {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	user, err := s.auth.AuthenticatedUser(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid or expired token", http.StatusUnauthorized)
		return
	}

	s.sseHandler.Serve(w, r, inboxTopic(user.ID))
}
