package chat

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dozendreams/dozendreams-server/internal/backend"
	"github.com/dozendreams/dozendreams-server/internal/domain"
)

// Session is one open chat window onto a conversation.
//
// Opening a session loads the full history oldest first, marks the
// counterparty's messages read, and subscribes to the conversation's slice
// of the message change feed. Arrivals append in feed order; a message
// already present (the sender's own echo, or a reconnect replay) is
// dropped by id. Closing the session always tears the subscription down.
type Session struct {
	ConversationID string
	ViewerID       string

	service *Service
	sub     *backend.Subscription
	notify  func(domain.Message)
	logger  *slog.Logger

	mu       sync.Mutex
	messages []domain.Message
	seen     map[string]struct{}
	closed   bool
	done     chan struct{}
}

// OpenSession verifies the viewer participates, loads history, marks the
// thread read, and starts the live feed. notify, when non-nil, fires for
// every newly appended message.
func (s *Service) OpenSession(ctx context.Context, conversationID, viewerID string, notify func(domain.Message)) (*Session, error) {
	if _, err := s.Conversation(ctx, conversationID, viewerID); err != nil {
		return nil, err
	}

	history, err := s.History(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	if err := s.MarkRead(ctx, conversationID, viewerID); err != nil {
		// The window still opens; unread badges lag until the next open.
		s.logger.Warn("mark read failed", "conversation", conversationID, "error", err)
	}

	filter := backend.Eq("conversation_id", conversationID)
	sub, err := s.feed.Subscribe(ctx, messagesTable, &filter)
	if err != nil {
		return nil, err
	}

	session := &Session{
		ConversationID: conversationID,
		ViewerID:       viewerID,
		service:        s,
		sub:            sub,
		notify:         notify,
		logger:         s.logger,
		messages:       history,
		seen:           make(map[string]struct{}, len(history)),
		done:           make(chan struct{}),
	}
	for _, m := range history {
		session.seen[m.ID] = struct{}{}
	}

	go session.pump()
	return session, nil
}

// pump appends feed arrivals until the subscription ends.
func (s *Session) pump() {
	defer close(s.done)
	for event := range s.sub.Events() {
		if event.Kind != backend.EventInsert {
			continue
		}
		var message domain.Message
		if err := event.DecodeRecord(&message); err != nil {
			s.logger.Warn("discarding malformed message event", "conversation", s.ConversationID, "error", err)
			continue
		}
		s.append(message)
	}
}

// append adds a message unless its id is already present.
func (s *Session) append(message domain.Message) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if _, dup := s.seen[message.ID]; dup {
		s.mu.Unlock()
		return
	}
	s.seen[message.ID] = struct{}{}
	s.messages = append(s.messages, message)
	notify := s.notify
	s.mu.Unlock()

	if notify != nil {
		notify(message)
	}
}

// Send persists a message through the service and appends it locally. On
// failure nothing is appended and the error carries the draft so the
// composer can restore it; there is no automatic retry.
func (s *Session) Send(ctx context.Context, content string) (*domain.Message, error) {
	message, err := s.service.Send(ctx, s.ConversationID, s.ViewerID, content)
	if err != nil {
		return nil, err
	}
	// Appending here makes the send visible immediately; the feed echo of
	// the same id is then a duplicate and gets dropped.
	s.append(*message)
	return message, nil
}

// MarkRead re-runs the read sweep, e.g. when the window regains focus.
func (s *Session) MarkRead(ctx context.Context) error {
	return s.service.MarkRead(ctx, s.ConversationID, s.ViewerID)
}

// Messages returns a snapshot of the transcript in arrival order.
func (s *Session) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Close unsubscribes from the change feed. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.sub.Close()
	<-s.done
}
