// Package chat implements buyer-seller messaging: conversation threads
// scoped to a listing, enriched inbox listings, and live per-conversation
// sessions fed by the backend's change stream.
package chat

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/dozendreams/dozendreams-server/internal/backend"
	"github.com/dozendreams/dozendreams-server/internal/domain"
	"github.com/dozendreams/dozendreams-server/internal/errors"
	"github.com/dozendreams/dozendreams-server/internal/id"
)

const (
	conversationsTable = "conversations"
	messagesTable      = "messages"
	profilesTable      = "profiles"
	listingsTable      = "listings"
)

// Service owns conversation threads and message persistence.
type Service struct {
	store  backend.Store
	feed   backend.Feed
	logger *slog.Logger
}

// NewService creates the chat service.
func NewService(store backend.Store, feed backend.Feed, logger *slog.Logger) *Service {
	return &Service{store: store, feed: feed, logger: logger}
}

// Start returns the conversation between userID and the listing's seller,
// creating it on first contact. At most one conversation exists per
// (listing, buyer) pair; the lookup before insert keeps repeat taps from
// fanning out duplicate threads.
func (s *Service) Start(ctx context.Context, userID, listingID string) (*domain.Conversation, error) {
	var listings []struct {
		ID      string `json:"id"`
		OwnerID string `json:"user_id"`
	}
	q := backend.From(listingsTable).Select("id", "user_id").
		Where(backend.Eq("id", listingID)).Take(1)
	if err := s.store.Select(ctx, q, &listings); err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		return nil, errors.NotFoundf("listing %s not found", listingID)
	}
	sellerID := listings[0].OwnerID
	if sellerID == userID {
		return nil, errors.Validation("cannot start a conversation with yourself")
	}

	var existing []domain.Conversation
	q = backend.From(conversationsTable).
		Where(
			backend.Eq("listing_id", listingID),
			backend.Eq("buyer_id", userID),
		).Take(1)
	if err := s.store.Select(ctx, q, &existing); err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return &existing[0], nil
	}

	conversation := domain.Conversation{
		ID:        id.MustGenerate(id.PrefixConversation),
		ListingID: listingID,
		BuyerID:   userID,
		SellerID:  sellerID,
	}
	var stored domain.Conversation
	if err := s.store.Insert(ctx, conversationsTable, conversationRecord(conversation), &stored); err != nil {
		return nil, err
	}
	s.logger.Info("conversation started", "conversation", stored.ID, "listing", listingID)
	return &stored, nil
}

// conversationRecord strips derived fields before a write.
func conversationRecord(c domain.Conversation) map[string]any {
	return map[string]any{
		"id":         c.ID,
		"listing_id": c.ListingID,
		"buyer_id":   c.BuyerID,
		"seller_id":  c.SellerID,
	}
}

// Inbox lists the user's conversations, newest activity first. Each thread
// is enriched concurrently with the counterparty profile, the listing
// title and image, the latest message preview, and the unread count; all
// enrichment completes before the inbox is returned. Enrichment failures
// degrade that thread's decoration, never the whole inbox.
func (s *Service) Inbox(ctx context.Context, userID string) ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	q := backend.From(conversationsTable).WhereAny(
		backend.Eq("buyer_id", userID),
		backend.Eq("seller_id", userID),
	)
	if err := s.store.Select(ctx, q, &conversations); err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	for i := range conversations {
		wg.Add(1)
		go func(c *domain.Conversation) {
			defer wg.Done()
			s.enrich(ctx, c, userID)
		}(&conversations[i])
	}
	wg.Wait()

	sort.SliceStable(conversations, func(i, j int) bool {
		a, b := conversations[i], conversations[j]
		at, bt := a.LastMessageAt, b.LastMessageAt
		if at.IsZero() {
			at = a.CreatedAt
		}
		if bt.IsZero() {
			bt = b.CreatedAt
		}
		return at.After(bt)
	})
	return conversations, nil
}

func (s *Service) enrich(ctx context.Context, c *domain.Conversation, viewerID string) {
	counterpartyID := c.CounterpartyID(viewerID)

	var profiles []domain.Profile
	q := backend.From(profilesTable).Where(backend.Eq("id", counterpartyID)).Take(1)
	if err := s.store.Select(ctx, q, &profiles); err != nil {
		s.logger.Warn("inbox profile lookup failed", "conversation", c.ID, "error", err)
	} else if len(profiles) > 0 {
		c.OtherParty = profiles[0]
	}

	var listings []struct {
		Title    string `json:"title"`
		ImageURL string `json:"image_url"`
	}
	q = backend.From(listingsTable).Select("title", "image_url").
		Where(backend.Eq("id", c.ListingID)).Take(1)
	if err := s.store.Select(ctx, q, &listings); err != nil {
		s.logger.Warn("inbox listing lookup failed", "conversation", c.ID, "error", err)
	} else if len(listings) > 0 {
		c.ListingTitle = listings[0].Title
		c.ListingImageURL = listings[0].ImageURL
	}

	var latest []domain.Message
	q = backend.From(messagesTable).
		Where(backend.Eq("conversation_id", c.ID)).
		OrderBy("created_at", true).
		Take(1)
	if err := s.store.Select(ctx, q, &latest); err != nil {
		s.logger.Warn("inbox preview lookup failed", "conversation", c.ID, "error", err)
		c.LastMessage = domain.NoMessagesYet
	} else if len(latest) > 0 {
		c.LastMessage = latest[0].Content
		c.LastMessageAt = latest[0].CreatedAt
	} else {
		c.LastMessage = domain.NoMessagesYet
	}

	var unread []struct {
		ID string `json:"id"`
	}
	q = backend.From(messagesTable).Select("id").Where(
		backend.Eq("conversation_id", c.ID),
		backend.Eq("is_read", false),
		backend.Neq("sender_id", viewerID),
	)
	if err := s.store.Select(ctx, q, &unread); err != nil {
		s.logger.Warn("inbox unread count failed", "conversation", c.ID, "error", err)
	} else {
		c.UnreadCount = len(unread)
	}
}

// Conversation fetches one thread and verifies the viewer participates.
func (s *Service) Conversation(ctx context.Context, conversationID, viewerID string) (*domain.Conversation, error) {
	var conversations []domain.Conversation
	q := backend.From(conversationsTable).Where(backend.Eq("id", conversationID)).Take(1)
	if err := s.store.Select(ctx, q, &conversations); err != nil {
		return nil, err
	}
	if len(conversations) == 0 {
		return nil, errors.NotFoundf("conversation %s not found", conversationID)
	}
	c := conversations[0]
	if !c.Involves(viewerID) {
		return nil, errors.Forbidden("not a participant")
	}
	return &c, nil
}

// History returns the conversation's messages oldest first.
func (s *Service) History(ctx context.Context, conversationID string) ([]domain.Message, error) {
	var messages []domain.Message
	q := backend.From(messagesTable).
		Where(backend.Eq("conversation_id", conversationID)).
		OrderBy("created_at", false).
		OrderBy("id", false)
	if err := s.store.Select(ctx, q, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkRead flips every message the counterparty sent to read.
func (s *Service) MarkRead(ctx context.Context, conversationID, viewerID string) error {
	return s.store.Update(ctx, messagesTable,
		map[string]bool{"is_read": true},
		backend.Eq("conversation_id", conversationID),
		backend.Neq("sender_id", viewerID),
		backend.Eq("is_read", false),
	)
}

// Send persists one message. The id is generated here, before the write,
// so the sender can recognize its own message when it echoes back on the
// change feed.
func (s *Service) Send(ctx context.Context, conversationID, senderID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.Validation("message is empty")
	}

	message := domain.Message{
		ID:             id.MustGenerate(id.PrefixMessage),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
	}
	var stored domain.Message
	if err := s.store.Insert(ctx, messagesTable, message, &stored); err != nil {
		s.logger.Error("message send failed", "conversation", conversationID, "error", err)
		// The draft rides back on the error so the composer can restore it.
		return nil, errors.Upstream("message not sent").
			WithDetails(map[string]string{"draft": content}).
			WithCause(err)
	}
	return &stored, nil
}
