package domain

import "time"

// NoMessagesYet is the preview shown for a conversation with no messages.
const NoMessagesYet = "No messages yet"

// Conversation is a buyer-seller messaging thread scoped to one listing.
// At most one conversation exists per (listing, buyer) pair; the client
// enforces this with a lookup before insert, not a database constraint.
type Conversation struct {
	ID        string    `json:"id"`
	ListingID string    `json:"listing_id"`
	BuyerID   string    `json:"buyer_id"`
	SellerID  string    `json:"seller_id"`
	CreatedAt time.Time `json:"created_at,omitzero"`

	// Denormalized join data for display.
	OtherParty      Profile `json:"other_party,omitzero"`
	ListingTitle    string  `json:"listing_title,omitempty"`
	ListingImageURL string  `json:"listing_image_url,omitempty"`

	// Derived at request time, never stored.
	LastMessage   string    `json:"last_message,omitempty"`
	LastMessageAt time.Time `json:"last_message_at,omitzero"`
	UnreadCount   int       `json:"unread_count"`
}

// CounterpartyID returns the other participant from the viewer's side:
// the seller when the viewer is the buyer, and vice versa.
func (c *Conversation) CounterpartyID(viewerID string) string {
	if viewerID == c.BuyerID {
		return c.SellerID
	}
	return c.BuyerID
}

// Involves reports whether the given user is a participant.
func (c *Conversation) Involves(userID string) bool {
	return userID == c.BuyerID || userID == c.SellerID
}

// Message is a single chat message within a conversation.
// Messages are created by either party, flipped to read by the recipient,
// and never deleted by the client.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Content        string    `json:"content"`
	Read           bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at,omitzero"`
}
