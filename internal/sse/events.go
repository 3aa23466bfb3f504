// Package sse relays server events to connected browsers over
// Server-Sent Events. Producers publish onto named topics; each connected
// client subscribes to the topics for its session and receives only those.
package sse

import "time"

// EventType identifies the kind of event sent to clients.
type EventType string

const (
	// EventConnected is sent once when a stream opens.
	EventConnected EventType = "connected"
	// EventHeartbeat keeps intermediaries from idling the stream out.
	EventHeartbeat EventType = "heartbeat"
	// EventFeedSnapshot carries a search session's refreshed results.
	EventFeedSnapshot EventType = "feed.snapshot"
	// EventChatMessage carries one newly arrived chat message.
	EventChatMessage EventType = "chat.message"
	// EventInboxChanged nudges the client to refetch its conversation list.
	EventInboxChanged EventType = "inbox.changed"
)

// Event is a single server-to-client notification.
type Event struct {
	Type  EventType `json:"type"`
	Topic string    `json:"topic,omitempty"`
	Data  any       `json:"data,omitempty"`
	At    time.Time `json:"at,omitzero"`
}

// NewEvent creates an event stamped with the current time.
func NewEvent(eventType EventType, data any) Event {
	return Event{Type: eventType, Data: data, At: time.Now().UTC()}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{Type: EventHeartbeat, At: time.Now().UTC()}
}
