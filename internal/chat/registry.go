package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dozendreams/dozendreams-server/internal/domain"
	"github.com/dozendreams/dozendreams-server/internal/errors"
	"github.com/dozendreams/dozendreams-server/internal/id"
)

const (
	defaultIdleTTL  = 30 * time.Minute
	janitorInterval = time.Minute
)

type entry struct {
	session  *Session
	viewerID string
	lastSeen time.Time
}

// Registry tracks open chat sessions. A viewer holds at most one open
// window: opening a second conversation closes the first, which is what
// guarantees the old subscription is torn down on switch. Sessions idle
// past the TTL are swept so abandoned windows do not pin their feed
// subscription.
type Registry struct {
	service *Service
	idleTTL time.Duration
	logger  *slog.Logger

	mu       sync.Mutex
	byID     map[string]*entry
	byViewer map[string]string
	done     chan struct{}
	once     sync.Once
}

// NewRegistry creates a session registry and starts its idle sweeper.
func NewRegistry(service *Service, logger *slog.Logger) *Registry {
	r := &Registry{
		service:  service,
		idleTTL:  defaultIdleTTL,
		logger:   logger,
		byID:     make(map[string]*entry),
		byViewer: make(map[string]string),
		done:     make(chan struct{}),
	}
	go r.janitor()
	return r
}

// Open starts a session for the viewer on the given conversation, closing
// any session the viewer already holds. Returns the session handle id.
// notify receives every appended message tagged with that id.
func (r *Registry) Open(ctx context.Context, conversationID, viewerID string, notify func(sessionID string, message domain.Message)) (string, *Session, error) {
	sessionID := id.MustGenerate(id.PrefixSession)
	var forward func(domain.Message)
	if notify != nil {
		forward = func(message domain.Message) { notify(sessionID, message) }
	}

	session, err := r.service.OpenSession(ctx, conversationID, viewerID, forward)
	if err != nil {
		return "", nil, err
	}

	// Displacing the viewer's previous session happens under the same lock
	// as the store, so two concurrent opens cannot orphan an entry.
	r.mu.Lock()
	previousID, hadPrevious := r.byViewer[viewerID]
	var previous *Session
	if hadPrevious {
		if e := r.byID[previousID]; e != nil {
			previous = e.session
		}
		delete(r.byID, previousID)
	}
	r.byID[sessionID] = &entry{session: session, viewerID: viewerID, lastSeen: time.Now()}
	r.byViewer[viewerID] = sessionID
	r.mu.Unlock()

	if previous != nil {
		previous.Close()
		r.logger.Debug("closed previous chat session", "viewer", viewerID, "session", previousID)
	}

	r.logger.Debug("chat session opened", "viewer", viewerID, "conversation", conversationID)
	return sessionID, session, nil
}

// Get returns an open session by handle id and marks it active.
func (r *Registry) Get(sessionID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[sessionID]
	if !ok {
		return nil, errors.NotFoundf("unknown chat session %s", sessionID)
	}
	e.lastSeen = time.Now()
	return e.session, nil
}

// Close tears one session down. Unknown ids are a no-op.
func (r *Registry) Close(sessionID string) {
	r.mu.Lock()
	e, ok := r.byID[sessionID]
	if ok {
		delete(r.byID, sessionID)
		if r.byViewer[e.viewerID] == sessionID {
			delete(r.byViewer, e.viewerID)
		}
	}
	r.mu.Unlock()

	if ok {
		e.session.Close()
	}
}

// Shutdown stops the sweeper and closes every open session.
func (r *Registry) Shutdown() {
	r.once.Do(func() { close(r.done) })

	r.mu.Lock()
	entries := r.byID
	r.byID = make(map[string]*entry)
	r.byViewer = make(map[string]string)
	r.mu.Unlock()

	for _, e := range entries {
		e.session.Close()
	}
}

func (r *Registry) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *Registry) sweep() {
	cutoff := time.Now().Add(-r.idleTTL)

	r.mu.Lock()
	var expired []*entry
	for sessionID, e := range r.byID {
		if e.lastSeen.Before(cutoff) {
			expired = append(expired, e)
			delete(r.byID, sessionID)
			if r.byViewer[e.viewerID] == sessionID {
				delete(r.byViewer, e.viewerID)
			}
		}
	}
	remaining := len(r.byID)
	r.mu.Unlock()

	for _, e := range expired {
		e.session.Close()
	}
	if len(expired) > 0 {
		r.logger.Info("swept idle chat sessions", "expired", len(expired), "active", remaining)
	}
}
