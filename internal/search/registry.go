package search

import (
	"log/slog"
	"sync"
	"time"

	"github.com/dozendreams/dozendreams-server/internal/errors"
	"github.com/dozendreams/dozendreams-server/internal/id"
)

const (
	defaultIdleTTL    = 30 * time.Minute
	janitorInterval   = time.Minute
	registryComponent = "search.registry"
)

type session struct {
	controller *Controller
	lastSeen   time.Time
}

// Registry tracks one controller per connected browse session. Sessions
// idle past the TTL are swept so abandoned tabs do not pin memory.
type Registry struct {
	browser Browser
	quiet   time.Duration
	idleTTL time.Duration
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
	done     chan struct{}
	once     sync.Once
}

// NewRegistry creates a registry and starts its idle sweeper.
func NewRegistry(browser Browser, quiet time.Duration, logger *slog.Logger) *Registry {
	r := &Registry{
		browser:  browser,
		quiet:    quiet,
		idleTTL:  defaultIdleTTL,
		logger:   logger.With("component", registryComponent),
		sessions: make(map[string]*session),
		done:     make(chan struct{}),
	}
	go r.janitor()
	return r
}

// Open creates a session with default filters and kicks off its first
// fetch. notify receives every settled snapshot for the session, tagged
// with the session id so callers can route it without extra state.
func (r *Registry) Open(notify func(sessionID string, snapshot Snapshot)) string {
	sessionID := id.MustGenerate(id.PrefixSession)
	var forward func(Snapshot)
	if notify != nil {
		forward = func(snapshot Snapshot) { notify(sessionID, snapshot) }
	}
	controller := NewController(r.browser, r.quiet, forward, r.logger)

	r.mu.Lock()
	r.sessions[sessionID] = &session{controller: controller, lastSeen: time.Now()}
	count := len(r.sessions)
	r.mu.Unlock()

	r.logger.Debug("session opened", "session", sessionID, "active", count)
	controller.Refresh()
	return sessionID
}

// Get returns the session's controller and marks it active.
func (r *Registry) Get(sessionID string) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, errors.NotFoundf("unknown search session %s", sessionID)
	}
	s.lastSeen = time.Now()
	return s.controller, nil
}

// Close tears one session down. Unknown ids are a no-op.
func (r *Registry) Close(sessionID string) {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	r.mu.Unlock()

	if ok {
		s.controller.Close()
		r.logger.Debug("session closed", "session", sessionID)
	}
}

// Shutdown stops the sweeper and closes every session.
func (r *Registry) Shutdown() {
	r.once.Do(func() { close(r.done) })

	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.controller.Close()
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
	var expired []*session
	for sessionID, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			expired = append(expired, s)
			delete(r.sessions, sessionID)
		}
	}
	remaining := len(r.sessions)
	r.mu.Unlock()

	for _, s := range expired {
		s.controller.Close()
	}
	if len(expired) > 0 {
		r.logger.Info("swept idle sessions", "expired", len(expired), "active", remaining)
	}
}
