package httpadapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/startup-scout/internal/core/domain"
	"github.com/kirillkom/startup-scout/internal/core/ports"
)

const sessionCookieName = "scout_session"

// FlowFactory builds the view flow for a new browser session.
type FlowFactory func(sessionID string) ports.ViewFlow

type Session struct {
	ID   string
	Flow ports.ViewFlow

	lastSeen time.Time
}

// SessionStore keeps one view flow per browser session and evicts idle ones.
type SessionStore struct {
	factory FlowFactory
	ttl     time.Duration
	max     int
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
	onChange func(active int)
}

func NewSessionStore(factory FlowFactory, ttl time.Duration, maxSessions int) *SessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionStore{
		factory:  factory,
		ttl:      ttl,
		max:      maxSessions,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// OnChange registers a callback receiving the live session count.
func (s *SessionStore) OnChange(fn func(active int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if s.now().Sub(session.lastSeen) > s.ttl {
		s.removeLocked(id)
		return nil, false
	}
	session.lastSeen = s.now()
	return session, true
}

func (s *SessionStore) Create() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpiredLocked()
	if s.max > 0 && len(s.sessions) >= s.max {
		return nil, domain.WrapError(domain.ErrTemporary, "create session", fmt.Errorf("session capacity %d reached", s.max))
	}

	id := uuid.NewString()
	session := &Session{
		ID:       id,
		Flow:     s.factory(id),
		lastSeen: s.now(),
	}
	s.sessions[id] = session
	s.notifyLocked()
	return session, nil
}

func (s *SessionStore) EvictExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evictExpiredLocked()
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run evicts idle sessions every interval until ctx is done.
func (s *SessionStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictExpired(); n > 0 {
				slog.Info("sessions_evicted", "count", n)
			}
		}
	}
}

func (s *SessionStore) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.sessions {
		s.removeLocked(id)
	}
}

func (s *SessionStore) evictExpiredLocked() int {
	now := s.now()
	evicted := 0
	for id, session := range s.sessions {
		if now.Sub(session.lastSeen) > s.ttl {
			s.removeLocked(id)
			evicted++
		}
	}
	return evicted
}

func (s *SessionStore) removeLocked(id string) {
	session, ok := s.sessions[id]
	if !ok {
		return
	}
	delete(s.sessions, id)
	session.Flow.Close()
	s.notifyLocked()
}

func (s *SessionStore) notifyLocked() {
	if s.onChange != nil {
		s.onChange(len(s.sessions))
	}
}

// sessionFor returns the caller's session, creating one when the request
// carries none or an expired one. The cookie is reissued on every hit so its
// lifetime follows the server-side idle TTL.
func (rt *Router) sessionFor(w http.ResponseWriter, r *http.Request) (*Session, error) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if session, ok := rt.sessions.Get(cookie.Value); ok {
			rt.setSessionCookie(w, session.ID)
			return session, nil
		}
	}

	session, err := rt.sessions.Create()
	if err != nil {
		return nil, err
	}
	rt.setSessionCookie(w, session.ID)
	return session, nil
}

func (rt *Router) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(rt.sessions.ttl.Seconds()),
	})
}
