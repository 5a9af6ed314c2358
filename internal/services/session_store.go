package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/mamacare/internal/models"
)

// Session is the server-side state of one login. Mode and delivery date
// are loaded lazily from the pregnancy record and kept until the session
// is refreshed or closed.
type Session struct {
	ID        string
	UserID    uint
	Role      string
	CreatedAt time.Time

	mu           sync.Mutex
	resolved     bool
	mode         models.UserMode
	deliveryDate *time.Time
	celebrated   bool
	lastSeen     time.Time
}

type ModeState struct {
	Mode         models.UserMode `json:"mode"`
	DeliveryDate *time.Time      `json:"delivery_date,omitempty"`
}

func (session *Session) State() (ModeState, bool) {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.stateLocked(), session.resolved
}

func (session *Session) stateLocked() ModeState {
	state := ModeState{Mode: session.mode}
	if session.deliveryDate != nil {
		date := *session.deliveryDate
		state.DeliveryDate = &date
	}
	return state
}

func (session *Session) apply(state ModeState) {
	session.mu.Lock()
	defer session.mu.Unlock()
	session.mode = state.Mode
	session.deliveryDate = nil
	if state.DeliveryDate != nil {
		date := *state.DeliveryDate
		session.deliveryDate = &date
	}
	session.resolved = true
}

// MarkCelebrated reports whether this is the first call for the session.
func (session *Session) MarkCelebrated() bool {
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.celebrated {
		return false
	}
	session.celebrated = true
	return true
}

// SessionStore owns every open Session. Sessions idle longer than ttl are
// dropped by Get and Sweep.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (store *SessionStore) Open(userID uint, role string) *Session {
	now := store.now()
	session := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Role:      role,
		CreatedAt: now,
		mode:      models.ModeOnboarding,
		lastSeen:  now,
	}

	store.mu.Lock()
	store.sessions[session.ID] = session
	store.mu.Unlock()
	return session
}

func (store *SessionStore) Get(sessionID string) (*Session, bool) {
	store.mu.RLock()
	session, ok := store.sessions[sessionID]
	store.mu.RUnlock()
	if !ok {
		return nil, false
	}

	now := store.now()
	session.mu.Lock()
	expired := now.Sub(session.lastSeen) > store.ttl
	if !expired {
		session.lastSeen = now
	}
	session.mu.Unlock()

	if expired {
		store.Close(sessionID)
		return nil, false
	}
	return session, true
}

func (store *SessionStore) Close(sessionID string) {
	store.mu.Lock()
	delete(store.sessions, sessionID)
	store.mu.Unlock()
}

// CloseUser drops every session of userID, e.g. after a password reset.
func (store *SessionStore) CloseUser(userID uint) int {
	store.mu.Lock()
	defer store.mu.Unlock()
	closed := 0
	for id, session := range store.sessions {
		if session.UserID == userID {
			delete(store.sessions, id)
			closed++
		}
	}
	return closed
}

func (store *SessionStore) Sweep() int {
	now := store.now()
	store.mu.Lock()
	defer store.mu.Unlock()
	removed := 0
	for id, session := range store.sessions {
		session.mu.Lock()
		expired := now.Sub(session.lastSeen) > store.ttl
		session.mu.Unlock()
		if expired {
			delete(store.sessions, id)
			removed++
		}
	}
	return removed
}

func (store *SessionStore) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.sessions)
}
