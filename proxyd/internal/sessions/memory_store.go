package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/complyhq/comply"
)

// memoryStore is the default Store for development: sessions live and die
// with the process.
type memoryStore struct {
	mu              sync.Mutex
	byID            map[string]Session
	idByHashedToken map[string]string
}

func NewMemoryStore() Store {
	return &memoryStore{
		byID:            map[string]Session{},
		idByHashedToken: map[string]string{},
	}
}

func (m *memoryStore) Create(_ context.Context, session Session) error {
	now := time.Now()
	session.Created = &now
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[session.ID] = session
	m.idByHashedToken[session.HashedToken] = session.ID
	return nil
}

func (m *memoryStore) GetByHashedToken(
	_ context.Context,
	hashedToken string,
) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.idByHashedToken[hashedToken]
	if !ok {
		return Session{}, comply.NewErrNotFound("Session", "")
	}
	return m.byID[id], nil
}

func (m *memoryStore) Refresh(
	_ context.Context,
	sessionID string,
	newHashedToken string,
	expires time.Time,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.byID[sessionID]
	if !ok {
		return comply.NewErrNotFound("Session", sessionID)
	}
	delete(m.idByHashedToken, session.HashedToken)
	session.HashedToken = newHashedToken
	session.Expires = &expires
	m.byID[sessionID] = session
	m.idByHashedToken[newHashedToken] = sessionID
	return nil
}

func (m *memoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.byID[sessionID]
	if !ok {
		return comply.NewErrNotFound("Session", sessionID)
	}
	delete(m.idByHashedToken, session.HashedToken)
	delete(m.byID, sessionID)
	return nil
}

func (m *memoryStore) CheckHealth(context.Context) error {
	return nil
}
