// session/memory.go
package session

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Resolver for tests and the memory dev mode.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]AppSession
}

var _ Resolver = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{sessions: map[string]AppSession{}}
}

func (m *Memory) Put(token, userID, role string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = AppSession{UserID: userID, Role: role, IssuedAt: time.Now().Unix()}
}

func (m *Memory) Resolve(ctx context.Context, token string) (*AppSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	as, ok := m.sessions[token]
	if !ok {
		return nil, ErrNoSession
	}
	return &as, nil
}

func (m *Memory) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}
