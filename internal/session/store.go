// Package session owns the per-conversation turn lifecycle: loading and
// persisting session context, routing a message through perception and
// articulation, and enforcing the one-turn-in-flight rule with cancellation.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"bizpilot/internal/types"
)

// Store persists session context keyed by (agentKey, userID). Expiry and
// TTL are the backing store's concern; callers only load, save, and clear.
type Store interface {
	Load(ctx context.Context, agent types.AgentDomain, userID string) (*types.SessionContext, error)
	Save(ctx context.Context, sc *types.SessionContext) error
	Clear(ctx context.Context, agent types.AgentDomain, userID string) error
}

// MemoryStore is an in-process Store, used in tests and as the default when
// no persistent backend is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*types.SessionContext
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*types.SessionContext)}
}

// Load returns the stored context for (agent, userID), or nil when none
// exists. The returned value is a copy; mutating it does not touch the store
// until Save.
func (m *MemoryStore) Load(ctx context.Context, agent types.AgentDomain, userID string) (*types.SessionContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sc, ok := m.sessions[types.SessionKey(agent, userID)]
	if !ok {
		return nil, nil
	}
	cp := *sc
	cp.History = append([]types.ConversationTurn(nil), sc.History...)
	if sc.LastContext != nil {
		lc := *sc.LastContext
		cp.LastContext = &lc
	}
	return &cp, nil
}

// Save stores a snapshot of sc under its session key.
func (m *MemoryStore) Save(ctx context.Context, sc *types.SessionContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *sc
	cp.History = append([]types.ConversationTurn(nil), sc.History...)
	if sc.LastContext != nil {
		lc := *sc.LastContext
		cp.LastContext = &lc
	}
	m.sessions[sc.Key()] = &cp
	return nil
}

// Clear removes the stored context for (agent, userID). Clearing a missing
// key is not an error.
func (m *MemoryStore) Clear(ctx context.Context, agent types.AgentDomain, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, types.SessionKey(agent, userID))
	return nil
}

// NewSessionContext creates a fresh context for a first message.
func NewSessionContext(agent types.AgentDomain, userID string) *types.SessionContext {
	return &types.SessionContext{
		SessionID: uuid.NewString(),
		UserID:    userID,
		AgentKey:  agent,
	}
}
