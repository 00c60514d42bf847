package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// sessionTTL matches the original cleanup policy for stale games.
const sessionTTL = 24 * time.Hour

// SessionStore is the system of record for sessions between coordinator
// operations. Correctness does not rely on store-level concurrency control;
// the coordinator's per-session guard is the sole writer for a given id.
type SessionStore interface {
	Load(ctx context.Context, gameID string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, gameID string) error
}

// RedisSessionStore keeps each session as a JSON blob under game:<id>.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(gameID string) string {
	return "game:" + gameID
}

func (s *RedisSessionStore) Load(ctx context.Context, gameID string) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey(gameID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, NotFound("GAME_NOT_FOUND", "game not found").With("gameId", gameID)
	}
	if err != nil {
		return nil, Unavailable("STORE_ERROR", "failed to load game", err).With("gameId", gameID)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, Unavailable("STORE_ERROR", "failed to decode game", err).With("gameId", gameID)
	}
	return &session, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return Unavailable("STORE_ERROR", "failed to encode game", err).With("gameId", session.ID)
	}
	if err := s.client.Set(ctx, sessionKey(session.ID), data, sessionTTL).Err(); err != nil {
		return Unavailable("STORE_ERROR", "failed to save game", err).With("gameId", session.ID)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, gameID string) error {
	if err := s.client.Del(ctx, sessionKey(gameID)).Err(); err != nil {
		return Unavailable("STORE_ERROR", "failed to delete game", err).With("gameId", gameID)
	}
	return nil
}

// MemorySessionStore is a map-backed store used in tests and single-node
// setups without Redis. Sessions are deep-copied through JSON so callers
// never share mutable state with the store.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string][]byte)}
}

func (s *MemorySessionStore) Load(_ context.Context, gameID string) (*Session, error) {
	s.mu.RLock()
	data, ok := s.sessions[gameID]
	s.mu.RUnlock()
	if !ok {
		return nil, NotFound("GAME_NOT_FOUND", "game not found").With("gameId", gameID)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, Unavailable("STORE_ERROR", "failed to decode game", err).With("gameId", gameID)
	}
	return &session, nil
}

func (s *MemorySessionStore) Save(_ context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return Unavailable("STORE_ERROR", "failed to encode game", err).With("gameId", session.ID)
	}
	s.mu.Lock()
	s.sessions[session.ID] = data
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, gameID string) error {
	s.mu.Lock()
	delete(s.sessions, gameID)
	s.mu.Unlock()
	return nil
}
