package pos

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/andreshoyos/gymdesk-backend/internal/cart"
	pkgerrors "github.com/andreshoyos/gymdesk-backend/pkg/errors"
	pkgredis "github.com/andreshoyos/gymdesk-backend/pkg/redis"
)

// CartStore persists per-session carts between requests. The cart itself is
// a plain value; the store only round-trips it.
type CartStore interface {
	Save(ctx context.Context, sessionID string, c *cart.Cart, ttl time.Duration) error
	Load(ctx context.Context, sessionID string) (*cart.Cart, error)
	Delete(ctx context.Context, sessionID string) error
}

type sessionBackend interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	SessionKey(sessionID string) string
}

// RedisCartStore keeps carts in Redis keyed by session id with a TTL refresh
// on every write, so abandoned terminals expire on their own.
type RedisCartStore struct {
	backend sessionBackend
}

// NewRedisCartStore wraps the shared redis client.
func NewRedisCartStore(backend sessionBackend) (*RedisCartStore, error) {
	if backend == nil {
		return nil, fmt.Errorf("redis backend required")
	}
	return &RedisCartStore{backend: backend}, nil
}

func (s *RedisCartStore) Save(ctx context.Context, sessionID string, c *cart.Cart, ttl time.Duration) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := s.backend.Set(ctx, s.backend.SessionKey(sessionID), payload, ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart session")
	}
	return nil
}

func (s *RedisCartStore) Load(ctx context.Context, sessionID string) (*cart.Cart, error) {
	raw, err := s.backend.Get(ctx, s.backend.SessionKey(sessionID))
	if err != nil {
		if pkgredis.IsNil(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pos session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart session")
	}
	var c cart.Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cart")
	}
	return &c, nil
}

func (s *RedisCartStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.backend.Del(ctx, s.backend.SessionKey(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart session")
	}
	return nil
}

// MemoryCartStore is an in-process store for tests and single-node dev runs.
// TTLs are honored lazily on load.
type MemoryCartStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// NewMemoryCartStore returns an empty in-memory store.
func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{entries: map[string]memoryEntry{}}
}

func (s *MemoryCartStore) Save(_ context.Context, sessionID string, c *cart.Cart, ttl time.Duration) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = memoryEntry{payload: payload, expiresAt: expiresAt}
	return nil
}

func (s *MemoryCartStore) Load(_ context.Context, sessionID string) (*cart.Cart, error) {
	s.mu.Lock()
	entry, ok := s.entries[sessionID]
	if ok && !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(s.entries, sessionID)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pos session not found")
	}
	var c cart.Cart
	if err := json.Unmarshal(entry.payload, &c); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cart")
	}
	return &c, nil
}

func (s *MemoryCartStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}
