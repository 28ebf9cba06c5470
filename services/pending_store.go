package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// PendingTTL is how long an unredeemed stage change is held before it is
// considered abandoned.
const PendingTTL = 15 * time.Minute

const pendingKeyFormat = "pending:stage:%s"

// PendingChange is an uncommitted stage transition waiting for its
// quantity-collection follow-up. Nothing is written to the style record
// until the token is redeemed.
type PendingChange struct {
	StyleID  uint      `json:"style_id"`
	Merchant string    `json:"merchant"`
	Stage    int       `json:"stage"`
	IssuedAt time.Time `json:"issued_at"`
}

// PendingStore holds pending stage changes keyed by token. Take removes the
// change so a token can be redeemed at most once.
type PendingStore interface {
	Put(ctx context.Context, token string, change PendingChange) error
	Take(ctx context.Context, token string) (*PendingChange, error)
}

var pendingStoreInstance PendingStore

// InitPendingStore sets the global pending store instance
func InitPendingStore(store PendingStore) PendingStore {
	pendingStoreInstance = store
	return store
}

// GetPendingStore returns the global pending store, defaulting to an
// in-memory store when none was configured.
func GetPendingStore() PendingStore {
	if pendingStoreInstance == nil {
		pendingStoreInstance = NewMemoryPendingStore()
	}
	return pendingStoreInstance
}

// NewPendingToken generates an opaque token for a pending change.
func NewPendingToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(buf)
}

// MemoryPendingStore keeps pending changes in process memory. Used in tests
// and in deployments without Redis.
type MemoryPendingStore struct {
	mu      sync.Mutex
	changes map[string]PendingChange
}

// NewMemoryPendingStore creates an empty in-memory pending store.
func NewMemoryPendingStore() *MemoryPendingStore {
	return &MemoryPendingStore{changes: make(map[string]PendingChange)}
}

// Put stores the change under the token.
func (m *MemoryPendingStore) Put(_ context.Context, token string, change PendingChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes[token] = change
	return nil
}

// Take removes and returns the change for the token. Returns (nil, nil) for
// unknown or expired tokens.
func (m *MemoryPendingStore) Take(_ context.Context, token string) (*PendingChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	change, ok := m.changes[token]
	if !ok {
		return nil, nil
	}
	delete(m.changes, token)
	if time.Since(change.IssuedAt) > PendingTTL {
		return nil, nil
	}
	return &change, nil
}

// RedisPendingStore keeps pending changes in Redis with a TTL, so a token
// survives process restarts and expires on its own when abandoned.
type RedisPendingStore struct {
	client *redis.Client
}

// NewRedisPendingStore creates a pending store backed by the given client.
func NewRedisPendingStore(client *redis.Client) *RedisPendingStore {
	return &RedisPendingStore{client: client}
}

// Put stores the change as JSON under the token with the pending TTL.
func (r *RedisPendingStore) Put(ctx context.Context, token string, change PendingChange) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to encode pending change: %w", err)
	}
	key := fmt.Sprintf(pendingKeyFormat, token)
	if err := r.client.Set(ctx, key, payload, PendingTTL).Err(); err != nil {
		return fmt.Errorf("failed to store pending change: %w", err)
	}
	return nil
}

// Take atomically removes and returns the change for the token. Returns
// (nil, nil) for unknown or expired tokens.
func (r *RedisPendingStore) Take(ctx context.Context, token string) (*PendingChange, error) {
	key := fmt.Sprintf(pendingKeyFormat, token)
	payload, err := r.client.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take pending change: %w", err)
	}
	var change PendingChange
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		return nil, fmt.Errorf("failed to decode pending change: %w", err)
	}
	return &change, nil
}
