package auth

import (
	"context"
	"sync"
	"time"

	"github.com/secondhandhub/marketplace-backend/pkg/redis"
)

// Blocklist records revoked token ids. Entries only need to outlive
// the token they revoke, so both implementations take a TTL.
type Blocklist interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemoryBlocklist is the mutex-guarded in-process implementation.
type MemoryBlocklist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemoryBlocklist() *MemoryBlocklist {
	return &MemoryBlocklist{revoked: make(map[string]time.Time), now: time.Now}
}

func (b *MemoryBlocklist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[jti] = b.now().Add(ttl)
	return nil
}

func (b *MemoryBlocklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiresAt, ok := b.revoked[jti]
	if !ok {
		return false, nil
	}
	if b.now().After(expiresAt) {
		delete(b.revoked, jti)
		return false, nil
	}
	return true, nil
}

// RedisBlocklist shares revocations across instances. The key expires
// together with the token it blocks.
type RedisBlocklist struct {
	client *redis.Client
}

func NewRedisBlocklist(client *redis.Client) *RedisBlocklist {
	return &RedisBlocklist{client: client}
}

func (b *RedisBlocklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		// token already expired, nothing to block
		return nil
	}
	return b.client.Set(ctx, b.client.BlocklistKey(jti), "revoked", ttl)
}

func (b *RedisBlocklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return b.client.Exists(ctx, b.client.BlocklistKey(jti))
}
