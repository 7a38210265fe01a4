package registration

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/secondhandhub/marketplace-backend/pkg/redis"
)

// ErrPendingNotFound is returned when no pending registration exists
// for the email (never created, expired, or already committed).
var ErrPendingNotFound = errors.New("pending registration not found")

// Pending holds a registration awaiting email verification. The
// password stays as submitted until the commit hashes it; the record
// lives at most as long as the verification token.
type Pending struct {
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Password   string    `json:"password"`
	Location   string    `json:"location,omitempty"`
	Categories []string  `json:"categories,omitempty"`
	Wishlist   []string  `json:"wishlist,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// PendingStore keeps pending registrations keyed by email. Put
// overwrites any existing record for the same email (last write wins).
type PendingStore interface {
	Put(ctx context.Context, p Pending) error
	Get(ctx context.Context, email string) (Pending, error)
	Delete(ctx context.Context, email string) error
}

// MemoryPendingStore is the mutex-guarded in-process implementation.
// It does not expire records; token expiry still gates verification.
type MemoryPendingStore struct {
	mu      sync.Mutex
	pending map[string]Pending
}

func NewMemoryPendingStore() *MemoryPendingStore {
	return &MemoryPendingStore{pending: make(map[string]Pending)}
}

func (s *MemoryPendingStore) Put(_ context.Context, p Pending) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[normalizeEmail(p.Email)] = p
	return nil
}

func (s *MemoryPendingStore) Get(_ context.Context, email string) (Pending, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[normalizeEmail(email)]
	if !ok {
		return Pending{}, ErrPendingNotFound
	}
	return p, nil
}

func (s *MemoryPendingStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, normalizeEmail(email))
	return nil
}

// RedisPendingStore persists pending registrations with a TTL equal to
// the verification token lifetime, so abandoned sign-ups expire on
// their own and survive process restarts.
type RedisPendingStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPendingStore(client *redis.Client, ttl time.Duration) *RedisPendingStore {
	return &RedisPendingStore{client: client, ttl: ttl}
}

func (s *RedisPendingStore) Put(ctx context.Context, p Pending) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.client.PendingRegistrationKey(p.Email), raw, s.ttl)
}

func (s *RedisPendingStore) Get(ctx context.Context, email string) (Pending, error) {
	raw, err := s.client.Get(ctx, s.client.PendingRegistrationKey(email))
	if errors.Is(err, goredis.Nil) {
		return Pending{}, ErrPendingNotFound
	}
	if err != nil {
		return Pending{}, err
	}

	var p Pending
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Pending{}, err
	}
	return p, nil
}

func (s *RedisPendingStore) Delete(ctx context.Context, email string) error {
	return s.client.Del(ctx, s.client.PendingRegistrationKey(email))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
