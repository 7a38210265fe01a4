package registration

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPendingStoreLifecycle(t *testing.T) {
	store := NewMemoryPendingStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "ada@example.com")
	assert.ErrorIs(t, err, ErrPendingNotFound)

	require.NoError(t, store.Put(ctx, Pending{Username: "ada", Email: "Ada@Example.com", Password: "pw"}))

	// lookups are case-insensitive on email
	p, err := store.Get(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ada", p.Username)

	require.NoError(t, store.Delete(ctx, "ada@example.com"))
	_, err = store.Get(ctx, "ada@example.com")
	assert.ErrorIs(t, err, ErrPendingNotFound)
}

func TestMemoryPendingStoreLastWriteWins(t *testing.T) {
	store := NewMemoryPendingStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, Pending{Email: "ada@example.com", Password: "first"}))
	require.NoError(t, store.Put(ctx, Pending{Email: "ada@example.com", Password: "second"}))

	p, err := store.Get(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "second", p.Password)
}

func TestMemoryPendingStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryPendingStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			email := fmt.Sprintf("user%d@example.com", i%5)
			_ = store.Put(ctx, Pending{Email: email, Username: fmt.Sprintf("u%d", i)})
			_, _ = store.Get(ctx, email)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 5; i++ {
		_, err := store.Get(ctx, fmt.Sprintf("user%d@example.com", i))
		assert.NoError(t, err)
	}
}
