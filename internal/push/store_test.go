package push

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facemood/internal/domain"
)

func sub(endpoint string) Subscription {
	return Subscription{
		Endpoint: endpoint,
		Keys:     Keys{P256dh: "p256dh-key", Auth: "auth-key"},
	}
}

func TestSubscription_Validate(t *testing.T) {
	assert.NoError(t, sub("https://push.example.com/a").Validate())

	err := Subscription{}.Validate()
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.StatusCode)

	assert.Error(t, sub("   ").Validate())
}

func TestMemoryStore_AddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	added, err := store.Add(ctx, sub("https://push.example.com/a"))
	require.NoError(t, err)
	assert.True(t, added)

	added, err = store.Add(ctx, sub("https://push.example.com/a"))
	require.NoError(t, err)
	assert.False(t, added)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemoryStore_TrimsEndpoint(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	added, err := store.Add(ctx, sub("https://push.example.com/a"))
	require.NoError(t, err)
	assert.True(t, added)

	added, err = store.Add(ctx, sub("  https://push.example.com/a \n"))
	require.NoError(t, err)
	assert.False(t, added, "whitespace does not make a new endpoint")

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "https://push.example.com/a", list[0].Endpoint)

	require.NoError(t, store.Remove(ctx, " https://push.example.com/a"))
	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryStore_RejectsMissingEndpoint(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Add(context.Background(), Subscription{})

	assert.ErrorIs(t, err, domain.ErrInvalidSubscription)
	n, _ := store.Count(context.Background())
	assert.Zero(t, n)
}

func TestMemoryStore_Remove(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	for _, e := range []string{"a", "b", "c"} {
		_, err := store.Add(ctx, sub(e))
		require.NoError(t, err)
	}

	require.NoError(t, store.Remove(ctx, "a"))
	require.NoError(t, store.Remove(ctx, "missing"))

	list, err := store.List(ctx)
	require.NoError(t, err)
	endpoints := make([]string, 0, len(list))
	for _, s := range list {
		endpoints = append(endpoints, s.Endpoint)
	}
	assert.ElementsMatch(t, []string{"b", "c"}, endpoints)

	// the index must still be consistent after the swap-remove
	added, err := store.Add(ctx, sub("c"))
	require.NoError(t, err)
	assert.False(t, added)
	require.NoError(t, store.Remove(ctx, "c"))
	n, _ := store.Count(ctx)
	assert.Equal(t, 1, n)
}

func TestMemoryStore_ListIsSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_, _ = store.Add(ctx, sub("a"))

	list, _ := store.List(ctx)
	list[0].Endpoint = "mutated"

	again, _ := store.List(ctx)
	assert.Equal(t, "a", again[0].Endpoint)
}

func TestMemoryStore_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// every endpoint is registered twice from different goroutines
			_, _ = store.Add(ctx, sub(fmt.Sprintf("https://push.example.com/%d", i%25)))
		}(i)
	}
	wg.Wait()

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25, n)
}
