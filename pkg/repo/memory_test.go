package repo

import (
	"context"
	"testing"
	"time"

	"github.com/ksysoev/wikiview/pkg/prov"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTokens(t *testing.T) {
	store := NewMemoryTokens()
	ctx := context.Background()

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	saved := prov.Token{Value: "t-1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, store.Save(ctx, saved))

	tkn, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, saved, tkn)

	require.NoError(t, store.Delete(ctx))

	_, ok, err = store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryTokens_Expiry(t *testing.T) {
	store := NewMemoryTokens()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, prov.Token{Value: "t-1", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, store.Save(ctx, prov.Token{Value: "t-2", ExpiresAt: time.Now().Add(-time.Second)}))

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, prov.Token{Value: "t-3", ExpiresAt: time.Now().Add(50 * time.Millisecond)}))

	assert.Eventually(t, func() bool {
		_, ok, _ := store.Load(ctx)
		return !ok
	}, time.Second, 10*time.Millisecond)
}
