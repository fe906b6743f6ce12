package ledger

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/dmitrijs2005/swappy/internal/common"
	"github.com/dmitrijs2005/swappy/internal/server/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSets struct {
	store.SetStore
	adds int
	err  error
}

func (c *countingSets) Add(ctx context.Context, key string, member []byte) error {
	c.adds++
	if c.err != nil {
		return c.err
	}
	return c.SetStore.Add(ctx, key, member)
}

func (c *countingSets) Card(ctx context.Context, key string) (int64, error) {
	if c.err != nil {
		return 0, c.err
	}
	return c.SetStore.Card(ctx, key)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "-1001234:42:stars", Key(-1001234, 42))
}

func TestHash_KnownValue(t *testing.T) {
	got := Hash(279838373, 195125422, []byte("makaroshki"))
	assert.Equal(t, "2ca3909a1352368d93e1221a85aaf0c1822d5808ca22717843f9f8acabbdd999", hex.EncodeToString(got[:]))
}

func TestHash_Properties(t *testing.T) {
	salt := []byte("s")
	a := Hash(1, 2, salt)

	assert.Equal(t, a, Hash(1, 2, salt), "deterministic")
	assert.NotEqual(t, a, Hash(2, 1, salt), "ordered pair")
	assert.NotEqual(t, a, Hash(1, 2, []byte("t")), "salted")
}

func TestGrant_Idempotent(t *testing.T) {
	ctx := context.Background()
	l := New(store.NewMemoryStore(), []byte("salt"))
	key := Key(-100, 2)

	for i := 1; i <= 5; i++ {
		require.NoError(t, l.Grant(ctx, 1, 2, key))

		n, err := l.Count(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "after grant #%d", i)
	}
}

func TestGrant_DistinctGivers(t *testing.T) {
	ctx := context.Background()
	l := New(store.NewMemoryStore(), []byte("salt"))
	key := Key(-100, 9)

	for _, giver := range []int64{1, 2, 3, 2, 1} {
		require.NoError(t, l.Grant(ctx, giver, 9, key))
	}

	n, err := l.Count(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestGrant_KeysAreIsolated(t *testing.T) {
	ctx := context.Background()
	l := New(store.NewMemoryStore(), []byte("salt"))
	k1, k2 := Key(-100, 2), Key(-100, 3)

	require.NoError(t, l.Grant(ctx, 1, 2, k1))
	require.NoError(t, l.Grant(ctx, 1, 3, k2))

	n1, err := l.Count(ctx, k1)
	require.NoError(t, err)
	n2, err := l.Count(ctx, k2)
	require.NoError(t, err)

	assert.Equal(t, 1, n1)
	assert.Equal(t, 1, n2)
}

func TestGrant_SelfGrantRejected(t *testing.T) {
	sets := &countingSets{SetStore: store.NewMemoryStore()}
	l := New(sets, []byte("salt"))

	err := l.Grant(context.Background(), 7, 7, Key(-1, 7))
	require.ErrorIs(t, err, common.ErrSelfGrant)
	assert.Zero(t, sets.adds, "store must not be touched")
}

func TestGrant_StorageErrorIsReturned(t *testing.T) {
	boom := errors.New("boom")
	sets := &countingSets{SetStore: store.NewMemoryStore(), err: boom}
	l := New(sets, nil)

	require.ErrorIs(t, l.Grant(context.Background(), 1, 2, "k"), boom)

	_, err := l.Count(context.Background(), "k")
	require.ErrorIs(t, err, boom)
}

func TestDeriveSalt(t *testing.T) {
	a := DeriveSalt([]byte("master"))
	b := DeriveSalt([]byte("master"))
	c := DeriveSalt([]byte("other"))

	assert.Len(t, a, 32)
	assert.True(t, bytes.Equal(a, b))
	assert.False(t, bytes.Equal(a, c))
}
