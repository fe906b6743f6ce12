package ads

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/swappy/internal/server/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "-100:5:ads", Key(-100, 5))
}

func TestIsAuthor_ExactTriple(t *testing.T) {
	ctx := context.Background()
	s := New(store.NewMemoryStore(), RetainForever)

	require.NoError(t, s.RecordAuthor(ctx, -100, 1, 77))
	require.NoError(t, s.RecordAuthor(ctx, -100, 1, 77))

	tests := []struct {
		name         string
		group, user  int64
		message      int
		expectAuthor bool
	}{
		{"recorded", -100, 1, 77, true},
		{"other user", -100, 2, 77, false},
		{"other message", -100, 1, 78, false},
		{"other group", -200, 1, 77, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := s.IsAuthor(ctx, tt.group, tt.user, tt.message)
			require.NoError(t, err)
			assert.Equal(t, tt.expectAuthor, ok)
		})
	}
}

func TestForget_RetainForever(t *testing.T) {
	ctx := context.Background()
	s := New(store.NewMemoryStore(), RetainForever)

	require.NoError(t, s.RecordAuthor(ctx, -1, 1, 10))
	require.NoError(t, s.Forget(ctx, -1, 1, 10))

	ok, err := s.IsAuthor(ctx, -1, 1, 10)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestForget_RetractOnDelete(t *testing.T) {
	ctx := context.Background()
	s := New(store.NewMemoryStore(), RetractOnDelete)

	require.NoError(t, s.RecordAuthor(ctx, -1, 1, 10))
	require.NoError(t, s.RecordAuthor(ctx, -1, 1, 11))
	require.NoError(t, s.Forget(ctx, -1, 1, 10))

	ok, err := s.IsAuthor(ctx, -1, 1, 10)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.IsAuthor(ctx, -1, 1, 11)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestParseRetentionPolicy(t *testing.T) {
	for in, want := range map[string]RetentionPolicy{
		"":         RetainForever,
		"retain":   RetainForever,
		" Retract": RetractOnDelete,
	} {
		got, err := ParseRetentionPolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseRetentionPolicy("sometimes")
	require.Error(t, err)

	assert.Equal(t, "retract", RetractOnDelete.String())
}

func TestPolicy(t *testing.T) {
	for _, p := range []RetentionPolicy{RetainForever, RetractOnDelete} {
		s := New(store.NewMemoryStore(), p)
		assert.Equal(t, p, s.Policy())

		parsed, err := ParseRetentionPolicy(s.Policy().String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}
}
