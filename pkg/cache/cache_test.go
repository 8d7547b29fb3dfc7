package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dormweb/pkg/logging"
)

func TestMemoryExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "posts", []byte("v1"), 10*time.Minute))

	v, ok, err := m.Get(ctx, "posts")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v1"), v)

	now = now.Add(10 * time.Minute)
	_, ok, _ = m.Get(ctx, "posts")
	assert.False(t, ok)
}

func TestFetchLoadsOnce(t *testing.T) {
	m := NewMemory()
	calls := 0
	load := func() ([]byte, error) {
		calls++
		return []byte(`{"data":[]}`), nil
	}

	for i := 0; i < 3; i++ {
		v, err := Fetch(context.Background(), m, logging.Discard(), "k", time.Minute, load)
		require.NoError(t, err)
		assert.Equal(t, `{"data":[]}`, string(v))
	}
	assert.Equal(t, 1, calls)
}

func TestFetchDoesNotCacheErrors(t *testing.T) {
	m := NewMemory()
	calls := 0
	load := func() ([]byte, error) {
		calls++
		return nil, errors.New("backend down")
	}

	_, err := Fetch(context.Background(), m, logging.Discard(), "k", time.Minute, load)
	assert.Error(t, err)
	_, err = Fetch(context.Background(), m, logging.Discard(), "k", time.Minute, load)
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestNewFallsBackToMemory(t *testing.T) {
	c, closer := New(context.Background(), "", nil)
	assert.IsType(t, &Memory{}, c)
	assert.NoError(t, closer.Close())

	c, _ = New(context.Background(), "not-a-redis-url", logging.Discard())
	assert.IsType(t, &Memory{}, c)
}
