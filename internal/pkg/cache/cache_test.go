package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.values[key]
	if !ok {
		return "", ErrMiss
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	m.values[key] = value
	m.ttls[key] = ttl
	return nil
}

func TestRememberIntLoadsOnMissAndCaches(t *testing.T) {
	store := newMemoryStore()
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return 4, nil
	}

	v, err := RememberInt(context.Background(), store, "dashboard:U1:APPROVER_PENDING", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 4, v)

	v, err = RememberInt(context.Background(), store, "dashboard:U1:APPROVER_PENDING", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 4, v)
	assert.Equal(t, 1, calls)
	assert.Equal(t, time.Minute, store.ttls["dashboard:U1:APPROVER_PENDING"])
}

func TestRememberIntFallsThroughOnStoreError(t *testing.T) {
	store := newMemoryStore()
	store.getErr = errors.New("connection refused")

	v, err := RememberInt(context.Background(), store, "k", time.Minute, func(context.Context) (int, error) { return 9, nil })
	require.NoError(t, err)
	assert.Equal(t, 9, v)
}

func TestRememberIntPropagatesLoadError(t *testing.T) {
	store := newMemoryStore()
	boom := errors.New("fyle down")

	_, err := RememberInt(context.Background(), store, "k", time.Minute, func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, store.values)
}
