package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDistributed is an in-memory Distributed with scriptable failures.
type fakeDistributed struct {
	mu      sync.Mutex
	data    map[string][]byte
	getErr  error
	setErr  error
	getSeen int
	setSeen int
}

func newFakeDistributed() *fakeDistributed {
	return &fakeDistributed{data: make(map[string][]byte)}
}

func (f *fakeDistributed) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getSeen++
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeDistributed) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setSeen++
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = val
	return nil
}

func newTestManager(d Distributed) *Manager {
	return NewManager(ManagerOptions{
		Distributed: d,
		Logger:      zerolog.Nop(),
	})
}

func TestManagerMemoryHit(t *testing.T) {
	m := newTestManager(nil)
	ctx := context.Background()

	m.Store(ctx, "k", testResult(7))
	got, ok := m.Lookup(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, 7.0, got.TotalCarbonKg)
	assert.True(t, got.Metadata.CacheHit)
}

func TestManagerMiss(t *testing.T) {
	m := newTestManager(nil)
	_, ok := m.Lookup(context.Background(), "absent")
	assert.False(t, ok)
}

func TestManagerDistributedPromotion(t *testing.T) {
	d := newFakeDistributed()
	ctx := context.Background()

	// Seed the distributed tier directly, bypassing memory.
	data, err := json.Marshal(testResult(9))
	require.NoError(t, err)
	require.NoError(t, d.Set(ctx, "k", data, time.Hour))
	d.setSeen = 0

	m := newTestManager(d)
	got, ok := m.Lookup(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, 9.0, got.TotalCarbonKg)
	assert.True(t, got.Metadata.CacheHit)

	// Second lookup is served from memory, not the distributed tier.
	before := d.getSeen
	_, ok = m.Lookup(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, before, d.getSeen)
}

func TestManagerStoreWritesBothTiers(t *testing.T) {
	d := newFakeDistributed()
	m := newTestManager(d)
	ctx := context.Background()

	m.Store(ctx, "k", testResult(3))
	assert.Equal(t, 1, d.setSeen)

	_, ok := d.data["k"]
	assert.True(t, ok)
}

func TestManagerDistributedErrorsDegrade(t *testing.T) {
	d := newFakeDistributed()
	d.getErr = errors.New("redis is on fire")
	d.setErr = errors.New("redis is on fire")
	m := newTestManager(d)
	ctx := context.Background()

	// Store and lookup both succeed against memory despite the failures.
	m.Store(ctx, "k", testResult(5))
	got, ok := m.Lookup(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, 5.0, got.TotalCarbonKg)
}

func TestFileStoreRoundTrip(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, ok, err := fs.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, fs.Set(ctx, "k", []byte(`{"total_carbon_kg":1}`), time.Hour))
	data, ok, err := fs.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"total_carbon_kg":1}`, string(data))
}

func TestFileStoreExpiry(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fs.Set(ctx, "k", []byte(`1`), time.Nanosecond))
	time.Sleep(5 * time.Millisecond)

	_, ok, err := fs.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStoreCleanupExpired(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, fs.Set(ctx, "old", []byte(`1`), time.Nanosecond))
	require.NoError(t, fs.Set(ctx, "fresh", []byte(`2`), time.Hour))
	time.Sleep(5 * time.Millisecond)

	require.NoError(t, fs.CleanupExpired())

	_, ok, err := fs.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, err = fs.Get(ctx, "old")
	require.NoError(t, err)
	assert.False(t, ok)
}
