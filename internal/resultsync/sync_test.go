package resultsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecotally/ecotally/internal/lca"
)

type fakeResultStore struct {
	mu      sync.Mutex
	written []lca.ResultSummary
	err     error
}

func (f *fakeResultStore) WriteResult(_ context.Context, _ string, summary lca.ResultSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, summary)
	return nil
}

func (f *fakeResultStore) all() []lca.ResultSummary {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]lca.ResultSummary(nil), f.written...)
}

func sampleResult() *lca.CalculationResult {
	return &lca.CalculationResult{
		TotalCarbonKg: 268,
		Metadata: lca.ResultMetadata{
			Method:        lca.MethodSimple,
			FactorVersion: "DEFRA_2024",
		},
	}
}

func TestWritePersistsSummary(t *testing.T) {
	store := &fakeResultStore{}
	s := New(store, 0, zerolog.Nop(), nil)

	s.Write("whisky-750ml", sampleResult())
	s.Flush()

	got := store.all()
	require.Len(t, got, 1)
	assert.Equal(t, "whisky-750ml", got[0].ProductID)
	assert.Equal(t, 268.0, got[0].TotalCarbonKg)
	assert.Equal(t, lca.MethodSimple, got[0].Method)
}

func TestWriteFailureIsSwallowed(t *testing.T) {
	store := &fakeResultStore{err: errors.New("db locked")}
	s := New(store, 0, zerolog.Nop(), nil)

	// Must not panic or surface the error anywhere.
	s.Write("whisky-750ml", sampleResult())
	s.Flush()
	assert.Empty(t, store.all())
}

// gatedResultStore blocks every write until released and tracks the peak
// number of concurrent writers.
type gatedResultStore struct {
	mu      sync.Mutex
	inner   fakeResultStore
	release chan struct{}
	current int
	peak    int
}

func (g *gatedResultStore) WriteResult(ctx context.Context, productID string, summary lca.ResultSummary) error {
	g.mu.Lock()
	g.current++
	if g.current > g.peak {
		g.peak = g.current
	}
	g.mu.Unlock()

	<-g.release

	g.mu.Lock()
	g.current--
	g.mu.Unlock()
	return g.inner.WriteResult(ctx, productID, summary)
}

func TestWriteBoundsConcurrentStoreWriters(t *testing.T) {
	store := &gatedResultStore{release: make(chan struct{})}
	s := New(store, 0, zerolog.Nop(), nil)

	const writes = 16
	for i := 0; i < writes; i++ {
		s.Write("whisky-750ml", sampleResult())
	}

	// Let the writers reach the store, then drain.
	time.Sleep(50 * time.Millisecond)
	close(store.release)
	s.Flush()

	store.mu.Lock()
	peak := store.peak
	store.mu.Unlock()
	assert.LessOrEqual(t, peak, maxConcurrentWrites)
	assert.Len(t, store.inner.all(), writes)
}

func TestWriteSkipsDegenerateCalls(t *testing.T) {
	store := &fakeResultStore{}
	s := New(store, 0, zerolog.Nop(), nil)

	s.Write("", sampleResult())
	s.Write("p1", nil)
	s.Flush()
	assert.Empty(t, store.all())

	nilStore := New(nil, 0, zerolog.Nop(), nil)
	nilStore.Write("p1", sampleResult())
	nilStore.Flush()
}
