package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroclima/crop-risk-etl/internal/domain"
)

// --- mock for cache tests ---

type countingDirectory struct {
	calls int
	info  domain.StationInfo
	err   error
}

func (m *countingDirectory) Lookup(_ context.Context, _ string) (domain.StationInfo, error) {
	m.calls++
	return m.info, m.err
}

// --- CachedDirectory tests ---

func TestCachedDirectory_CacheHit(t *testing.T) {
	inner := &countingDirectory{info: domain.StationInfo{Name: "Campinas", Region: "SP"}}
	cached := NewCachedDirectory(inner, 10, testMetrics())

	r1, err := cached.Lookup(context.Background(), "INMET-A701")
	require.NoError(t, err)
	assert.Equal(t, "Campinas", r1.Name)

	r2, err := cached.Lookup(context.Background(), "INMET-A701")
	require.NoError(t, err)
	assert.Equal(t, "Campinas", r2.Name)

	assert.Equal(t, 1, inner.calls, "should only call inner once")
}

func TestCachedDirectory_DifferentKeysMiss(t *testing.T) {
	inner := &countingDirectory{info: domain.StationInfo{Name: "X"}}
	cached := NewCachedDirectory(inner, 10, testMetrics())

	_, _ = cached.Lookup(context.Background(), "INMET-A701")
	_, _ = cached.Lookup(context.Background(), "INMET-A702")

	assert.Equal(t, 2, inner.calls)
}

func TestCachedDirectory_ErrorsAreNotCached(t *testing.T) {
	inner := &countingDirectory{err: errors.New("registry unavailable")}
	cached := NewCachedDirectory(inner, 10, testMetrics())

	_, err := cached.Lookup(context.Background(), "INMET-A701")
	require.Error(t, err)
	_, err = cached.Lookup(context.Background(), "INMET-A701")
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls, "failures should be retried, not cached")
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put("a", domain.StationInfo{Name: "A"})
	c.put("b", domain.StationInfo{Name: "B"})

	info, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", info.Name)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.StationInfo{Name: "A"})
	c.put("b", domain.StationInfo{Name: "B"})
	c.put("c", domain.StationInfo{Name: "C"}) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	info, ok := c.get("b")
	assert.True(t, ok)
	assert.Equal(t, "B", info.Name)

	info, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, "C", info.Name)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.StationInfo{Name: "A"})
	c.put("b", domain.StationInfo{Name: "B"})

	// Access "a" to promote it
	c.get("a")

	// Insert "c", which should evict "b" (LRU), not "a"
	c.put("c", domain.StationInfo{Name: "C"})

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.StationInfo{Name: "A1"})
	c.put("a", domain.StationInfo{Name: "A2"})

	info, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A2", info.Name)
}
