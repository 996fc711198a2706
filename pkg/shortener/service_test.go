package shortener

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"url-shortener/pkg/cache"
	"url-shortener/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGenerator returns codes from a fixed sequence, then falls back to
// the last one. Lets tests force collisions deterministically.
type scriptedGenerator struct {
	codes []string
	next  int
}

func (g *scriptedGenerator) Generate() string {
	if g.next < len(g.codes) {
		code := g.codes[g.next]
		g.next++
		return code
	}
	return g.codes[len(g.codes)-1]
}

type recordingCache struct {
	mu      sync.Mutex
	entries map[string]*cache.CachedMapping
	deletes []string
}

func newRecordingCache() *recordingCache {
	return &recordingCache{entries: make(map[string]*cache.CachedMapping)}
}

func (c *recordingCache) Get(ctx context.Context, code string) (*cache.CachedMapping, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[code], nil
}

func (c *recordingCache) Set(ctx context.Context, code string, m *cache.CachedMapping, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[code] = m
	return nil
}

func (c *recordingCache) Delete(ctx context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, code)
	c.deletes = append(c.deletes, code)
	return nil
}

func newTestService() (*Service, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	return NewService(store, nil, NewGenerator(DefaultCodeLength), nil), store
}

func TestCreateGeneratedCode(t *testing.T) {
	svc, _ := newTestService()

	m, err := svc.Create(context.Background(), "https://example.com/page", "")
	require.NoError(t, err)

	assert.Len(t, m.Code, DefaultCodeLength)
	assert.Equal(t, "https://example.com/page", m.OriginalURL)
	assert.Equal(t, int64(0), m.Visits)
	assert.True(t, m.IsActive)
	assert.False(t, m.CreatedAt.IsZero())
}

func TestCreateEmptyURL(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrInvalidURL)

	_, err = svc.Create(context.Background(), "   ", "custom1")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestCreateCustomCode(t *testing.T) {
	svc, _ := newTestService()

	m, err := svc.Create(context.Background(), "https://example.com", "myLink1")
	require.NoError(t, err)
	assert.Equal(t, "myLink1", m.Code)
}

func TestCreateCustomCodeConflict(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), "https://example.com/u", "abc")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "https://example.com/v", "abc")
	assert.ErrorIs(t, err, storage.ErrCodeTaken)
}

func TestCreateCustomCodeValidation(t *testing.T) {
	svc, _ := newTestService()

	tests := []struct {
		name string
		code string
		ok   bool
	}{
		{"alphanumeric", "Abc123", true},
		{"single char", "a", true},
		{"max length", strings.Repeat("x", 255), true},
		{"too long", strings.Repeat("x", 256), false},
		{"hyphen", "my-link", false},
		{"slash", "a/b", false},
		{"space", "a b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "https://example.com", tt.code)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidCode)
			}
		})
	}
}

func TestCreateRetriesOnCollision(t *testing.T) {
	store := storage.NewMemoryStore()
	_, err := store.Insert(context.Background(), "taken1", "https://example.com/old")
	require.NoError(t, err)

	gen := &scriptedGenerator{codes: []string{"taken1", "taken1", "fresh1"}}
	svc := NewService(store, nil, gen, nil)

	m, err := svc.Create(context.Background(), "https://example.com/new", "")
	require.NoError(t, err)
	assert.Equal(t, "fresh1", m.Code)
}

func TestCreateExhaustsRetries(t *testing.T) {
	store := storage.NewMemoryStore()
	_, err := store.Insert(context.Background(), "stuck1", "https://example.com/old")
	require.NoError(t, err)

	gen := &scriptedGenerator{codes: []string{"stuck1"}}
	svc := NewService(store, nil, gen, nil)

	_, err = svc.Create(context.Background(), "https://example.com/new", "")
	assert.ErrorIs(t, err, ErrCodeSpaceExhausted)
}

func TestRedirectRoundTrip(t *testing.T) {
	svc, store := newTestService()

	m, err := svc.Create(context.Background(), "https://example.com/target", "")
	require.NoError(t, err)

	got, err := svc.Redirect(context.Background(), m.Code)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/target", got)

	// The visit must be persisted before Redirect returns.
	stored, err := store.FindActive(context.Background(), m.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Visits)
}

func TestRedirectUnknownCode(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Redirect(context.Background(), "nosuch")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRedirectConcurrentCountsEveryVisit(t *testing.T) {
	svc, store := newTestService()

	m, err := svc.Create(context.Background(), "https://example.com", "hot1")
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Redirect(context.Background(), m.Code)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := store.FindActive(context.Background(), m.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(n), stored.Visits)
}

func TestDeactivateIsTerminal(t *testing.T) {
	svc, _ := newTestService()

	m, err := svc.Create(context.Background(), "https://example.com", "gone1")
	require.NoError(t, err)

	_, err = svc.Redirect(context.Background(), m.Code)
	require.NoError(t, err)

	deactivated, err := svc.Deactivate(context.Background(), m.Code)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)
	assert.Equal(t, int64(1), deactivated.Visits)

	// Deactivated codes look exactly like unknown ones to visitors.
	_, err = svc.Redirect(context.Background(), m.Code)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// ...but they still count in the statistics.
	stats, err := svc.Stats(context.Background(), 0, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalURLs)
	assert.Equal(t, int64(1), stats.TotalVisits)
}

func TestDeactivateRepeatIsNoop(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), "https://example.com", "twice1")
	require.NoError(t, err)

	_, err = svc.Deactivate(context.Background(), "twice1")
	require.NoError(t, err)

	m, err := svc.Deactivate(context.Background(), "twice1")
	require.NoError(t, err)
	assert.False(t, m.IsActive)
}

func TestDeactivateUnknownCode(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Deactivate(context.Background(), "nosuch")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeactivatedCodeStaysTaken(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), "https://example.com/a", "keep1")
	require.NoError(t, err)
	_, err = svc.Deactivate(context.Background(), "keep1")
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "https://example.com/b", "keep1")
	assert.ErrorIs(t, err, storage.ErrCodeTaken)
}

func TestStatsTotals(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	a, err := svc.Create(ctx, "https://example.com/a", "")
	require.NoError(t, err)
	b, err := svc.Create(ctx, "https://example.com/b", "")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = svc.Redirect(ctx, a.Code)
		require.NoError(t, err)
	}
	_, err = svc.Redirect(ctx, b.Code)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalURLs)
	assert.Equal(t, int64(4), stats.TotalVisits)

	var sum int64
	for _, m := range stats.URLs {
		sum += m.Visits
	}
	assert.Equal(t, stats.TotalVisits, sum)
}

func TestStatsPagination(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, "https://example.com/page", "")
		require.NoError(t, err)
	}

	stats, err := svc.Stats(ctx, 0, 2)
	require.NoError(t, err)
	assert.Len(t, stats.URLs, 2)
	assert.Equal(t, int64(5), stats.TotalURLs)

	stats, err = svc.Stats(ctx, 4, 2)
	require.NoError(t, err)
	assert.Len(t, stats.URLs, 1)

	stats, err = svc.Stats(ctx, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, stats.URLs)
	assert.Equal(t, int64(5), stats.TotalURLs)

	// Negative skip and zero limit fall back to defaults.
	stats, err = svc.Stats(ctx, -1, 0)
	require.NoError(t, err)
	assert.Len(t, stats.URLs, 5)
}

func TestStatsNewestFirst(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, "https://example.com/1", "one111")
	require.NoError(t, err)
	second, err := svc.Create(ctx, "https://example.com/2", "two222")
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, stats.URLs, 2)
	assert.Equal(t, second.Code, stats.URLs[0].Code)
	assert.Equal(t, first.Code, stats.URLs[1].Code)
}

func TestRedirectUsesCache(t *testing.T) {
	store := storage.NewMemoryStore()
	c := newRecordingCache()
	svc := NewService(store, c, NewGenerator(DefaultCodeLength), nil)
	ctx := context.Background()

	m, err := svc.Create(ctx, "https://example.com/cached", "warm11")
	require.NoError(t, err)

	// Create pre-warms the cache.
	cached, err := c.Get(ctx, m.Code)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "https://example.com/cached", cached.OriginalURL)

	got, err := svc.Redirect(ctx, m.Code)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/cached", got)

	// Cache hits still persist the visit.
	stored, err := store.FindActive(ctx, m.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Visits)
}

func TestRedirectStaleCacheEntry(t *testing.T) {
	store := storage.NewMemoryStore()
	c := newRecordingCache()
	svc := NewService(store, c, NewGenerator(DefaultCodeLength), nil)
	ctx := context.Background()

	m, err := svc.Create(ctx, "https://example.com/stale", "stale1")
	require.NoError(t, err)

	// Deactivate behind the service's back, leaving the cache entry in place.
	_, err = store.Deactivate(ctx, m.Code)
	require.NoError(t, err)

	_, err = svc.Redirect(ctx, m.Code)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Contains(t, c.deletes, m.Code)

	// No visit may be recorded against an inactive mapping.
	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, int64(0), all[0].Visits)
}

func TestDeactivateInvalidatesCache(t *testing.T) {
	store := storage.NewMemoryStore()
	c := newRecordingCache()
	svc := NewService(store, c, NewGenerator(DefaultCodeLength), nil)
	ctx := context.Background()

	m, err := svc.Create(ctx, "https://example.com", "evict1")
	require.NoError(t, err)

	_, err = svc.Deactivate(ctx, m.Code)
	require.NoError(t, err)
	assert.Contains(t, c.deletes, m.Code)
}
