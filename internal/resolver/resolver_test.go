package resolver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/shortlink/internal/domain"
	"github.com/MrSnakeDoc/shortlink/internal/fallback"
	"github.com/MrSnakeDoc/shortlink/internal/logger"
)

type fakeCache struct {
	mu      sync.Mutex
	data    map[string]domain.ShortLink
	getErr  error
	gets    int
	sets    []setCall
	onSet   func()
	dropSet bool
}

type setCall struct {
	id   string
	link domain.ShortLink
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]domain.ShortLink)}
}

func (c *fakeCache) Get(_ context.Context, id string) domain.Lookup {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gets++
	if c.getErr != nil {
		return domain.Absent(c.getErr)
	}
	link, ok := c.data[id]
	if !ok {
		return domain.Absent(nil)
	}
	return domain.Found(link)
}

func (c *fakeCache) Set(_ context.Context, id string, link domain.ShortLink) {
	if c.onSet != nil {
		c.onSet()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.sets = append(c.sets, setCall{id: id, link: link})
	if !c.dropSet {
		c.data[id] = link
	}
}

func (c *fakeCache) setCalls() []setCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]setCall(nil), c.sets...)
}

type fakeFallback struct {
	mu      sync.Mutex
	data    map[string]domain.ShortLink
	err     error
	calls   atomic.Int32
	release chan struct{}
}

func newFakeFallback() *fakeFallback {
	return &fakeFallback{data: make(map[string]domain.ShortLink)}
}

func (f *fakeFallback) Fetch(_ context.Context, id string) domain.Lookup {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return domain.Absent(f.err)
	}
	link, ok := f.data[id]
	if !ok {
		return domain.Absent(nil)
	}
	return domain.Found(link)
}

func sampleLink() domain.ShortLink {
	return domain.ShortLink{
		Slug:       "bella-pizza-sept-2025",
		Status:     domain.StatusActive,
		MerchantID: "mer_123",
		CampaignID: "cmp_456",
		UpdatedAt:  "2025-09-01T10:00:00Z",
	}
}

func TestResolve_CacheHitSkipsFallback(t *testing.T) {
	cache := newFakeCache()
	cache.data["key:hit"] = sampleLink()
	fb := newFakeFallback()
	fb.data["key:hit"] = domain.ShortLink{Slug: "different"}

	r := New(cache, fb, logger.NewNop(), Options{})
	got, ok := r.Resolve(context.Background(), "key:hit")

	require.True(t, ok)
	assert.Equal(t, sampleLink(), got)
	assert.Zero(t, fb.calls.Load())
	assert.Empty(t, cache.setCalls())
}

func TestResolve_MissFallsBackAndBackfillsOnce(t *testing.T) {
	cache := newFakeCache()
	fb := newFakeFallback()
	fb.data["key:miss"] = sampleLink()

	r := New(cache, fb, logger.NewNop(), Options{})
	got, ok := r.Resolve(context.Background(), "key:miss")

	require.True(t, ok)
	assert.Equal(t, sampleLink(), got)
	assert.EqualValues(t, 1, fb.calls.Load())
	assert.Equal(t, []setCall{{id: "key:miss", link: sampleLink()}}, cache.setCalls())

	// Second lookup is served from the cache.
	got, ok = r.Resolve(context.Background(), "key:miss")
	require.True(t, ok)
	assert.Equal(t, sampleLink(), got)
	assert.EqualValues(t, 1, fb.calls.Load())
	assert.Len(t, cache.setCalls(), 1)
}

func TestResolve_AbsentEverywhere(t *testing.T) {
	cache := newFakeCache()
	fb := newFakeFallback()

	r := New(cache, fb, logger.NewNop(), Options{})
	got, ok := r.Resolve(context.Background(), "key:none")

	assert.False(t, ok)
	assert.Equal(t, domain.ShortLink{}, got)
	assert.EqualValues(t, 1, fb.calls.Load())
	assert.Empty(t, cache.setCalls())
}

func TestResolve_NullFallbackBodyIsNotCached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("null"))
	}))
	defer srv.Close()

	cache := newFakeCache()
	r := New(cache, fallback.New(srv.URL, logger.NewNop()), logger.NewNop(), Options{})

	got, ok := r.Resolve(context.Background(), "ghost")

	assert.False(t, ok)
	assert.Equal(t, domain.ShortLink{}, got)
	assert.Empty(t, cache.setCalls())
}

func TestResolve_FallbackFaultIsAbsent(t *testing.T) {
	cache := newFakeCache()
	fb := newFakeFallback()
	fb.err = errors.New("fallback api returned non-success status: 404")

	r := New(cache, fb, logger.NewNop(), Options{})
	_, ok := r.Resolve(context.Background(), "key:404")

	assert.False(t, ok)
	assert.Empty(t, cache.setCalls())
}

func TestResolve_CacheFaultBehavesLikeMiss(t *testing.T) {
	cache := newFakeCache()
	cache.getErr = errors.New("redis: connection pool timeout")
	fb := newFakeFallback()
	fb.data["key:fault"] = sampleLink()

	r := New(cache, fb, logger.NewNop(), Options{})
	got, ok := r.Resolve(context.Background(), "key:fault")

	require.True(t, ok)
	assert.Equal(t, sampleLink(), got)
	assert.EqualValues(t, 1, fb.calls.Load())
	assert.Len(t, cache.setCalls(), 1)
}

func TestResolve_FailedBackfillDoesNotChangeResult(t *testing.T) {
	cache := newFakeCache()
	cache.dropSet = true
	fb := newFakeFallback()
	fb.data["key:miss"] = sampleLink()

	r := New(cache, fb, logger.NewNop(), Options{})

	for i := 0; i < 3; i++ {
		got, ok := r.Resolve(context.Background(), "key:miss")
		require.True(t, ok)
		assert.Equal(t, sampleLink(), got)
	}
	assert.EqualValues(t, 3, fb.calls.Load())
	assert.Len(t, cache.setCalls(), 3)
}

func TestResolve_ConcurrentMissesWithoutCoalescing(t *testing.T) {
	cache := newFakeCache()
	cache.dropSet = true
	fb := newFakeFallback()
	fb.data["hot"] = sampleLink()

	r := New(cache, fb, logger.NewNop(), Options{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := r.Resolve(context.Background(), "hot")
			assert.True(t, ok)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 8, fb.calls.Load())
}

func TestResolve_CoalescesConcurrentMisses(t *testing.T) {
	cache := newFakeCache()
	cache.dropSet = true
	fb := newFakeFallback()
	fb.data["hot"] = sampleLink()
	fb.release = make(chan struct{})

	r := New(cache, fb, logger.NewNop(), Options{Coalesce: true})

	const callers = 8
	var wg sync.WaitGroup
	var found atomic.Int32
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got, ok := r.Resolve(context.Background(), "hot"); ok && got == sampleLink() {
				found.Add(1)
			}
		}()
	}

	// Let every caller reach the shared fetch before releasing it.
	require.Eventually(t, func() bool {
		cache.mu.Lock()
		defer cache.mu.Unlock()
		return cache.gets == callers
	}, 2*time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(fb.release)
	wg.Wait()

	assert.EqualValues(t, callers, found.Load())
	assert.EqualValues(t, 1, fb.calls.Load())
	assert.Len(t, cache.setCalls(), 1)
}

func TestResolve_AsyncBackfill(t *testing.T) {
	cache := newFakeCache()
	unblock := make(chan struct{})
	cache.onSet = func() { <-unblock }
	fb := newFakeFallback()
	fb.data["key:miss"] = sampleLink()

	r := New(cache, fb, logger.NewNop(), Options{AsyncBackfill: true})

	ctx, cancel := context.WithCancel(context.Background())
	got, ok := r.Resolve(ctx, "key:miss")
	cancel()

	require.True(t, ok)
	assert.Equal(t, sampleLink(), got)
	assert.Empty(t, cache.setCalls(), "write-back should still be pending")

	close(unblock)
	r.Wait()

	assert.Equal(t, []setCall{{id: "key:miss", link: sampleLink()}}, cache.setCalls())
}
