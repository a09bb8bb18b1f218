package listcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rochacaio/pokemon-backend/internal/model"
)

func filter(t *testing.T, f model.ListFilter) model.ListFilter {
	t.Helper()
	n, err := f.Normalize()
	require.NoError(t, err)
	return n
}

func page(names ...string) *model.Page {
	items := make([]*model.Pokemon, 0, len(names))
	for i, n := range names {
		items = append(items, &model.Pokemon{ID: i + 1, Name: n})
	}
	f, _ := model.ListFilter{}.Normalize()
	return model.NewPage(items, len(items), f)
}

func TestCache_PutGet(t *testing.T) {
	c := New(16, time.Minute, zerolog.Nop())
	f := filter(t, model.ListFilter{Type: "fire"})

	_, ok := c.Get(f)
	assert.False(t, ok)

	c.Put(f, page("charmander"))
	got, ok := c.Get(f)
	require.True(t, ok)
	assert.Equal(t, "charmander", got.Data[0].Name)
}

func TestCache_EquivalentFiltersShareEntry(t *testing.T) {
	c := New(16, time.Minute, zerolog.Nop())
	c.Put(filter(t, model.ListFilter{Type: "Fire", SortOrder: "ASC"}), page("charmander"))

	_, ok := c.Get(filter(t, model.ListFilter{Type: "fire", Page: 1, Limit: 10, SortBy: "name"}))
	assert.True(t, ok)
}

func TestCache_TTLExpiration(t *testing.T) {
	c := New(16, 50*time.Millisecond, zerolog.Nop())
	f := filter(t, model.ListFilter{})
	c.Put(f, page("pikachu"))

	_, ok := c.Get(f)
	require.True(t, ok)

	time.Sleep(100 * time.Millisecond)

	_, ok = c.Get(f)
	assert.False(t, ok, "expired entry should be treated as absent")
}

func TestCache_InvalidateAll(t *testing.T) {
	c := New(16, time.Minute, zerolog.Nop())
	a := filter(t, model.ListFilter{Type: "fire"})
	b := filter(t, model.ListFilter{Type: "water"})
	c.Put(a, page("charmander"))
	c.Put(b, page("squirtle"))

	c.InvalidateAll()

	_, okA := c.Get(a)
	_, okB := c.Get(b)
	assert.False(t, okA)
	assert.False(t, okB)
	assert.Equal(t, 0, c.Len())
}

func TestCache_CapacityBound(t *testing.T) {
	c := New(2, time.Minute, zerolog.Nop())
	for i := 1; i <= 5; i++ {
		c.Put(filter(t, model.ListFilter{Page: i}), page("x"))
	}
	assert.Equal(t, 2, c.Len())
}

func TestCache_GetOrLoadLoadsOnce(t *testing.T) {
	c := New(16, time.Minute, zerolog.Nop())
	f := filter(t, model.ListFilter{})
	var calls atomic.Int32
	load := func(context.Context) (*model.Page, error) {
		calls.Add(1)
		return page("bulbasaur"), nil
	}

	for i := 0; i < 3; i++ {
		p, err := c.GetOrLoad(context.Background(), f, load)
		require.NoError(t, err)
		assert.Equal(t, "bulbasaur", p.Data[0].Name)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestCache_GetOrLoadCollapsesConcurrentMisses(t *testing.T) {
	c := New(16, time.Minute, zerolog.Nop())
	f := filter(t, model.ListFilter{})
	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (*model.Page, error) {
		calls.Add(1)
		<-release
		return page("eevee"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.GetOrLoad(context.Background(), f, load)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestCache_GetOrLoadSurvivesFirstCallerCancel(t *testing.T) {
	c := New(16, time.Minute, zerolog.Nop())
	f := filter(t, model.ListFilter{})
	started := make(chan struct{})
	release := make(chan struct{})
	load := func(ctx context.Context) (*model.Page, error) {
		close(started)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-release:
			return page("snorlax"), nil
		}
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.GetOrLoad(firstCtx, f, load)
		firstErr <- err
	}()
	<-started

	type result struct {
		p   *model.Page
		err error
	}
	second := make(chan result, 1)
	go func() {
		p, err := c.GetOrLoad(context.Background(), f, load)
		second <- result{p, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, "snorlax", res.p.Data[0].Name)

	_, ok := c.Get(f)
	assert.True(t, ok)
}

func TestCache_GetOrLoadErrorNotCached(t *testing.T) {
	c := New(16, time.Minute, zerolog.Nop())
	f := filter(t, model.ListFilter{})
	boom := errors.New("boom")

	_, err := c.GetOrLoad(context.Background(), f, func(context.Context) (*model.Page, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestCache_LoadOverlappingInvalidationIsNotStored(t *testing.T) {
	c := New(16, time.Minute, zerolog.Nop())
	f := filter(t, model.ListFilter{})

	p, err := c.GetOrLoad(context.Background(), f, func(context.Context) (*model.Page, error) {
		c.InvalidateAll()
		return page("stale"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "stale", p.Data[0].Name)

	_, ok := c.Get(f)
	assert.False(t, ok)
}
