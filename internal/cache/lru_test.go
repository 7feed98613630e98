package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freewebtopdf/propmerge/internal/domain"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(maxSize int, ttl time.Duration) (*LRU[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[string](maxSize, ttl)
	c.now = clock.now
	return c, clock
}

func TestNew(t *testing.T) {
	c := New[int](100, time.Minute)
	assert.Equal(t, 100, c.maxSize)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, c.tail, c.head.next)
	assert.Equal(t, c.head, c.tail.prev)
}

func TestNew_DefaultSize(t *testing.T) {
	c := New[int](0, 0)
	assert.Equal(t, DefaultMaxSize, c.maxSize)
}

func TestLRU_SetAndGet(t *testing.T) {
	c, _ := newTestCache(2, 0)

	_, found := c.Get("a")
	assert.False(t, found)

	c.Set("a", "first")
	value, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, "first", value)

	c.Set("a", "second")
	value, _ = c.Get("a")
	assert.Equal(t, "second", value)
	assert.Equal(t, 1, c.Len())
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, 0)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a")
	c.Set("c", "3")

	_, foundA := c.Get("a")
	_, foundB := c.Get("b")
	_, foundC := c.Get("c")
	assert.True(t, foundA)
	assert.False(t, foundB)
	assert.True(t, foundC)
}

func TestLRU_IdleExpiry(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)

	c.Set("a", "1")
	c.Set("b", "2")

	clock.advance(45 * time.Second)
	_, found := c.Get("a") // refreshes a
	require.True(t, found)

	clock.advance(30 * time.Second)
	_, found = c.Get("b")
	assert.False(t, found, "b idle for 75s")
	_, found = c.Get("a")
	assert.True(t, found, "a idle for 30s")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Expired)
	assert.Equal(t, 1, stats.Size)
}

func TestLRU_Sweep(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)

	c.Set("a", "1")
	clock.advance(40 * time.Second)
	c.Set("b", "2")
	clock.advance(40 * time.Second)

	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Len())
	_, found := c.Get("b")
	assert.True(t, found)
}

func TestLRU_SweepWithoutTTL(t *testing.T) {
	c, clock := newTestCache(10, 0)
	c.Set("a", "1")
	clock.advance(24 * time.Hour)

	assert.Equal(t, 0, c.Sweep())
	_, found := c.Get("a")
	assert.True(t, found)
}

func TestLRU_Invalidate(t *testing.T) {
	c, _ := newTestCache(10, 0)
	c.Set("a", "1")
	c.Invalidate("a")
	c.Invalidate("missing")

	_, found := c.Get("a")
	assert.False(t, found)
	assert.Equal(t, 0, c.Len())
}

func TestLRU_HealthCheck(t *testing.T) {
	c, _ := newTestCache(10, 0)
	assert.Equal(t, domain.HealthStatusHealthy, c.HealthCheck(context.Background()).Status)

	for i := 0; i < 9; i++ {
		c.Set(fmt.Sprintf("k%d", i), "v")
	}
	status := c.HealthCheck(context.Background())
	assert.Equal(t, domain.HealthStatusDegraded, status.Status)
	assert.Equal(t, 9, status.Details["size"])
}

func TestLRU_StartSweeper(t *testing.T) {
	c := New[string](10, time.Millisecond)
	c.Set("a", "1")

	stop := c.StartSweeper(5 * time.Millisecond)
	defer stop()

	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestProperty_SizeLimit(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("cache never exceeds maximum size", prop.ForAll(
		func(maxSize int, operations int) bool {
			c := New[int](maxSize, 0)
			for i := 0; i < operations; i++ {
				c.Set(fmt.Sprintf("key%d", i), i)
				if c.Len() > maxSize {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 100),
		gen.IntRange(0, 200),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_MostRecentSurvives(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("the last maxSize keys set are retrievable", prop.ForAll(
		func(maxSize int, operations int) bool {
			c := New[int](maxSize, 0)
			for i := 0; i < operations; i++ {
				c.Set(fmt.Sprintf("key%d", i), i)
			}
			start := operations - maxSize
			if start < 0 {
				start = 0
			}
			for i := start; i < operations; i++ {
				v, ok := c.Get(fmt.Sprintf("key%d", i))
				if !ok || v != i {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 20),
		gen.IntRange(0, 60),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
