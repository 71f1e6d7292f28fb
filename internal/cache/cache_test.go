package cache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/shopsearch/internal/cache"
	"github.com/jonesrussell/shopsearch/internal/domain"
	"github.com/jonesrussell/shopsearch/internal/logger"
)

const testURL = "https://example.com/item"

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func testMeta() domain.Metadata {
	return domain.Metadata{
		Title: "Ceramic Mug",
		Price: domain.Price{Amount: 19.99, Currency: domain.USD},
		URL:   testURL,
	}
}

func TestGet_ImmediatelyAfterPut(t *testing.T) {
	t.Parallel()

	c := cache.New(logger.NewNoOp())
	c.Put(testURL, testMeta())

	got, ok := c.Get(testURL)
	require.True(t, ok)
	assert.Equal(t, testMeta(), got)
}

func TestGet_ExpiredEntryMisses(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := cache.New(logger.NewNoOp(), cache.WithClock(clock.Now))

	c.Put(testURL, testMeta())

	clock.Advance(5*time.Minute + time.Second)

	_, ok := c.Get(testURL)
	assert.False(t, ok, "expired entry must read as a miss")

	// Expired entries are only physically removed by the sweep.
	assert.Equal(t, 1, c.Len())
}

func TestSweep_RemovesOnlyExpired(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := cache.New(logger.NewNoOp(), cache.WithClock(clock.Now), cache.WithTTL(time.Minute))

	c.Put("https://example.com/old", testMeta())
	clock.Advance(45 * time.Second)
	c.Put("https://example.com/new", testMeta())
	clock.Advance(30 * time.Second)

	evicted := c.Sweep()
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get("https://example.com/new")
	assert.True(t, ok)
}

func TestPut_ExactKeyNoNormalization(t *testing.T) {
	t.Parallel()

	c := cache.New(logger.NewNoOp())
	c.Put("https://Example.com/Item/", testMeta())

	_, ok := c.Get("https://example.com/item")
	assert.False(t, ok, "cache keys are exact URL strings, not normalized")
}

func TestPut_LastWriteWins(t *testing.T) {
	t.Parallel()

	c := cache.New(logger.NewNoOp())

	first := testMeta()
	second := testMeta()
	second.Title = "Updated Mug"

	c.Put(testURL, first)
	c.Put(testURL, second)

	got, ok := c.Get(testURL)
	require.True(t, ok)
	assert.Equal(t, "Updated Mug", got.Title)
}

func TestStartStop(t *testing.T) {
	t.Parallel()

	c := cache.New(logger.NewNoOp())
	require.NoError(t, c.Start())
	require.NoError(t, c.Start(), "Start is idempotent")
	c.Stop()
	c.Stop()
}
