package dedupe

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheMarkAndSeen(t *testing.T) {
	cache := NewCache(10, time.Hour)

	require.False(t, cache.Seen("a"))
	cache.Mark("a")
	require.True(t, cache.Seen("a"))
	require.False(t, cache.Seen("b"))
}

func TestCacheEvictsPastCapacity(t *testing.T) {
	cache := NewCache(3, time.Hour)

	for i := 0; i < 5; i++ {
		cache.Mark(fmt.Sprintf("id-%d", i))
	}

	require.False(t, cache.Seen("id-0"))
	require.False(t, cache.Seen("id-1"))
	require.True(t, cache.Seen("id-2"))
	require.True(t, cache.Seen("id-4"))
}

func TestCacheExpiresByTTL(t *testing.T) {
	cache := NewCache(10, 10*time.Millisecond)

	cache.Mark("a")
	require.True(t, cache.Seen("a"))

	time.Sleep(20 * time.Millisecond)
	require.False(t, cache.Seen("a"))
}

func TestCacheRemarkRefreshes(t *testing.T) {
	cache := NewCache(10, time.Hour)

	cache.Mark("a")
	cache.Mark("a")
	require.True(t, cache.Seen("a"))
}

func TestNewCacheClampsArguments(t *testing.T) {
	cache := NewCache(0, 0)
	cache.Mark("a")
	require.True(t, cache.Seen("a"))
}
