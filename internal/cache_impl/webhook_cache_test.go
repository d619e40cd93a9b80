package cache_impl

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/logger"
)

func TestSeen(t *testing.T) {
	cache := NewLRU(10, time.Minute, logger.NewDiscard())

	require.False(t, cache.Seen("wh-1"))
	require.False(t, cache.Seen("wh-1"))

	cache.Mark("wh-1")
	require.True(t, cache.Seen("wh-1"))
	require.False(t, cache.Seen("wh-2"))

	cache.Mark("")
	require.False(t, cache.Seen(""))
}

func TestSeenExpires(t *testing.T) {
	cache := NewLRU(10, 50*time.Millisecond, logger.NewDiscard())

	cache.Mark("wh-1")
	require.True(t, cache.Seen("wh-1"))
	require.Eventually(t, func() bool {
		return !cache.Seen("wh-1")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMarkEvictsOldest(t *testing.T) {
	cache := NewLRU(2, time.Minute, logger.NewDiscard())

	for i := 0; i < 3; i++ {
		cache.Mark(fmt.Sprintf("wh-%d", i))
	}

	require.False(t, cache.Seen("wh-0"))
	require.True(t, cache.Seen("wh-1"))
	require.True(t, cache.Seen("wh-2"))
}
