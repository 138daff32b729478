package server

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsUnderLimit(t *testing.T) {
	rl := NewRateLimiter(5)
	defer rl.Stop()

	for i := 0; i < 5; i++ {
		assert.True(t, rl.CheckLimit("1.2.3.4"))
	}
}

func TestRateLimiterBlocksOverLimit(t *testing.T) {
	rl := NewRateLimiter(3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.CheckLimit("1.2.3.4"))
	}
	assert.False(t, rl.CheckLimit("1.2.3.4"))
}

func TestRateLimiterTracksIPsIndependently(t *testing.T) {
	rl := NewRateLimiter(1)
	defer rl.Stop()

	assert.True(t, rl.CheckLimit("1.1.1.1"))
	assert.False(t, rl.CheckLimit("1.1.1.1"))
	assert.True(t, rl.CheckLimit("2.2.2.2"))
}

func TestRateLimiterRetryAfter(t *testing.T) {
	rl := NewRateLimiter(1)
	defer rl.Stop()

	assert.Equal(t, 0, rl.GetRetryAfter("1.2.3.4"))

	rl.CheckLimit("1.2.3.4")
	retryAfter := rl.GetRetryAfter("1.2.3.4")
	assert.Greater(t, retryAfter, 0)
	assert.LessOrEqual(t, retryAfter, 60)
}

func TestRateLimiterCleanupRemovesIdleIPs(t *testing.T) {
	rl := NewRateLimiter(10)
	defer rl.Stop()

	rl.CheckLimit("1.2.3.4")

	rl.mu.Lock()
	rl.limits["1.2.3.4"].Requests = []int64{0} // far in the past
	rl.mu.Unlock()

	rl.cleanup()

	rl.mu.RLock()
	_, exists := rl.limits["1.2.3.4"]
	rl.mu.RUnlock()
	assert.False(t, exists)
}

func TestRateLimiterConcurrentAccess(t *testing.T) {
	rl := NewRateLimiter(1000)
	defer rl.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ip := fmt.Sprintf("10.0.0.%d", n)
			for j := 0; j < 50; j++ {
				rl.CheckLimit(ip)
			}
		}(i)
	}
	wg.Wait()
}

func TestRateLimiterStopIdempotent(t *testing.T) {
	rl := NewRateLimiter(5)
	rl.Stop()
	rl.Stop()
}
