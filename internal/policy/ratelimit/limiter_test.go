package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/dream-symbol-crawler/internal/metrics"
)

func TestLimiterWaitDelaysSameHost(t *testing.T) {
	metrics.Init()

	// 10 RPS = one token every 100ms; burst 1 means the first call is free.
	l := New(Config{HostRPS: 10, HostBurst: 1})
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://test.example/a"))

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://test.example/b"))
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestLimiterHostsAreIndependent(t *testing.T) {
	metrics.Init()

	l := New(Config{HostRPS: 1, HostBurst: 1})
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://one.example/"))
	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://two.example/"))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestLimiterHonorsContext(t *testing.T) {
	metrics.Init()

	l := New(Config{HostRPS: 0.1, HostBurst: 1})
	require.NoError(t, l.Wait(context.Background(), "https://slow.example/"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "https://slow.example/"))
}

func TestLimiterDisabled(t *testing.T) {
	l := New(Config{})
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Wait(context.Background(), "https://fast.example/"))
	}
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "example.com", hostOf("https://Example.com/x"))
	assert.Equal(t, "unknown", hostOf("::not a url"))
}
