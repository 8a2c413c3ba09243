package politeness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterEnforcesMinimumInterval(t *testing.T) {
	l := NewLimiter(30 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://a.test/world/france"))
	require.NoError(t, l.Wait(ctx, "https://a.test/world/spain"))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed.Milliseconds(), int64(25))
}

func TestLimiterIsPerHost(t *testing.T) {
	l := NewLimiter(200 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://a.test/one"))

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://b.test/one"))
	elapsed := time.Since(start)

	assert.Less(t, elapsed.Milliseconds(), int64(100))
}

func TestLimiterZeroIntervalDisablesLimiting(t *testing.T) {
	l := NewLimiter(0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Wait(ctx, "https://a.test/one"))
	}
	assert.Less(t, time.Since(start).Milliseconds(), int64(20))
}

func TestLimiterRespectsContextCancellation(t *testing.T) {
	l := NewLimiter(time.Second)
	ctx := context.Background()
	require.NoError(t, l.Wait(ctx, "https://a.test/one"))

	cancelCtx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := l.Wait(cancelCtx, "https://a.test/one")
	assert.Error(t, err)
}
