package lessonid

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guan-wang/guans-lala-land/internal/platform/logger"
)

var ts = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func TestMemorySuffixesCollisions(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	first, err := Next(ctx, m, ts)
	require.NoError(t, err)
	second, err := Next(ctx, m, ts)
	require.NoError(t, err)
	third, err := Next(ctx, m, ts)
	require.NoError(t, err)

	assert.Equal(t, "lesson_20250101_120000", first)
	assert.Equal(t, "lesson_20250101_120000_2", second)
	assert.Equal(t, "lesson_20250101_120000_3", third)
}

func TestMemoryConcurrentUnique(t *testing.T) {
	m := NewMemory()
	var mu sync.Mutex
	seen := map[string]bool{}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := Next(context.Background(), m, ts)
			require.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			assert.False(t, seen[id], id)
			seen[id] = true
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 20)
}

type fakeRedis struct {
	keys map[string]bool
	ttl  time.Duration
	err  error
}

func (f *fakeRedis) SetNX(_ context.Context, key string, _ interface{}, ttl time.Duration) *goredis.BoolCmd {
	f.ttl = ttl
	if f.err != nil {
		return goredis.NewBoolResult(false, f.err)
	}
	if f.keys[key] {
		return goredis.NewBoolResult(false, nil)
	}
	f.keys[key] = true
	return goredis.NewBoolResult(true, nil)
}

func TestRedisReserver(t *testing.T) {
	f := &fakeRedis{keys: map[string]bool{"p:lesson_20250101_120000": true}}
	r := NewRedis(logger.Nop(), f, "p:", 48*time.Hour)

	id, err := Next(context.Background(), r, ts)
	require.NoError(t, err)
	assert.Equal(t, "lesson_20250101_120000_2", id)
	assert.Equal(t, 48*time.Hour, f.ttl)
	assert.True(t, f.keys["p:lesson_20250101_120000_2"])
}

func TestRedisReserverError(t *testing.T) {
	r := NewRedis(logger.Nop(), &fakeRedis{err: errors.New("conn refused")}, "", time.Hour)
	_, err := Next(context.Background(), r, ts)
	require.ErrorContains(t, err, "conn refused")
}
