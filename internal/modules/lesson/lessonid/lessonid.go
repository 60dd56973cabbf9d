package lessonid

import (
	"context"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/guan-wang/guans-lala-land/internal/domain/lesson"
	"github.com/guan-wang/guans-lala-land/internal/platform/logger"
)

// maxSuffix bounds collision probing for one timestamp.
const maxSuffix = 100

// Reserver claims lesson identifiers so no two runs share one.
type Reserver interface {
	// Reserve claims id and reports whether it was free.
	Reserve(ctx context.Context, id string) (bool, error)
}

// Next returns the first free identifier for t: the base id, then base_2, base_3, ...
func Next(ctx context.Context, r Reserver, t time.Time) (string, error) {
	base := lesson.FormatID(t)
	for n := 1; n <= maxSuffix; n++ {
		id := base
		if n > 1 {
			id = fmt.Sprintf("%s_%d", base, n)
		}
		ok, err := r.Reserve(ctx, id)
		if err != nil {
			return "", fmt.Errorf("reserve %s: %w", id, err)
		}
		if ok {
			return id, nil
		}
	}
	return "", fmt.Errorf("no free lesson id for %s after %d attempts", base, maxSuffix)
}

// Memory reserves ids in process memory.
type Memory struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{seen: map[string]struct{}{}}
}

func (m *Memory) Reserve(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.seen[id]; ok {
		return false, nil
	}
	m.seen[id] = struct{}{}
	return true, nil
}

type setNXer interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.BoolCmd
}

// Redis reserves ids with SET NX so concurrent processes never share one.
type Redis struct {
	log    *logger.Logger
	rdb    setNXer
	prefix string
	ttl    time.Duration
}

func NewRedis(log *logger.Logger, rdb setNXer, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "lessond:lesson_id:"
	}
	return &Redis{
		log:    log.With("service", "LessonIDReserver"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (r *Redis) Reserve(ctx context.Context, id string) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, r.prefix+id, time.Now().UTC().Format(time.RFC3339), r.ttl).Result()
	if err != nil {
		return false, err
	}
	if !ok {
		r.log.Debug("lesson id taken", "lesson_id", id)
	}
	return ok, nil
}
