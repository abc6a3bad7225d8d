package admission

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

// ErrLimitReached is returned when a client already holds its maximum number of streams
var ErrLimitReached = errors.New("concurrent stream limit reached")

const (
	keyPrefix      = "sitegen:streams:"
	defaultSlotTTL = 10 * time.Minute
	releaseTimeout = 2 * time.Second
)

// Gate caps how many streams one client key may hold open at once
type Gate interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// NewGate picks the gate matching the configuration: redis when a client is
// available, in-memory otherwise, and no limit when max is 0
func NewGate(client *redis.Client, maxStreams int, slotTTL time.Duration) Gate {
	if maxStreams <= 0 {
		return NoopGate{}
	}
	if client != nil {
		return NewRedisGate(client, maxStreams, slotTTL)
	}
	return NewMemoryGate(maxStreams)
}

// NoopGate admits every stream
type NoopGate struct{}

func (NoopGate) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}

// MemoryGate counts held slots in process
type MemoryGate struct {
	mu     sync.Mutex
	max    int
	counts map[string]int
}

// NewMemoryGate creates an in-process gate
func NewMemoryGate(maxStreams int) *MemoryGate {
	return &MemoryGate{
		max:    maxStreams,
		counts: make(map[string]int),
	}
}

func (g *MemoryGate) Acquire(_ context.Context, key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.counts[key] >= g.max {
		return nil, fmt.Errorf("%s: %w", key, ErrLimitReached)
	}
	g.counts[key]++

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			g.counts[key]--
			if g.counts[key] <= 0 {
				delete(g.counts, key)
			}
		})
	}, nil
}

// Held returns how many slots key currently holds
func (g *MemoryGate) Held(key string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counts[key]
}

// RedisGate shares slot counts between instances through redis counters.
// Counters carry a TTL so a lost release cannot pin a slot forever.
type RedisGate struct {
	client  *redis.Client
	max     int
	slotTTL time.Duration
}

// NewRedisGate creates a redis backed gate
func NewRedisGate(client *redis.Client, maxStreams int, slotTTL time.Duration) *RedisGate {
	if slotTTL <= 0 {
		slotTTL = defaultSlotTTL
	}
	return &RedisGate{
		client:  client,
		max:     maxStreams,
		slotTTL: slotTTL,
	}
}

func (g *RedisGate) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key

	var incr *redis.IntCmd
	_, err := g.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.PExpire(ctx, redisKey, g.slotTTL)
		return nil
	})
	if err != nil {
		// Redis unavailable: admit without holding a slot
		fiberlog.Warnf("Stream slot check for %s skipped: %v", key, err)
		return func() {}, nil
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := g.client.Decr(releaseCtx, redisKey).Err(); err != nil {
			fiberlog.Warnf("Failed to release stream slot for %s: %v", key, err)
		}
	}

	if incr.Val() > int64(g.max) {
		release()
		return nil, fmt.Errorf("%s: %w", key, ErrLimitReached)
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}
