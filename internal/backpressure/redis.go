package backpressure

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisConfig configures a queue-depth backpressure probe, following the
// same option surface the teacher's Redis cache manager exposes.
type RedisConfig struct {
	Address     string
	Password    string
	DB          int
	DialTimeout time.Duration

	// QueueKey is a Redis list whose length is read as the queue depth.
	QueueKey string
	// SaturationDepth is the queue length considered fully saturated.
	SaturationDepth int64
}

func (c RedisConfig) withDefaults() RedisConfig {
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.SaturationDepth <= 0 {
		c.SaturationDepth = 1000
	}
	return c
}

// RedisQueueProvider reports backpressure as a consumer queue's depth
// relative to a configured saturation point. Useful when the system under
// test fans work out to a downstream queue whose depth is the real
// bottleneck signal, rather than CPU/memory on the load generator's own
// host.
type RedisQueueProvider struct {
	client *redis.Client
	cfg    RedisConfig
}

// NewRedisQueueProvider dials Redis eagerly and verifies connectivity.
func NewRedisQueueProvider(ctx context.Context, cfg RedisConfig) (*RedisQueueProvider, error) {
	cfg = cfg.withDefaults()
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Address,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, err
	}

	return &RedisQueueProvider{client: client, cfg: cfg}, nil
}

// Level reports QueueKey's length over SaturationDepth, clamped to [0,1].
// A Redis error degrades to 0, consistent with this provider being
// advisory input only.
func (p *RedisQueueProvider) Level() float64 {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.DialTimeout)
	defer cancel()
	depth, err := p.client.LLen(ctx, p.cfg.QueueKey).Result()
	if err != nil {
		return 0
	}
	return clamp01(float64(depth) / float64(p.cfg.SaturationDepth))
}

func (p *RedisQueueProvider) Description() string {
	return "redis_queue_depth:" + p.cfg.QueueKey
}

// Close releases the underlying Redis connection pool.
func (p *RedisQueueProvider) Close() error {
	return p.client.Close()
}
