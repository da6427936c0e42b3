package guard

import (
	"context"
	"fmt"
	"time"

	"inferno-tracker-bot/model"

	"github.com/redis/go-redis/v9"
)

// Guard decides whether a clock job may run for a given civil day. It keeps
// replicas sharing one group chat from sending the same nightly messages twice.
type Guard interface {
	Acquire(ctx context.Context, job string, day model.Date) (bool, error)
}

type always struct{}

// Always grants every run. It is used when no Redis is configured.
func Always() Guard { return always{} }

func (always) Acquire(context.Context, string, model.Date) (bool, error) { return true, nil }

const (
	keyPrefix = "tracker:job:"
	keyTTL    = 36 * time.Hour
)

type Redis struct {
	client *redis.Client
}

func NewRedis(url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	opts.DialTimeout = 3 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second
	return &Redis{client: redis.NewClient(opts)}, nil
}

// Acquire claims job for day. The first caller gets true; later callers get
// false until the key expires.
func (g *Redis) Acquire(ctx context.Context, job string, day model.Date) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	ok, err := g.client.SetNX(ctx, key(job, day), time.Now().UTC().Format(time.RFC3339), keyTTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (g *Redis) Close() error {
	return g.client.Close()
}

func key(job string, day model.Date) string {
	return keyPrefix + job + ":" + day.String()
}
