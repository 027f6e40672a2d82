package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"signal_bridge/internal/models"
)

const redisKeyPrefix = "signals:latest:"

// RedisStore — слот "последний сигнал символа" в Redis.
// SET на ключ атомарен, этого достаточно для per-symbol гарантии.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr, password string, db int) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		PoolSize:     10,
		MinIdleConns: 2,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return &RedisStore{client: client}
}

func (r *RedisStore) Publish(ctx context.Context, sig *models.TradingSignal) error {
	if err := sig.Validate(); err != nil {
		return err
	}
	raw, err := sonic.Marshal(Entry{Signal: sig, PublishedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal queue entry: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+models.NormalizeSymbol(sig.Symbol), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisStore) FetchLatest(ctx context.Context, symbol string, maxAge time.Duration) (*models.TradingSignal, error) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+models.NormalizeSymbol(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return decodeEntry(raw, time.Now().UTC(), maxAge)
}

func (r *RedisStore) Close() error { return r.client.Close() }
