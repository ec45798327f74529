package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/shaiso/taskgraph/internal/domain"
)

// Ключи Redis.
const (
	redisRunKeyPrefix = "taskgraph:run:"
	redisRunIndexKey  = "taskgraph:runs"
)

// RedisRunRepo — репозиторий runs в Redis.
//
// Run хранится JSON строкой с TTL, индекс — sorted set по created_at.
// Записи индекса, у которых истёк TTL, пропускаются и удаляются при List.
type RedisRunRepo struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRunRepo создаёт новый RedisRunRepo. ttl <= 0 — без TTL.
func NewRedisRunRepo(client *redis.Client, ttl time.Duration) *RedisRunRepo {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisRunRepo{client: client, ttl: ttl}
}

func redisRunKey(id uuid.UUID) string {
	return redisRunKeyPrefix + id.String()
}

// Create сохраняет новый run.
func (r *RedisRunRepo) Create(ctx context.Context, run *domain.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	ok, err := r.client.SetNX(ctx, redisRunKey(run.ID), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	if !ok {
		return ErrAlreadyExists
	}

	err = r.client.ZAdd(ctx, redisRunIndexKey, redis.Z{
		Score:  float64(run.CreatedAt.UnixNano()),
		Member: run.ID.String(),
	}).Err()
	if err != nil {
		return fmt.Errorf("index run: %w", err)
	}
	return nil
}

// GetByID возвращает run по ID.
func (r *RedisRunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	data, err := r.client.Get(ctx, redisRunKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	var run domain.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("unmarshal run: %w", err)
	}
	return &run, nil
}

// Update перезаписывает существующий run.
func (r *RedisRunRepo) Update(ctx context.Context, run *domain.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	ok, err := r.client.SetXX(ctx, redisRunKey(run.ID), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// List возвращает runs с фильтрацией, новые первыми.
func (r *RedisRunRepo) List(ctx context.Context, filter RunFilter) ([]domain.Run, error) {
	ids, err := r.client.ZRevRange(ctx, redisRunIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	runs := make([]domain.Run, 0)
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}

		run, err := r.GetByID(ctx, id)
		if errors.Is(err, ErrNotFound) {
			// TTL истёк, чистим индекс
			r.client.ZRem(ctx, redisRunIndexKey, raw)
			continue
		}
		if err != nil {
			return nil, err
		}

		if filter.matches(run) {
			runs = append(runs, *run)
		}
	}

	return filter.page(runs), nil
}
