package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/shaiso/taskgraph/internal/config"
	"github.com/shaiso/taskgraph/internal/domain"
)

// Store — общий интерфейс хранилищ runs.
type Store interface {
	Create(ctx context.Context, run *domain.Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error)
	Update(ctx context.Context, run *domain.Run) error
	List(ctx context.Context, filter RunFilter) ([]domain.Run, error)
}

var (
	_ Store = (*RunRepo)(nil)
	_ Store = (*RedisRunRepo)(nil)
	_ Store = (*MemoryRunRepo)(nil)
)

// Opened — открытое хранилище и ресурсы, которые нужно закрыть.
type Opened struct {
	Store Store

	// Pool — пул PostgreSQL, nil для других хранилищ.
	Pool *pgxpool.Pool

	closeFn func()
}

// Close освобождает соединения хранилища.
func (o *Opened) Close() {
	if o.closeFn != nil {
		o.closeFn()
	}
}

// Open открывает хранилище, выбранное в конфигурации.
//
// Для postgres применяет миграции, для redis проверяет соединение.
func Open(ctx context.Context, cfg *config.Config) (*Opened, error) {
	switch cfg.Store {
	case config.StorePostgres:
		pool, err := NewPool(ctx, cfg.DBURL)
		if err != nil {
			return nil, err
		}
		if err := Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &Opened{Store: NewRunRepo(pool), Pool: pool, closeFn: pool.Close}, nil

	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return &Opened{
			Store:   NewRedisRunRepo(client, cfg.Redis.TTL),
			closeFn: func() { _ = client.Close() },
		}, nil

	case config.StoreMemory, "":
		return &Opened{Store: NewMemoryRunRepo()}, nil

	default:
		return nil, fmt.Errorf("unsupported store: %s", cfg.Store)
	}
}
