package company

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Source откуда берутся реквизиты при промахе кэша
type Source interface {
	GetByWorkspace(ctx context.Context, workspaceID string) (*Profile, error)
}

// Cached кэширует реквизиты компании в Redis.
// Отсутствующие реквизиты не кэшируются: их могут заполнить в любой момент.
// Недоступный Redis не ломает чтение: идём напрямую в источник.
type Cached struct {
	src Source
	rdb *redis.Client
	ttl time.Duration
}

func NewCached(src Source, rdb *redis.Client, ttl time.Duration) *Cached {
	return &Cached{src: src, rdb: rdb, ttl: ttl}
}

func CacheKey(workspaceID string) string {
	return "company:" + workspaceID
}

func (c *Cached) GetByWorkspace(ctx context.Context, workspaceID string) (*Profile, error) {
	key := CacheKey(workspaceID)

	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var p Profile
		if err := json.Unmarshal(raw, &p); err == nil {
			return &p, nil
		}
	}

	p, err := c.src.GetByWorkspace(ctx, workspaceID)
	if err != nil || p == nil {
		return p, err
	}

	if data, err := json.Marshal(p); err == nil {
		_ = c.rdb.Set(ctx, key, data, c.ttl).Err()
	}
	return p, nil
}
