package cache

import (
	"context"
	"time"

	"github.com/loadbid-next/internal/logger"
)

// Tiered 本地缓存优先，其次共享缓存；任一层失败均降级为未命中
type Tiered struct {
	local       Store
	shared      Store
	backfillTTL time.Duration
}

// NewTiered 组合两级缓存，任一层可为 nil
func NewTiered(local, shared Store) *Tiered {
	return &Tiered{local: nonNil(local), shared: nonNil(shared)}
}

// WithBackfillTTL 共享层命中后以 ttl 回填本地层，ttl <= 0 时不回填
func (t *Tiered) WithBackfillTTL(ttl time.Duration) *Tiered {
	if t != nil {
		t.backfillTTL = ttl
	}
	return t
}

// GetJSON 逐层查找，共享层命中后按 backfillTTL 回填本地层
func (t *Tiered) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if t == nil {
		return false, nil
	}
	if t.local != nil {
		hit, err := t.local.GetJSON(ctx, key, dest)
		if err != nil {
			logger.Debugw("cache_local_get_failed", "key", key, "error", err)
		}
		if hit {
			return true, nil
		}
	}
	if t.shared == nil {
		return false, nil
	}
	hit, err := t.shared.GetJSON(ctx, key, dest)
	if err != nil {
		logger.Warnw("cache_shared_get_failed", "key", key, "error", err)
		return false, nil
	}
	if hit && t.local != nil && t.backfillTTL > 0 {
		if err := t.local.SetJSON(ctx, key, dest, t.backfillTTL); err != nil {
			logger.Debugw("cache_local_backfill_failed", "key", key, "error", err)
		}
	}
	return hit, nil
}

// SetJSON 同时写入两级
func (t *Tiered) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if t == nil {
		return nil
	}
	var firstErr error
	for _, s := range []Store{t.local, t.shared} {
		if s == nil {
			continue
		}
		if err := s.SetJSON(ctx, key, value, ttl); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Del 同时删除两级
func (t *Tiered) Del(ctx context.Context, key string) error {
	if t == nil {
		return nil
	}
	var firstErr error
	for _, s := range []Store{t.local, t.shared} {
		if s == nil {
			continue
		}
		if err := s.Del(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// nonNil 把带类型的 nil 指针归一为接口 nil
func nonNil(s Store) Store {
	switch v := s.(type) {
	case *RedisStore:
		if v == nil {
			return nil
		}
	case *LocalStore:
		if v == nil {
			return nil
		}
	}
	return s
}
