package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// LocalStore 进程内缓存，基于内存模式的 badger
type LocalStore struct {
	db *badger.DB
}

// NewLocalStore 创建进程内缓存
func NewLocalStore() (*LocalStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &LocalStore{db: db}, nil
}

// GetJSON 获取缓存，过期条目视为未命中
func (s *LocalStore) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	if s == nil {
		return false, nil
	}
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(strings.TrimSpace(key)))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON 写入缓存，ttl<=0 时不过期
func (s *LocalStore) SetJSON(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if s == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(strings.TrimSpace(key)), payload)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Del 删除缓存
func (s *LocalStore) Del(_ context.Context, key string) error {
	if s == nil {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(strings.TrimSpace(key)))
	})
}

// Close 释放内存
func (s *LocalStore) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}
