// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// BadgerCache persists cached responses on disk so they survive restarts.
type BadgerCache struct {
	db     *badger.DB
	logger zerolog.Logger
	stats  counters
}

// NewBadgerCache opens (or creates) a Badger database at path.
func NewBadgerCache(path string, logger zerolog.Logger) (*BadgerCache, error) {
	if path == "" {
		return nil, errors.New("badger cache: path is required")
	}
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger cache: open %s: %w", path, err)
	}
	return &BadgerCache{db: db, logger: logger}, nil
}

func (c *BadgerCache) Get(_ context.Context, key string) ([]byte, bool) {
	var out []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		c.stats.miss(BackendBadger)
		return nil, false
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("badger get failed")
		c.stats.miss(BackendBadger)
		return nil, false
	}
	c.stats.hit(BackendBadger)
	return out, true
}

func (c *BadgerCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	err := c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("badger set failed")
		return
	}
	c.stats.sets.Add(1)
}

func (c *BadgerCache) Delete(_ context.Context, key string) {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("badger delete failed")
		return
	}
	c.stats.evict(BackendBadger, 1)
}

func (c *BadgerCache) Stats() Stats {
	size := 0
	_ = c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			size++
		}
		return nil
	})
	return c.stats.snapshot(size)
}

func (c *BadgerCache) Close() error { return c.db.Close() }
