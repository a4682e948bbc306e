/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"

	"github.com/flcore/flquery/config"
	redis_db "github.com/flcore/flquery/internal/redis-db"
)

// ErrMiss is returned by Get when the key is not cached.
var ErrMiss = cache.ErrCacheMiss

// Cache stores search results between identical requests.
type Cache interface {
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Get decodes the value stored under key into data, which must be a
	// pointer. It returns ErrMiss when nothing is stored.
	Get(ctx context.Context, key string, data interface{}) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// RedisCache is a Cache backed by Redis with a TinyLFU local layer in front.
type RedisCache struct {
	cache *cache.Cache
}

// localCacheSize is the number of entries kept in process.
const localCacheSize = 10000

// NewCache connects to the configured Redis. The DNS may list several
// comma separated addresses for a cluster.
func NewCache(cfg *config.Configuration) (Cache, error) {
	addresses := redis_db.SplitAddresses(cfg.Redis.Dns)
	if len(addresses) == 0 {
		return nil, errors.New("redis DNS is not configured")
	}
	client, err := redis_db.NewRedisClient(addresses, cfg.Redis.SkipTLSVerify)
	if err != nil {
		return nil, err
	}
	return NewRedisCache(client.Client(), true), nil
}

// NewRedisCache wraps an existing client. With localCache set, reads are
// served from process memory for up to a minute.
func NewRedisCache(client redis.UniversalClient, localCache bool) *RedisCache {
	opts := &cache.Options{Redis: client}
	if localCache {
		opts.LocalCache = cache.NewTinyLFU(localCacheSize, time.Minute)
	}
	return &RedisCache{cache: cache.New(opts)}
}

func (r *RedisCache) Set(ctx context.Context, key string, data interface{}, ttl time.Duration) error {
	return r.cache.Set(&cache.Item{
		Ctx:   ctx,
		Key:   key,
		Value: data,
		TTL:   ttl,
	})
}

func (r *RedisCache) Get(ctx context.Context, key string, data interface{}) error {
	return r.cache.Get(ctx, key, data)
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	err := r.cache.Delete(ctx, key)
	if errors.Is(err, ErrMiss) {
		return nil
	}
	return err
}
