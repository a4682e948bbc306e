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
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flcore/flquery/config"
)

func newTestCache(t *testing.T) (Cache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	c, err := NewCache(&config.Configuration{Redis: config.RedisConfig{Dns: mr.Addr()}})
	require.NoError(t, err)
	return c, mr
}

func TestNewCache_RequiresRedis(t *testing.T) {
	_, err := NewCache(&config.Configuration{})
	assert.Error(t, err)
}

func TestSetAndGet(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	setValue := map[string]string{"hello": "world"}
	err := c.Set(ctx, "testKey", setValue, 10*time.Minute)
	assert.NoError(t, err)
	assert.True(t, mr.Exists("testKey"))

	var getValue map[string]string
	err = c.Get(ctx, "testKey", &getValue)
	assert.NoError(t, err)
	assert.Equal(t, setValue, getValue)
}

func TestGetNonExistentKey(t *testing.T) {
	c, _ := newTestCache(t)

	var getValue map[string]string
	err := c.Get(context.Background(), "nonExistentKey", &getValue)
	assert.ErrorIs(t, err, ErrMiss)
	assert.Empty(t, getValue)
}

func TestDelete(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "testKey", "testValue", 10*time.Minute))

	assert.NoError(t, c.Delete(ctx, "testKey"))

	var getValue string
	assert.ErrorIs(t, c.Get(ctx, "testKey", &getValue), ErrMiss)
	assert.Empty(t, getValue)

	assert.NoError(t, c.Delete(ctx, "nonExistentKey"))
}

func TestGet_RedisErrors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisCache(db, false)
	ctx := context.Background()

	mock.ExpectGet("missing").RedisNil()
	var value string
	assert.ErrorIs(t, c.Get(ctx, "missing", &value), ErrMiss)

	mock.ExpectGet("broken").SetErr(errors.New("connection reset"))
	err := c.Get(ctx, "broken", &value)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrMiss))
	assert.False(t, errors.Is(err, redis.Nil))

	assert.NoError(t, mock.ExpectationsWereMet())
}
