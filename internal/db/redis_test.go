package db

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), RedisConfig{Address: mr.Addr(), PoolSize: 2})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")
}

func TestNewRedisClient_Errors(t *testing.T) {
	_, err := NewRedisClient(context.Background(), RedisConfig{})
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err = NewRedisClient(context.Background(), RedisConfig{Address: addr})
	assert.Error(t, err)
}
