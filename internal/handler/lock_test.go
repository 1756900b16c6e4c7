package handler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// memoryLockClient 在内存中模拟 SETNX 与释放锁的脚本
type memoryLockClient struct {
	redis.Scripter
	values map[string]string
}

func newMemoryLockClient() *memoryLockClient {
	return &memoryLockClient{values: make(map[string]string)}
}

func (c *memoryLockClient) SetNX(ctx context.Context, key string, value any, _ time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx)
	if _, ok := c.values[key]; ok {
		cmd.SetVal(false)
		return cmd
	}
	c.values[key] = value.(string)
	cmd.SetVal(true)
	return cmd
}

func (c *memoryLockClient) EvalSha(ctx context.Context, _ string, keys []string, args ...any) *redis.Cmd {
	cmd := redis.NewCmd(ctx)
	if v, ok := c.values[keys[0]]; ok && v == args[0] {
		delete(c.values, keys[0])
		cmd.SetVal(int64(1))
		return cmd
	}
	cmd.SetVal(int64(0))
	return cmd
}

func TestArrangementLock(t *testing.T) {
	ctx := context.Background()
	c := newMemoryLockClient()

	first := newArrangementLock(1, "alice")
	second := newArrangementLock(1, "alice")
	require.Equal(t, "arrangement_lock_1", first.key)
	require.True(t, strings.HasPrefix(first.token, "alice:"))
	require.NotEqual(t, first.token, second.token)

	ok, err := first.acquire(ctx, c, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.acquire(ctx, c, time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	released, err := first.release(ctx, c)
	require.NoError(t, err)
	require.True(t, released)

	ok, err = second.acquire(ctx, c, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestArrangementLock_ReleaseAfterExpiry(t *testing.T) {
	ctx := context.Background()
	c := newMemoryLockClient()

	slow := newArrangementLock(1, "alice")
	ok, err := slow.acquire(ctx, c, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// 锁过期后被另一个请求获取
	delete(c.values, slow.key)
	next := newArrangementLock(1, "bob")
	ok, err = next.acquire(ctx, c, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	released, err := slow.release(ctx, c)
	require.NoError(t, err)
	require.False(t, released)
	require.Equal(t, next.token, c.values[next.key])
}
