package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/seat-arranger/backend/internal/utils"
)

// lockClient 是 *redis.Client 中排座锁用到的部分
type lockClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
}

// 只有持有者才能删除锁，过期后被他人重新获取的锁不受影响
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type arrangementLock struct {
	key   string
	token string
}

// newArrangementLock: 同一个偏好表同时只允许进行一次自动排座
func newArrangementLock(tableID int64, username string) arrangementLock {
	return arrangementLock{
		key:   fmt.Sprintf("arrangement_lock_%d", tableID),
		token: username + ":" + utils.GenerateRandomID(8, 8),
	}
}

func (l arrangementLock) acquire(ctx context.Context, c lockClient, expiration time.Duration) (bool, error) {
	return c.SetNX(ctx, l.key, l.token, expiration).Result()
}

// release 返回锁是否仍由自己持有并已删除
func (l arrangementLock) release(ctx context.Context, c redis.Scripter) (bool, error) {
	n, err := releaseLockScript.Run(ctx, c, []string{l.key}, l.token).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
