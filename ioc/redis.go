package ioc

import (
	"context"
	"time"

	"github.com/KNICEX/perp-sentinel/internal/config"
	"github.com/KNICEX/perp-sentinel/internal/schedule"
	"github.com/redis/go-redis/v9"
)

// InitLocker 多实例部署时用 redis 保证同一交易所的周期互斥
func InitLocker(monitorCfg config.MonitorConfig, redisCfg config.RedisConfig) schedule.Locker {
	if monitorCfg.Lock != "redis" {
		return schedule.NewMemoryLocker()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		panic(err)
	}
	return schedule.NewRedisLocker(client)
}
