package data

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Nikhi-l37/local-inventory-project/internal/config"
)

// NewRedis 构建 GEO 索引与验证码共用的客户端；PoolSize 为 0 时使用 go-redis 默认值
func NewRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})
}

// Ping 启动与就绪检查共用
func Ping(ctx context.Context, client redis.UniversalClient) error {
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
