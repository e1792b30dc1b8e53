package handler

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olivere/elastic/v7"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Nikhi-l37/local-inventory-project/internal/data"
)

// CheckFunc 单个依赖的就绪检查
type CheckFunc func(ctx context.Context) error

// HealthHandler 存活与就绪检查
type HealthHandler struct {
	checks       map[string]CheckFunc
	log          *zap.Logger
	checkTimeout time.Duration
}

// sqlDB 定义了数据库连接需要实现的接口
type sqlDB interface {
	PingContext(ctx context.Context) error
}

// NewHealthHandler 创建一个新的 HealthHandler 实例，checks 可为空
func NewHealthHandler(checks map[string]CheckFunc, log *zap.Logger) *HealthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	if checks == nil {
		checks = map[string]CheckFunc{}
	}
	return &HealthHandler{
		checks:       checks,
		log:          log,
		checkTimeout: 2 * time.Second,
	}
}

func (h *HealthHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
}

// Healthz 返回服务健康状态
func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz 并发检查所有依赖，任一失败返回 503
func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.checkTimeout)
	defer cancel()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		failed = map[string]string{}
	)
	for name, check := range h.checks {
		wg.Add(1)
		go func(name string, check CheckFunc) {
			defer wg.Done()
			if err := check(ctx); err != nil {
				mu.Lock()
				failed[name] = err.Error()
				mu.Unlock()
			}
		}(name, check)
	}
	wg.Wait()

	if len(failed) > 0 {
		names := make([]string, 0, len(failed))
		for name := range failed {
			names = append(names, name)
		}
		sort.Strings(names)
		h.log.Warn("readiness check failed", zap.Strings("deps", names))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "fail",
			"checks": failed,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// MySQLCheck 检查数据库连接
func MySQLCheck(db sqlDB) CheckFunc {
	return db.PingContext
}

// RedisCheck 检查 Redis 连接
func RedisCheck(rdb redis.UniversalClient) CheckFunc {
	return func(ctx context.Context) error { return data.Ping(ctx, rdb) }
}

// ElasticCheck 集群状态为 red 视为不可用
func ElasticCheck(client *elastic.Client) CheckFunc {
	return func(ctx context.Context) error {
		health, err := client.ClusterHealth().Do(ctx)
		if err != nil {
			return err
		}
		if health.Status == "red" {
			return errors.New("elasticsearch cluster status is red")
		}
		return nil
	}
}

// KafkaCheck 检查与 Kafka 的连接
func KafkaCheck(brokers []string) CheckFunc {
	return func(ctx context.Context) error { return checkKafka(ctx, brokers) }
}

// checkKafka 任一 broker 可连通即视为正常
func checkKafka(ctx context.Context, brokers []string) error {
	if len(brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	// 创建 建立网络连接对象
	dialer := net.Dialer{Timeout: time.Second}
	var lastErr error
	for _, broker := range brokers {
		// 尝试连接每个 broker
		conn, err := dialer.DialContext(ctx, "tcp", broker)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		lastErr = err
	}
	return lastErr
}
