package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/Nikhi-l37/local-inventory-project/internal/dto/result"
)

const (
	limiterCacheSize = 10000
	limiterIdleTTL   = 10 * time.Minute
)

// RateLimiter 按客户端 IP 做令牌桶限流；长时间不活跃的 IP 会被淘汰
func RateLimiter(perSecond float64, burst int) gin.HandlerFunc {
	if perSecond <= 0 {
		return func(ctx *gin.Context) { ctx.Next() }
	}
	if burst <= 0 {
		burst = 1
	}
	limiters := expirable.NewLRU[string, *rate.Limiter](limiterCacheSize, nil, limiterIdleTTL)
	return func(ctx *gin.Context) {
		ip := ctx.ClientIP()
		limiter, ok := limiters.Get(ip)
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
			limiters.Add(ip, limiter)
		}
		if !limiter.Allow() {
			ctx.Header("Retry-After", "1")
			ctx.AbortWithStatusJSON(http.StatusTooManyRequests, result.FailWithCode("RATE_LIMITED", "too many requests, please retry later"))
			return
		}
		ctx.Next()
	}
}
