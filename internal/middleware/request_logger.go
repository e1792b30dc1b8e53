package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SearchResultsKey 搜索 handler 写入结果条数，访问日志一并输出
const SearchResultsKey = "search_results"

// maxLoggedQuery 搜索词截断长度
const maxLoggedQuery = 100

// RequestLogger 访问日志：5xx 记 Error，4xx 记 Warn；quietPaths（探活、指标）成功时降为 Debug
func RequestLogger(log *zap.Logger, quietPaths ...string) gin.HandlerFunc {
	quiet := make(map[string]struct{}, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = struct{}{}
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		level := accessLevel(status)
		if _, ok := quiet[route]; ok && level == zapcore.InfoLevel {
			level = zapcore.DebugLevel
		}
		if ce := log.Check(level, "http request"); ce != nil {
			ce.Write(accessFields(c, route, status, time.Since(start))...)
		}
	}
}

func accessLevel(status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

func accessFields(c *gin.Context, route string, status int, latency time.Duration) []zap.Field {
	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", route),
		zap.Int("status", status),
		zap.Duration("latency", latency),
		zap.String("client_ip", c.ClientIP()),
		zap.Int("bytes_out", c.Writer.Size()),
	}
	if rid := RequestIDFromContext(c); rid != "" {
		fields = append(fields, zap.String("request_id", rid))
	}
	if sellerID, ok := GetSellerID(c); ok {
		fields = append(fields, zap.Int64("seller_id", sellerID))
	}
	if strings.HasPrefix(route, "/api/search") {
		if q := c.Query("q"); q != "" {
			if len(q) > maxLoggedQuery {
				q = q[:maxLoggedQuery]
			}
			fields = append(fields, zap.String("query", q))
		}
		if n, ok := c.Get(SearchResultsKey); ok {
			fields = append(fields, zap.Any("results", n))
		}
	}
	if spanCtx := trace.SpanContextFromContext(c.Request.Context()); spanCtx.IsValid() {
		fields = append(fields,
			zap.String("trace_id", spanCtx.TraceID().String()),
			zap.String("span_id", spanCtx.SpanID().String()),
		)
	}
	if len(c.Errors) > 0 {
		fields = append(fields, zap.String("errors", strings.TrimSpace(c.Errors.String())))
	}
	return fields
}
