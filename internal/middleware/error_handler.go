package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nikhi-l37/local-inventory-project/internal/dto/result"
)

// ErrorHandler 将 panic 转换为统一的 JSON 错误响应
func ErrorHandler(log *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic recovered",
					zap.Any("error", rec),
					zap.String("path", ctx.Request.URL.Path),
					zap.String("request_id", RequestIDFromContext(ctx)),
					zap.Stack("stack"),
				)
				ctx.AbortWithStatusJSON(http.StatusInternalServerError, result.FailWithCode("INTERNAL", "internal server error"))
			}
		}()
		ctx.Next()
	}
}
