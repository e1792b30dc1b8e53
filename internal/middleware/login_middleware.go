package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Nikhi-l37/local-inventory-project/internal/auth"
	"github.com/Nikhi-l37/local-inventory-project/internal/dto/result"
)

const (
	sellerIDContextKey = "sellerId"
	authTokenHeader    = "x-auth-token"
)

// LoginMiddleware 校验卖家 token，成功后把 sellerId 写入上下文
func LoginMiddleware(jwt *auth.JWTManager) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		// 提取token
		token := extractToken(ctx)
		if token == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, result.FailWithCode("UNAUTHORIZED", "login required"))
			return
		}
		sellerID, err := jwt.Verify(token, auth.PurposeSession)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, result.FailWithCode("UNAUTHORIZED", "session expired, please log in again"))
			return
		}
		ctx.Set(sellerIDContextKey, sellerID)
		ctx.Next()
	}
}

// GetSellerID 从 Gin Context 中读取登录卖家 id
func GetSellerID(ctx *gin.Context) (int64, bool) {
	v, exists := ctx.Get(sellerIDContextKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}

// extractToken 优先 x-auth-token，其次 Authorization: Bearer
func extractToken(ctx *gin.Context) string {
	if token := strings.TrimSpace(ctx.GetHeader(authTokenHeader)); token != "" {
		return token
	}
	header := strings.TrimSpace(ctx.GetHeader("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
