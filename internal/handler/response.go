package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nikhi-l37/local-inventory-project/internal/apperr"
	"github.com/Nikhi-l37/local-inventory-project/internal/dto/result"
	"github.com/Nikhi-l37/local-inventory-project/internal/middleware"
)

// writeError 业务错误按类型映射状态码；未分类错误记录日志后返回 500
func writeError(ctx *gin.Context, log *zap.Logger, err error) {
	status, body := result.FromError(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("path", ctx.FullPath()),
			zap.String("request_id", middleware.RequestIDFromContext(ctx)),
			zap.Error(err),
		)
	}
	_ = ctx.Error(err)
	ctx.JSON(status, body)
}

func bindJSON(ctx *gin.Context, obj interface{}) bool {
	if err := ctx.ShouldBindJSON(obj); err != nil {
		ctx.JSON(http.StatusBadRequest, result.FailWithCode("INVALID_PAYLOAD", "invalid payload"))
		return false
	}
	return true
}

func pathID(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		ctx.JSON(http.StatusBadRequest, result.FailWithCode("INVALID_ID", "invalid "+name))
		return 0, false
	}
	return id, true
}

// currentSeller 登录中间件之后调用；缺失时视为未登录
func currentSeller(ctx *gin.Context) (int64, bool) {
	id, ok := middleware.GetSellerID(ctx)
	if !ok {
		status, body := result.FromError(apperr.Unauthorized("login required"))
		ctx.AbortWithStatusJSON(status, body)
		return 0, false
	}
	return id, true
}
