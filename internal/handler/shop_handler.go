package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nikhi-l37/local-inventory-project/internal/apperr"
	"github.com/Nikhi-l37/local-inventory-project/internal/dto"
	"github.com/Nikhi-l37/local-inventory-project/internal/dto/result"
	"github.com/Nikhi-l37/local-inventory-project/internal/service"
)

// ShopHandler 商铺管理接口，除按 id 查询外都需要登录
type ShopHandler struct {
	service *service.ShopService
	log     *zap.Logger
}

func NewShopHandler(svc *service.ShopService, log *zap.Logger) *ShopHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ShopHandler{service: svc, log: log}
}

// RegisterRoutes 注册商铺路由
func (h *ShopHandler) RegisterRoutes(api *gin.RouterGroup, authed gin.HandlerFunc) {
	group := api.Group("/shops")
	group.GET("/:id", h.queryShopByID)

	mine := group.Group("", authed)
	mine.POST("", h.createShop)
	mine.GET("/my-shop", h.myShop)
	mine.PUT("/my-shop", h.updateShop)
	mine.PATCH("/my-shop/location", h.updateLocation)
	mine.DELETE("/my-shop", h.deleteShop)
	mine.PATCH("/status", h.setStatus)
}

func (h *ShopHandler) queryShopByID(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	shop, err := h.service.GetByID(ctx.Request.Context(), id)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	if shop == nil {
		writeError(ctx, h.log, apperr.NotFound(service.CodeShopNotFound, "shop not found"))
		return
	}
	ctx.JSON(http.StatusOK, result.OkWithData(shop))
}

func (h *ShopHandler) createShop(ctx *gin.Context) {
	sellerID, ok := currentSeller(ctx)
	if !ok {
		return
	}
	var form dto.ShopForm
	if !bindJSON(ctx, &form) {
		return
	}
	shop, err := h.service.Create(ctx.Request.Context(), sellerID, form)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusCreated, result.OkWithData(shop))
}

func (h *ShopHandler) myShop(ctx *gin.Context) {
	sellerID, ok := currentSeller(ctx)
	if !ok {
		return
	}
	shop, err := h.service.GetBySeller(ctx.Request.Context(), sellerID)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	if shop == nil {
		writeError(ctx, h.log, apperr.NotFound(service.CodeShopNotFound, "you have not created a shop yet"))
		return
	}
	ctx.JSON(http.StatusOK, result.OkWithData(shop))
}

func (h *ShopHandler) updateShop(ctx *gin.Context) {
	sellerID, ok := currentSeller(ctx)
	if !ok {
		return
	}
	var form dto.ShopForm
	if !bindJSON(ctx, &form) {
		return
	}
	shop, err := h.service.UpdateProfile(ctx.Request.Context(), sellerID, form)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, result.OkWithData(shop))
}

func (h *ShopHandler) updateLocation(ctx *gin.Context) {
	sellerID, ok := currentSeller(ctx)
	if !ok {
		return
	}
	var form dto.LocationForm
	if !bindJSON(ctx, &form) {
		return
	}
	shop, err := h.service.UpdateLocation(ctx.Request.Context(), sellerID, form)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, result.OkWithData(shop))
}

func (h *ShopHandler) setStatus(ctx *gin.Context) {
	sellerID, ok := currentSeller(ctx)
	if !ok {
		return
	}
	var form dto.StatusForm
	if !bindJSON(ctx, &form) {
		return
	}
	if form.IsOpen == nil {
		writeError(ctx, h.log, apperr.Validation(service.CodeInvalidShop, "is_open is required"))
		return
	}
	shop, err := h.service.SetStatus(ctx.Request.Context(), sellerID, *form.IsOpen)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, result.OkWithData(shop))
}

func (h *ShopHandler) deleteShop(ctx *gin.Context) {
	sellerID, ok := currentSeller(ctx)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx.Request.Context(), sellerID); err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, result.Ok())
}
