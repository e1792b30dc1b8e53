package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nikhi-l37/local-inventory-project/internal/dto"
	"github.com/Nikhi-l37/local-inventory-project/internal/dto/result"
	"github.com/Nikhi-l37/local-inventory-project/internal/service"
)

type CategoryHandler struct {
	service *service.CategoryService
	log     *zap.Logger
}

func NewCategoryHandler(svc *service.CategoryService, log *zap.Logger) *CategoryHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CategoryHandler{service: svc, log: log}
}

func (h *CategoryHandler) RegisterRoutes(api *gin.RouterGroup, authed gin.HandlerFunc) {
	group := api.Group("/categories")
	group.GET("/shop/:shopId", h.listByShop)

	mine := group.Group("", authed)
	mine.POST("", h.create)
	mine.GET("/my-shop", h.listMine)
	mine.DELETE("/:id", h.delete)
}

func (h *CategoryHandler) listByShop(ctx *gin.Context) {
	shopID, ok := pathID(ctx, "shopId")
	if !ok {
		return
	}
	categories, err := h.service.ListByShop(ctx.Request.Context(), shopID)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, result.OkWithList(categories))
}

func (h *CategoryHandler) listMine(ctx *gin.Context) {
	sellerID, ok := currentSeller(ctx)
	if !ok {
		return
	}
	categories, err := h.service.ListMine(ctx.Request.Context(), sellerID)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, result.OkWithList(categories))
}

func (h *CategoryHandler) create(ctx *gin.Context) {
	sellerID, ok := currentSeller(ctx)
	if !ok {
		return
	}
	var form dto.CategoryForm
	if !bindJSON(ctx, &form) {
		return
	}
	category, err := h.service.Create(ctx.Request.Context(), sellerID, form)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusCreated, result.OkWithData(category))
}

func (h *CategoryHandler) delete(ctx *gin.Context) {
	sellerID, ok := currentSeller(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(ctx.Request.Context(), sellerID, id); err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, result.Ok())
}
