package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nikhi-l37/local-inventory-project/internal/apperr"
	"github.com/Nikhi-l37/local-inventory-project/internal/dto"
	"github.com/Nikhi-l37/local-inventory-project/internal/dto/result"
	"github.com/Nikhi-l37/local-inventory-project/internal/service"
	"github.com/Nikhi-l37/local-inventory-project/internal/utils"
)

// ProductHandler 商品接口
type ProductHandler struct {
	service *service.ProductService
	log     *zap.Logger
}

func NewProductHandler(svc *service.ProductService, log *zap.Logger) *ProductHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductHandler{service: svc, log: log}
}

func (h *ProductHandler) RegisterRoutes(api *gin.RouterGroup, authed gin.HandlerFunc) {
	group := api.Group("/products")
	group.GET("/shop/:shopId", h.listByShop)

	mine := group.Group("", authed)
	mine.POST("", h.create)
	mine.PUT("/:id", h.update)
	mine.PATCH("/:id", h.setAvailability)
	mine.DELETE("/:id", h.delete)

	api.GET("/shops/my-shop/products", authed, h.listMine)
}

// listByShop 公开接口；带 page 参数时分页，否则返回全部有货商品
func (h *ProductHandler) listByShop(ctx *gin.Context) {
	shopID, ok := pathID(ctx, "shopId")
	if !ok {
		return
	}
	page, pageSize := 0, 0
	if ctx.Query("page") != "" {
		page = utils.ParsePage(ctx.Query("page"), 1)
		pageSize = utils.ParsePageSize(ctx.Query("pageSize"), utils.DEFAULT_PAGE_SIZE)
	}
	products, total, err := h.service.ListByShop(ctx.Request.Context(), shopID, page, pageSize)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, result.OkWithPage(nonNil(products), total))
}

func (h *ProductHandler) listMine(ctx *gin.Context) {
	sellerID, ok := currentSeller(ctx)
	if !ok {
		return
	}
	products, err := h.service.ListMine(ctx.Request.Context(), sellerID)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, result.OkWithList(products))
}

func (h *ProductHandler) create(ctx *gin.Context) {
	sellerID, ok := currentSeller(ctx)
	if !ok {
		return
	}
	var form dto.ProductForm
	if !bindJSON(ctx, &form) {
		return
	}
	product, err := h.service.Create(ctx.Request.Context(), sellerID, form)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusCreated, result.OkWithData(product))
}

func (h *ProductHandler) update(ctx *gin.Context) {
	sellerID, ok := currentSeller(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var form dto.ProductForm
	if !bindJSON(ctx, &form) {
		return
	}
	product, err := h.service.Update(ctx.Request.Context(), sellerID, id, form)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, result.OkWithData(product))
}

func (h *ProductHandler) setAvailability(ctx *gin.Context) {
	sellerID, ok := currentSeller(ctx)
	if !ok {
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	var form dto.AvailabilityForm
	if !bindJSON(ctx, &form) {
		return
	}
	if form.IsAvailable == nil {
		writeError(ctx, h.log, apperr.Validation(service.CodeInvalidProduct, "is_available is required"))
		return
	}
	product, err := h.service.SetAvailability(ctx.Request.Context(), sellerID, id, *form.IsAvailable)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	ctx.JSON(http.StatusOK, result.OkWithData(product))
}

func (h *ProductHandler) delete(ctx *gin.Context) {
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

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
