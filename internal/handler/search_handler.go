package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nikhi-l37/local-inventory-project/internal/apperr"
	"github.com/Nikhi-l37/local-inventory-project/internal/dto/result"
	"github.com/Nikhi-l37/local-inventory-project/internal/geo"
	"github.com/Nikhi-l37/local-inventory-project/internal/middleware"
	"github.com/Nikhi-l37/local-inventory-project/internal/search"
)

// statusClientClosedRequest 调用方已断开，沿用 nginx 的 499
const statusClientClosedRequest = 499

// Searcher 由 *search.Engine 实现
type Searcher interface {
	Search(ctx context.Context, q search.Query) ([]search.Result, error)
}

// SearchHandler 商品与商铺的附近搜索
type SearchHandler struct {
	engine Searcher
	log    *zap.Logger
}

func NewSearchHandler(engine Searcher, log *zap.Logger) *SearchHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SearchHandler{engine: engine, log: log}
}

// RegisterRoutes 注册 /search 路由，limit 按客户端限流
func (h *SearchHandler) RegisterRoutes(api *gin.RouterGroup, limit gin.HandlerFunc) {
	group := api.Group("/search", limit)
	group.GET("", h.searchProducts)
	group.GET("/shops", h.searchShops)
}

func (h *SearchHandler) searchProducts(ctx *gin.Context) {
	h.run(ctx, search.TargetProducts)
}

func (h *SearchHandler) searchShops(ctx *gin.Context) {
	h.run(ctx, search.TargetShops)
}

func (h *SearchHandler) run(ctx *gin.Context, target search.Target) {
	q, err := parseQuery(ctx, target)
	if err != nil {
		writeError(ctx, h.log, err)
		return
	}
	results, err := h.engine.Search(ctx.Request.Context(), q)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			ctx.AbortWithStatus(statusClientClosedRequest)
			return
		}
		writeError(ctx, h.log, err)
		return
	}
	ctx.Set(middleware.SearchResultsKey, len(results))
	ctx.JSON(http.StatusOK, result.OkWithList(results))
}

// parseQuery 只负责把字符串转换成数值，范围校验交给搜索引擎
func parseQuery(ctx *gin.Context, target search.Target) (search.Query, error) {
	q := search.Query{
		Text:     ctx.Query("q"),
		Target:   target,
		OpenOnly: parseBool(ctx.Query("open_only")),
	}
	latStr, lonStr := strings.TrimSpace(ctx.Query("lat")), strings.TrimSpace(ctx.Query("lon"))
	if latStr != "" || lonStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lon, errLon := strconv.ParseFloat(lonStr, 64)
		if errLat != nil || errLon != nil {
			return q, apperr.Validation(search.CodeInvalidLocation, "lat and lon must be numbers")
		}
		q.Origin = &geo.Coordinate{Latitude: lat, Longitude: lon}
	}
	if radiusStr := strings.TrimSpace(ctx.Query("radius")); radiusStr != "" {
		radius, err := strconv.ParseFloat(radiusStr, 64)
		if err != nil {
			return q, apperr.Validation(search.CodeInvalidRadius, "radius must be a number of meters")
		}
		q.RadiusMeters = radius
	}
	return q, nil
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}
