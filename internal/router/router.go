// Package router 把全部 HTTP handler 注册到 gin 引擎
package router

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Nikhi-l37/local-inventory-project/internal/auth"
	"github.com/Nikhi-l37/local-inventory-project/internal/config"
	"github.com/Nikhi-l37/local-inventory-project/internal/handler"
	"github.com/Nikhi-l37/local-inventory-project/internal/middleware"
	"github.com/Nikhi-l37/local-inventory-project/internal/service"
	"github.com/Nikhi-l37/local-inventory-project/internal/storage"
)

// Deps 路由注册所需的依赖
type Deps struct {
	Services *service.Registry
	Store    storage.FileStore
	JWT      *auth.JWTManager
	Config   *config.Config
	Logger   *zap.Logger
}

// RegisterRoutes 注册 /api 下的全部业务接口以及静态图片目录
func RegisterRoutes(engine *gin.Engine, d Deps) {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cfg := d.Config
	authed := middleware.LoginMiddleware(d.JWT)
	limit := middleware.RateLimiter(cfg.Search.RateLimit.PerSecond, cfg.Search.RateLimit.Burst)

	api := engine.Group("/api")
	handler.NewSearchHandler(d.Services.Search, log).RegisterRoutes(api, limit)
	handler.NewSellerHandler(d.Services.Seller, log).RegisterRoutes(api)
	handler.NewShopHandler(d.Services.Shop, log).RegisterRoutes(api, authed)
	handler.NewProductHandler(d.Services.Product, log).RegisterRoutes(api, authed)
	handler.NewCategoryHandler(d.Services.Category, log).RegisterRoutes(api, authed)
	handler.NewUploadHandler(d.Store, cfg.App.MaxUploadBytes, log).RegisterRoutes(api, authed)

	// 本地存储时由服务本身提供图片访问
	if base := cfg.App.PublicBaseURL; strings.HasPrefix(base, "/") && cfg.App.ImageUploadDir != "" {
		engine.Static(strings.TrimRight(base, "/"), cfg.App.ImageUploadDir)
	}
}
