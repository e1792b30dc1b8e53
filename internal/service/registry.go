package service

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Nikhi-l37/local-inventory-project/internal/auth"
	"github.com/Nikhi-l37/local-inventory-project/internal/availability"
	"github.com/Nikhi-l37/local-inventory-project/internal/config"
	"github.com/Nikhi-l37/local-inventory-project/internal/geo"
	"github.com/Nikhi-l37/local-inventory-project/internal/notify"
	"github.com/Nikhi-l37/local-inventory-project/internal/observability"
	"github.com/Nikhi-l37/local-inventory-project/internal/search"
)

// Registry 聚合全部业务 Service，方便注入 handler
type Registry struct {
	GeoSync  *GeoSyncService
	Shop     *ShopService
	Product  *ProductService
	Category *CategoryService
	Seller   *SellerService
	Search   *search.Engine
}

// Deps 构建 Registry 所需的基础设施
type Deps struct {
	DB       *gorm.DB
	Index    geo.Index
	Topics   GeoSyncTopics
	OTP      OTPStore
	JWT      *auth.JWTManager
	Notifier notify.Notifier
	Metrics  *observability.SearchMetrics
	Logger   *zap.Logger
	Clock    func() time.Time
	Config   *config.Config
}

// NewRegistry 使用共享 DB 与地理索引构建所有服务
func NewRegistry(d Deps) *Registry {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cfg := d.Config
	loc := cfg.Search.Location()
	resolver := availability.NewResolver(availability.WithOvernight(cfg.Search.OvernightHours))

	geoSync := NewGeoSyncService(d.DB, d.Index, d.Topics, cfg.Kafka.MaxRetries,
		d.Notifier, cfg.SMTP.To, d.Metrics, log.Named("geosync"))
	shops := NewShopService(d.DB, geoSync, cfg.App.ShopCache, resolver, loc, d.Metrics, log.Named("shop"))
	if d.Clock != nil {
		shops.clock = d.Clock
	}
	products := NewProductService(d.DB, shops, log.Named("product"))

	opts := []search.Option{
		search.WithConfig(search.Config{
			DefaultRadius: cfg.Search.DefaultRadius,
			Timeout:       cfg.Search.Timeout,
			Location:      loc,
		}),
		search.WithResolver(resolver),
		search.WithMetrics(d.Metrics),
		search.WithLogger(log.Named("search")),
	}
	if d.Clock != nil {
		opts = append(opts, search.WithClock(d.Clock))
	}

	return &Registry{
		GeoSync:  geoSync,
		Shop:     shops,
		Product:  products,
		Category: NewCategoryService(d.DB, shops),
		Seller:   NewSellerService(d.DB, d.JWT, d.OTP, d.Notifier, cfg.Auth, log.Named("seller")),
		Search:   search.NewEngine(d.Index, shops, products, opts...),
	}
}
