// Package search answers "find products or shops matching this text near this
// point" by combining the geo index, trigram matching and shop availability.
package search

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Nikhi-l37/local-inventory-project/internal/apperr"
	"github.com/Nikhi-l37/local-inventory-project/internal/availability"
	"github.com/Nikhi-l37/local-inventory-project/internal/geo"
	"github.com/Nikhi-l37/local-inventory-project/internal/model"
	"github.com/Nikhi-l37/local-inventory-project/internal/observability"
)

// ShopSource loads shop rows for the ids returned by the geo index.
type ShopSource interface {
	ShopsByIDs(ctx context.Context, ids []int64) ([]model.Shop, error)
}

// ProductSource loads the products of a set of shops.
type ProductSource interface {
	ProductsByShopIDs(ctx context.Context, shopIDs []int64) ([]model.Product, error)
}

const DefaultTimeout = 3 * time.Second

// Config holds the tunables of an Engine.
type Config struct {
	DefaultRadius float64
	Timeout       time.Duration
	// Location is the zone whose wall clock opening hours are compared against.
	Location *time.Location
}

type Option func(*Engine)

func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

func WithResolver(r *availability.Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

func WithMetrics(m *observability.SearchMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// Engine holds no per-request state; Search may be called concurrently.
type Engine struct {
	index    geo.Index
	shops    ShopSource
	products ProductSource
	resolver *availability.Resolver
	clock    func() time.Time
	cfg      Config
	metrics  *observability.SearchMetrics
	log      *zap.Logger
	tracer   trace.Tracer
}

func NewEngine(index geo.Index, shops ShopSource, products ProductSource, opts ...Option) *Engine {
	e := &Engine{
		index:    index,
		shops:    shops,
		products: products,
		resolver: availability.NewResolver(),
		clock:    time.Now,
		log:      zap.NewNop(),
		tracer:   otel.Tracer("local-inventory/search"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cfg.DefaultRadius <= 0 {
		e.cfg.DefaultRadius = geo.DefaultRadiusMeters
	}
	if e.cfg.Timeout <= 0 {
		e.cfg.Timeout = DefaultTimeout
	}
	if e.cfg.Location == nil {
		e.cfg.Location = time.Local
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	return e
}

// Search validates q, runs the pipeline and returns ranked results. No matches
// is an empty slice, never an error.
func (e *Engine) Search(ctx context.Context, q Query) ([]Result, error) {
	start := time.Now()
	results, err := e.search(ctx, q)
	target := q.Target
	if target == "" {
		target = TargetProducts
	}
	e.metrics.ObserveSearch(string(target), outcomeLabel(err), len(results), time.Since(start))
	return results, err
}

func (e *Engine) search(ctx context.Context, q Query) ([]Result, error) {
	v, err := e.validate(q)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()
	ctx, span := e.tracer.Start(ctx, "search."+string(v.target), trace.WithAttributes(
		attribute.String("search.query", v.matcher.Query()),
		attribute.Float64("search.radius_m", v.radius),
		attribute.Bool("search.open_only", q.OpenOnly),
	))
	defer span.End()

	// only shops inside the radius reach text scoring
	hits, err := e.index.WithinRadius(ctx, v.origin, v.radius)
	if err != nil {
		span.RecordError(err)
		return nil, e.classify(ctx, "geo index lookup failed", err)
	}
	span.SetAttributes(attribute.Int("search.geo_hits", len(hits)))
	if len(hits) == 0 {
		return []Result{}, nil
	}

	cands, err := e.candidates(ctx, v.target, hits)
	if err != nil {
		span.RecordError(err)
		return nil, e.classify(ctx, "catalog lookup failed", err)
	}

	now := availability.WallClockOf(e.clock().In(e.cfg.Location))
	statusCache := make(map[int64]availability.Status, len(hits))
	for _, c := range cands {
		if v.target == TargetShops {
			c.score, c.matched = v.matcher.MatchAny(c.shop.Name, c.shop.Category)
		} else {
			c.score, c.matched = v.matcher.Match(c.product.Name)
		}
		st, ok := statusCache[c.shop.ID]
		if !ok {
			st = e.resolver.Resolve(c.shop.OpeningTime, c.shop.ClosingTime, c.shop.IsOpen, now)
			statusCache[c.shop.ID] = st
		}
		c.status = st
	}

	kept := applyAll(cands, predicatesFor(v, q.OpenOnly))
	results := make([]Result, 0, len(kept))
	for _, c := range kept {
		results = append(results, toResult(v.target, c))
	}
	span.SetAttributes(attribute.Int("search.results", len(results)))
	return Rank(results), nil
}

// candidates hydrates shops (and products) in geo-hit order. Shops missing from
// the store are skipped: the index may briefly lag behind deletions.
func (e *Engine) candidates(ctx context.Context, target Target, hits []geo.Hit) ([]*candidate, error) {
	ids := make([]int64, len(hits))
	for i, h := range hits {
		ids[i] = h.ShopID
	}

	var (
		shops    []model.Shop
		products []model.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		shops, err = e.shops.ShopsByIDs(gctx, ids)
		return err
	})
	if target == TargetProducts {
		g.Go(func() error {
			var err error
			products, err = e.products.ProductsByShopIDs(gctx, ids)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[int64]*model.Shop, len(shops))
	for i := range shops {
		byID[shops[i].ID] = &shops[i]
	}
	productsByShop := make(map[int64][]*model.Product)
	if target == TargetProducts {
		sort.SliceStable(products, func(i, j int) bool { return products[i].ID < products[j].ID })
		for i := range products {
			p := &products[i]
			productsByShop[p.ShopID] = append(productsByShop[p.ShopID], p)
		}
	}

	cands := make([]*candidate, 0, len(hits))
	for _, h := range hits {
		shop, ok := byID[h.ShopID]
		if !ok {
			e.log.Debug("geo hit without shop row", zap.Int64("shopId", h.ShopID))
			continue
		}
		if target == TargetShops {
			cands = append(cands, &candidate{hit: h, shop: shop})
			continue
		}
		for _, p := range productsByShop[h.ShopID] {
			cands = append(cands, &candidate{hit: h, shop: shop, product: p})
		}
	}
	return cands, nil
}

// classify separates timeouts and caller cancellation from dependency failures.
func (e *Engine) classify(ctx context.Context, msg string, err error) error {
	if _, ok := apperr.As(err); ok {
		return err
	}
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded):
		e.log.Warn("search timed out", zap.Duration("timeout", e.cfg.Timeout), zap.Error(err))
		return apperr.Timeout("search timed out", err)
	case errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled):
		return err
	default:
		e.log.Error(msg, zap.Error(err))
		return apperr.Dependency(msg, err)
	}
}

func toResult(target Target, c *candidate) Result {
	shop := c.shop
	r := Result{
		Type:           target,
		DistanceMeters: c.hit.DistanceMeters,
		Score:          c.score,
		Status:         c.status,
		Latitude:       shop.Latitude,
		Longitude:      shop.Longitude,
		IsOpen:         shop.IsOpen,
	}
	if target == TargetShops {
		r.ID = shop.ID
		r.Name = shop.Name
		r.Category = shop.Category
		r.ImageURL = shop.ImageURL
		r.Description = shop.Description
		return r
	}
	p := c.product
	price := p.Price
	available := p.IsAvailable
	r.ID = p.ID
	r.Name = p.Name
	r.Category = p.Category
	r.ImageURL = p.ImageURL
	r.Description = p.Description
	r.Price = &price
	r.IsAvailable = &available
	r.Shop = &ShopSummary{
		ID:          shop.ID,
		Name:        shop.Name,
		Category:    shop.Category,
		Latitude:    shop.Latitude,
		Longitude:   shop.Longitude,
		IsOpen:      shop.IsOpen,
		OpeningTime: shop.OpeningTime,
		ClosingTime: shop.ClosingTime,
		TownVillage: shop.TownVillage,
		Status:      c.status,
	}
	return r
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return "invalid"
	case apperr.KindTimeout:
		return "timeout"
	case apperr.KindDependency:
		return "dependency_error"
	default:
		return "error"
	}
}
