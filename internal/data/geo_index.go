package data

import (
	"context"
	"fmt"

	"github.com/olivere/elastic/v7"
	"github.com/redis/go-redis/v9"

	"github.com/Nikhi-l37/local-inventory-project/internal/config"
	"github.com/Nikhi-l37/local-inventory-project/internal/geo"
)

// GeoIndex 按 search.backend 选出的地理索引；elastic 后端同时返回客户端供健康检查使用
type GeoIndex struct {
	geo.Index
	Backend string
	Elastic *elastic.Client
}

// Close 释放 elastic 客户端的后台协程
func (g *GeoIndex) Close() {
	if g.Elastic != nil {
		g.Elastic.Stop()
	}
}

// CheckBounds 转发给底层后端，使 geo.CheckIndexable 能看到 redis 的纬度限制
func (g *GeoIndex) CheckBounds(c geo.Coordinate) error {
	if b, ok := g.Index.(geo.Bounded); ok {
		return b.CheckBounds(c)
	}
	return nil
}

// NewGeoIndex 构建地理索引。redis 后端复用传入的客户端，elastic 后端会确保索引 mapping 存在
func NewGeoIndex(ctx context.Context, cfg *config.Config, rdb redis.Cmdable) (*GeoIndex, error) {
	switch cfg.Search.Backend {
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("geo index: redis backend needs a redis client")
		}
		return &GeoIndex{Index: geo.NewRedisIndex(rdb, cfg.Search.RedisKey), Backend: "redis"}, nil
	case "elastic":
		client, err := NewElastic(ctx, cfg.Elastic)
		if err != nil {
			return nil, err
		}
		idx := geo.NewElasticIndex(client, cfg.Elastic.Index, cfg.Elastic.PageSize)
		if err := idx.EnsureIndex(ctx); err != nil {
			client.Stop()
			return nil, fmt.Errorf("elastic ensure index: %w", err)
		}
		return &GeoIndex{Index: idx, Backend: "elastic", Elastic: client}, nil
	case "memory":
		return &GeoIndex{Index: geo.NewMemoryIndex(), Backend: "memory"}, nil
	default:
		return nil, fmt.Errorf("geo index: unknown backend %q", cfg.Search.Backend)
	}
}
