package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/olivere/elastic/v7"
)

const (
	DefaultElasticIndex = "shops_geo"
	defaultElasticPage  = 1000
)

const elasticMapping = `{
  "mappings": {
    "properties": {
      "shop_id":  {"type": "long"},
      "location": {"type": "geo_point"}
    }
  }
}`

type elasticShopDoc struct {
	ShopID   int64             `json:"shop_id"`
	Location *elastic.GeoPoint `json:"location"`
}

// ElasticIndex keeps shop locations in an Elasticsearch geo_point index.
// Radius queries page through every hit with search_after, pageSize at a time.
type ElasticIndex struct {
	client   *elastic.Client
	index    string
	pageSize int
}

func NewElasticIndex(client *elastic.Client, index string, pageSize int) *ElasticIndex {
	if index == "" {
		index = DefaultElasticIndex
	}
	if pageSize <= 0 {
		pageSize = defaultElasticPage
	}
	return &ElasticIndex{client: client, index: index, pageSize: pageSize}
}

// EnsureIndex creates the index with its geo_point mapping when missing.
func (e *ElasticIndex) EnsureIndex(ctx context.Context) error {
	exists, err := e.client.IndexExists(e.index).Do(ctx)
	if err != nil {
		return fmt.Errorf("check index %s: %w", e.index, err)
	}
	if exists {
		return nil
	}
	created, err := e.client.CreateIndex(e.index).BodyString(elasticMapping).Do(ctx)
	if err != nil {
		return fmt.Errorf("create index %s: %w", e.index, err)
	}
	if !created.Acknowledged {
		return fmt.Errorf("create index %s: not acknowledged", e.index)
	}
	return nil
}

func (e *ElasticIndex) Upsert(ctx context.Context, shopID int64, c Coordinate) error {
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := e.client.Index().
		Index(e.index).
		Id(strconv.FormatInt(shopID, 10)).
		BodyJson(elasticShopDoc{ShopID: shopID, Location: elastic.GeoPointFromLatLon(c.Latitude, c.Longitude)}).
		Do(ctx)
	return err
}

func (e *ElasticIndex) Remove(ctx context.Context, shopID int64) error {
	_, err := e.client.Delete().Index(e.index).Id(strconv.FormatInt(shopID, 10)).Do(ctx)
	if elastic.IsNotFound(err) {
		return nil
	}
	return err
}

func (e *ElasticIndex) WithinRadius(ctx context.Context, origin Coordinate, radiusMeters float64) ([]Hit, error) {
	if err := origin.Validate(); err != nil {
		return nil, err
	}
	radius := ClampRadius(radiusMeters)
	query := elastic.NewGeoDistanceQuery("location").
		Point(origin.Latitude, origin.Longitude).
		Distance(fmt.Sprintf("%fm", radius)).
		DistanceType("arc")
	sorter := elastic.NewGeoDistanceSort("location").
		Point(origin.Latitude, origin.Longitude).
		Asc().
		Unit("m").
		DistanceType("arc")

	var (
		hits  []Hit
		after []interface{}
	)
	for {
		svc := e.client.Search().
			Index(e.index).
			Query(query).
			// shop_id breaks distance ties so the search_after cursor is unique
			SortBy(sorter, elastic.NewFieldSort("shop_id").Asc()).
			Size(e.pageSize).
			TrackTotalHits(false)
		if after != nil {
			svc = svc.SearchAfter(after...)
		}
		res, err := svc.Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("elastic geo search: %w", err)
		}
		if res.Hits == nil || len(res.Hits.Hits) == 0 {
			break
		}
		for _, h := range res.Hits.Hits {
			if hit, ok := decodeHit(h, origin); ok {
				hits = append(hits, hit)
			}
		}
		last := res.Hits.Hits[len(res.Hits.Hits)-1]
		if len(res.Hits.Hits) < e.pageSize || len(last.Sort) == 0 {
			break
		}
		after = last.Sort
	}
	if hits == nil {
		return []Hit{}, nil
	}
	hits = keepWithin(hits, radius)
	sortHits(hits)
	return hits, nil
}

func decodeHit(h *elastic.SearchHit, origin Coordinate) (Hit, bool) {
	var doc elasticShopDoc
	if err := json.Unmarshal(h.Source, &doc); err != nil || doc.Location == nil {
		return Hit{}, false
	}
	c := Coordinate{Latitude: doc.Location.Lat, Longitude: doc.Location.Lon}
	dist, ok := sortDistance(h.Sort)
	if !ok {
		dist = Distance(origin, c)
	}
	return Hit{ShopID: doc.ShopID, Coordinate: c, DistanceMeters: dist}, true
}

// sortDistance reads the geo_distance sort value, in meters.
func sortDistance(values []interface{}) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	switch v := values[0].(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
