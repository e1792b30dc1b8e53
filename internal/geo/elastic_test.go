package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/olivere/elastic/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSearchCluster serves canned pages in request order.
type fakeSearchCluster struct {
	mu       sync.Mutex
	pages    []string
	requests []map[string]interface{}
}

func (f *fakeSearchCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, "/_search") {
		http.NotFound(w, r)
		return
	}
	var body map[string]interface{}
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	page := len(f.requests)
	f.requests = append(f.requests, body)
	f.mu.Unlock()

	hits := "[]"
	if page < len(f.pages) {
		hits = f.pages[page]
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"took":1,"timed_out":false,"hits":{"hits":%s}}`, hits)
}

func shopHit(id int64, lat, lon float64, sort string) string {
	doc := fmt.Sprintf(`{"_index":"shops_geo","_id":"%d","_source":{"shop_id":%d,"location":{"lat":%f,"lon":%f}}`, id, id, lat, lon)
	if sort != "" {
		doc += `,"sort":` + sort
	}
	return doc + "}"
}

func newFakeElasticIndex(t *testing.T, pageSize int, pages ...string) (*ElasticIndex, *fakeSearchCluster) {
	t.Helper()
	cluster := &fakeSearchCluster{pages: pages}
	srv := httptest.NewServer(cluster)
	t.Cleanup(srv.Close)

	client, err := elastic.NewClient(
		elastic.SetURL(srv.URL),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	)
	require.NoError(t, err)
	t.Cleanup(client.Stop)
	return NewElasticIndex(client, "", pageSize), cluster
}

func TestElasticIndexPagesThroughAllHits(t *testing.T) {
	origin := Coordinate{Latitude: 17.385, Longitude: 78.4867}
	idx, cluster := newFakeElasticIndex(t, 2,
		"["+shopHit(1, 17.386, 78.4867, "[120.0,1]")+","+shopHit(2, 17.389, 78.4867, "[480.5,2]")+"]",
		// page two: a hit without sort values falls back to Distance, one past the radius is dropped
		"["+shopHit(3, 17.39, 78.4867, "")+","+shopHit(4, 17.6, 78.4867, "[25000,4]")+"]",
	)

	hits, err := idx.WithinRadius(context.Background(), origin, 10_000)
	require.NoError(t, err)

	require.Len(t, hits, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{hits[0].ShopID, hits[1].ShopID, hits[2].ShopID})
	assert.Equal(t, 120.0, hits[0].DistanceMeters)
	assert.Equal(t, 480.5, hits[1].DistanceMeters)
	assert.InDelta(t, Distance(origin, hits[2].Coordinate), hits[2].DistanceMeters, 1e-9)

	// two full pages, then an empty one ends the scan
	require.Len(t, cluster.requests, 3)
	assert.NotContains(t, cluster.requests[0], "search_after")
	assert.Equal(t, float64(2), cluster.requests[0]["size"])
	assert.Equal(t, []interface{}{480.5, float64(2)}, cluster.requests[1]["search_after"])
}

func TestElasticIndexShortPageStops(t *testing.T) {
	idx, cluster := newFakeElasticIndex(t, 10,
		"["+shopHit(7, 17.386, 78.4867, "[100,7]")+"]",
	)
	hits, err := idx.WithinRadius(context.Background(), Coordinate{Latitude: 17.385, Longitude: 78.4867}, 5_000)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(7), hits[0].ShopID)
	assert.Len(t, cluster.requests, 1)
}

func TestElasticIndexNoHits(t *testing.T) {
	idx, _ := newFakeElasticIndex(t, 10)
	hits, err := idx.WithinRadius(context.Background(), Coordinate{Latitude: 1, Longitude: 1}, 5_000)
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)

	_, err = idx.WithinRadius(context.Background(), Coordinate{Latitude: 95, Longitude: 1}, 5_000)
	assert.ErrorIs(t, err, ErrInvalidCoordinate)
}

func TestSortDistance(t *testing.T) {
	cases := []struct {
		name   string
		values []interface{}
		want   float64
		ok     bool
	}{
		{"float", []interface{}{12.5, float64(3)}, 12.5, true},
		{"number", []interface{}{json.Number("481.25")}, 481.25, true},
		{"bad number", []interface{}{json.Number("abc")}, 0, false},
		{"string", []interface{}{"12"}, 0, false},
		{"empty", nil, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := sortDistance(tc.values)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
