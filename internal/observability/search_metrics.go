package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SearchMetrics 定义搜索与地理索引同步相关的指标
type SearchMetrics struct {
	searchTotal    *prometheus.CounterVec
	searchLatency  *prometheus.HistogramVec // 搜索耗时分布
	searchResults  *prometheus.HistogramVec // 单次搜索返回条数
	geoSyncPublish *prometheus.CounterVec
	geoSyncConsume *prometheus.CounterVec
	geoSyncLatency *prometheus.HistogramVec // 索引补偿消费耗时
	geoSyncRetry   *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
}

func NewSearchMetrics(registry *prometheus.Registry, serviceName string) *SearchMetrics {
	if registry == nil {
		registry = NewMetricsRegistry()
	}

	constLabels := prometheus.Labels{}
	if serviceName != "" {
		constLabels["service"] = serviceName
	}

	searchTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "inventory",
		Subsystem:   "search",
		Name:        "requests_total",
		Help:        "Total search requests by target and outcome.",
		ConstLabels: constLabels,
	}, []string{"target", "result"})

	searchLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   "inventory",
		Subsystem:   "search",
		Name:        "request_duration_seconds",
		Help:        "Search duration in seconds.",
		Buckets:     []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2, 3, 5},
		ConstLabels: constLabels,
	}, []string{"target", "result"})

	searchResults := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   "inventory",
		Subsystem:   "search",
		Name:        "results",
		Help:        "Number of results returned per successful search.",
		Buckets:     []float64{0, 1, 5, 10, 25, 50, 100, 250},
		ConstLabels: constLabels,
	}, []string{"target"})

	geoSyncPublish := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "inventory",
		Subsystem:   "geosync",
		Name:        "publish_total",
		Help:        "Total geo index compensation messages published.",
		ConstLabels: constLabels,
	}, []string{"topic", "result"})

	geoSyncConsume := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "inventory",
		Subsystem:   "geosync",
		Name:        "consume_total",
		Help:        "Total geo index compensation messages consumed.",
		ConstLabels: constLabels,
	}, []string{"topic", "result"})

	geoSyncLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   "inventory",
		Subsystem:   "geosync",
		Name:        "consume_duration_seconds",
		Help:        "Geo index compensation handling duration in seconds.",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: constLabels,
	}, []string{"topic", "result"})

	geoSyncRetry := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "inventory",
		Subsystem:   "geosync",
		Name:        "retry_total",
		Help:        "Total retry or DLQ events.",
		ConstLabels: constLabels,
	}, []string{"phase"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace:   "inventory",
		Subsystem:   "cache",
		Name:        "lookups_total",
		Help:        "Shop cache lookups by outcome.",
		ConstLabels: constLabels,
	}, []string{"result"})

	registry.MustRegister(searchTotal, searchLatency, searchResults, geoSyncPublish, geoSyncConsume, geoSyncLatency, geoSyncRetry, cacheLookups)

	return &SearchMetrics{
		searchTotal:    searchTotal,
		searchLatency:  searchLatency,
		searchResults:  searchResults,
		geoSyncPublish: geoSyncPublish,
		geoSyncConsume: geoSyncConsume,
		geoSyncLatency: geoSyncLatency,
		geoSyncRetry:   geoSyncRetry,
		cacheLookups:   cacheLookups,
	}
}

// ObserveSearch 记录一次搜索的结果、返回条数与耗时
func (m *SearchMetrics) ObserveSearch(target, result string, count int, duration time.Duration) {
	if m == nil {
		return
	}
	if result == "" {
		result = "unknown"
	}
	m.searchTotal.WithLabelValues(target, result).Inc()
	m.searchLatency.WithLabelValues(target, result).Observe(duration.Seconds())
	if result == "ok" {
		m.searchResults.WithLabelValues(target).Observe(float64(count))
	}
}

// ObserveGeoSyncPublish 记录一次补偿消息发布的结果
func (m *SearchMetrics) ObserveGeoSyncPublish(topic, result string) {
	if m == nil {
		return
	}
	m.geoSyncPublish.WithLabelValues(topic, result).Inc()
}

// ObserveGeoSyncConsume 记录一次补偿消息消费的结果与耗时
func (m *SearchMetrics) ObserveGeoSyncConsume(topic, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.geoSyncConsume.WithLabelValues(topic, result).Inc()
	m.geoSyncLatency.WithLabelValues(topic, result).Observe(duration.Seconds())
}

// ObserveRetry 记录一次重试或死信处理事件
func (m *SearchMetrics) ObserveRetry(phase string) {
	if m == nil {
		return
	}
	m.geoSyncRetry.WithLabelValues(phase).Inc()
}

func (m *SearchMetrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}
