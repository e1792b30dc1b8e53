package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// BuildInfo 标识当前进程，写入 inventory_build_info
type BuildInfo struct {
	Service     string
	Version     string
	Environment string
}

// NewMetricsRegistry 注册 Go 与进程指标；传入 BuildInfo 时额外暴露一个恒为 1 的构建信息指标
func NewMetricsRegistry(build ...BuildInfo) *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if len(build) > 0 {
		b := build[0]
		info := prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "inventory_build_info",
			Help: "Build and environment of the running process.",
			ConstLabels: prometheus.Labels{
				"service":     b.Service,
				"version":     b.Version,
				"environment": b.Environment,
			},
		})
		info.Set(1)
		registry.MustRegister(info)
	}
	return registry
}
