package data

import (
	"context"
	"fmt"
	"time"

	"github.com/olivere/elastic/v7"

	"github.com/Nikhi-l37/local-inventory-project/internal/config"
)

// NewElastic 连接集群并 ping 确认可用
func NewElastic(ctx context.Context, cfg config.ElasticConfig) (*elastic.Client, error) {
	if len(cfg.URLs) == 0 {
		return nil, fmt.Errorf("elastic: no urls configured")
	}
	opts := []elastic.ClientOptionFunc{
		elastic.SetURL(cfg.URLs...),
		elastic.SetSniff(cfg.Sniff),
		elastic.SetHealthcheckInterval(30 * time.Second),
	}
	if cfg.Username != "" {
		opts = append(opts, elastic.SetBasicAuth(cfg.Username, cfg.Password))
	}
	client, err := elastic.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("elastic client: %w", err)
	}
	if _, _, err := client.Ping(cfg.URLs[0]).Do(ctx); err != nil {
		client.Stop()
		return nil, fmt.Errorf("elastic ping: %w", err)
	}
	return client, nil
}
