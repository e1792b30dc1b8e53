package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/Nikhi-l37/local-inventory-project/internal/geo"
)

const defaultReindexBatch = 500

// Reindexer 从 tb_shop 全量重建地理索引。写索引交给 ants 协程池并发执行，
// 单条失败只记日志，最后汇总失败数
type Reindexer struct {
	shops     *ShopService
	index     geo.Index
	batchSize int
	workers   int
	log       *zap.Logger
}

// ReindexStats 一次重建的结果
type ReindexStats struct {
	Indexed int
	Failed  int
}

func NewReindexer(shops *ShopService, index geo.Index, batchSize, workers int, log *zap.Logger) *Reindexer {
	if log == nil {
		log = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = defaultReindexBatch
	}
	if workers <= 0 {
		workers = 1
	}
	return &Reindexer{shops: shops, index: index, batchSize: batchSize, workers: workers, log: log}
}

// Run 按主键游标分批读取；ctx 取消时停止提交并等待已提交的任务结束
func (r *Reindexer) Run(ctx context.Context) (ReindexStats, error) {
	pool, err := ants.NewPool(r.workers)
	if err != nil {
		return ReindexStats{}, err
	}
	defer pool.Release()

	var (
		wg      sync.WaitGroup
		indexed atomic.Int64
		failed  atomic.Int64
		afterID int64
	)
	var runErr error
	for {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		batch, err := r.shops.ListAfter(ctx, afterID, r.batchSize)
		if err != nil {
			runErr = err
			break
		}
		if len(batch) == 0 {
			break
		}
		for _, shop := range batch {
			shop := shop
			wg.Add(1)
			submitErr := pool.Submit(func() {
				defer wg.Done()
				if err := r.index.Upsert(ctx, shop.ID, shop.Coordinate()); err != nil {
					failed.Add(1)
					r.log.Warn("reindex shop failed", zap.Int64("shopId", shop.ID), zap.Error(err))
					return
				}
				indexed.Add(1)
			})
			if submitErr != nil {
				wg.Done()
				runErr = submitErr
				break
			}
		}
		if runErr != nil {
			break
		}
		afterID = batch[len(batch)-1].ID
		r.log.Debug("reindex batch submitted", zap.Int64("afterId", afterID), zap.Int("size", len(batch)))
	}
	wg.Wait()

	stats := ReindexStats{Indexed: int(indexed.Load()), Failed: int(failed.Load())}
	if runErr == nil && stats.Failed > 0 {
		runErr = errors.New("some shops could not be indexed")
	}
	r.log.Info("reindex finished", zap.Int("indexed", stats.Indexed), zap.Int("failed", stats.Failed), zap.Error(runErr))
	return stats, runErr
}
