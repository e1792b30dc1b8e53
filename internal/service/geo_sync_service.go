package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Nikhi-l37/local-inventory-project/internal/geo"
	"github.com/Nikhi-l37/local-inventory-project/internal/model"
	"github.com/Nikhi-l37/local-inventory-project/internal/notify"
	"github.com/Nikhi-l37/local-inventory-project/internal/observability"
)

var errRetryEnqueued = errors.New("retry enqueued")

// MessageWriter *kafka.Writer 的生产端接口，测试中可替换
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// MessageReader *kafka.Reader 的消费端接口
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Topic 绑定 writer 与其主题名，便于埋点
type Topic struct {
	Name   string
	Writer MessageWriter
}

// GeoSyncTopics 补偿链路的主题、重试主题与死信主题；Main.Writer 为 nil 时补偿关闭，失败只记日志
type GeoSyncTopics struct {
	Main        Topic
	Retry       Topic
	DLQ         Topic
	MainReader  MessageReader
	RetryReader MessageReader
	DLQReader   MessageReader
}

// geoSyncMessage 地理索引补偿消息。消费时以数据库为准重新读取商铺，
// 因此消息乱序或重复投递都不会写入过期坐标
type geoSyncMessage struct {
	ShopID      int64  `json:"shopId"`
	Op          string `json:"op"`
	CreatedAt   int64  `json:"createdAt"`
	RetryCount  int    `json:"retryCount"`
	NextRetryAt int64  `json:"nextRetryAt"`
	LastError   string `json:"lastError,omitempty"`
}

const (
	geoOpUpsert = "upsert"
	geoOpRemove = "remove"
)

// GeoSyncService 保持地理索引与 tb_shop 一致：先同步写索引，失败再经 Kafka 重试，最终进入死信
type GeoSyncService struct {
	db         *gorm.DB
	index      geo.Index
	topics     GeoSyncTopics
	maxRetries int
	notifier   notify.Notifier
	alertTo    string
	metrics    *observability.SearchMetrics
	log        *zap.Logger
	sleep      func(context.Context, time.Duration) error
	now        func() time.Time
}

func NewGeoSyncService(
	db *gorm.DB,
	index geo.Index,
	topics GeoSyncTopics,
	maxRetries int,
	notifier notify.Notifier,
	alertTo string,
	metrics *observability.SearchMetrics,
	log *zap.Logger,
) *GeoSyncService {
	if log == nil {
		log = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = maxRetryCount
	}
	return &GeoSyncService{
		db:         db,
		index:      index,
		topics:     topics,
		maxRetries: maxRetries,
		notifier:   notifier,
		alertTo:    alertTo,
		metrics:    metrics,
		log:        log,
		sleep:      sleepCtx,
		now:        time.Now,
	}
}

// Start 启动主题、重试与死信三个消费者，ctx 取消后退出
func (s *GeoSyncService) Start(ctx context.Context) {
	if s.topics.MainReader != nil {
		go s.consumeLoop(ctx, s.topics.MainReader, "consumeGeoSync", s.handleSync)
	}
	if s.topics.RetryReader != nil {
		go s.consumeLoop(ctx, s.topics.RetryReader, "consumeGeoSyncRetry", s.handleSync)
	}
	if s.topics.DLQReader != nil {
		go s.consumeLoop(ctx, s.topics.DLQReader, "consumeGeoSyncDLQ", s.handleDLQ)
	}
}

// Upsert 写入商铺坐标，失败时投递补偿消息
func (s *GeoSyncService) Upsert(ctx context.Context, shop *model.Shop) {
	if s == nil {
		return
	}
	if err := s.index.Upsert(ctx, shop.ID, shop.Coordinate()); err != nil {
		if errors.Is(err, geo.ErrOutOfIndexRange) {
			// 重试也写不进去，不进补偿队列
			s.log.Error("geo index rejected shop location", zap.Int64("shopId", shop.ID), zap.Error(err))
			return
		}
		s.log.Warn("geo index upsert failed, enqueue compensation", zap.Int64("shopId", shop.ID), zap.Error(err))
		s.enqueue(ctx, geoSyncMessage{ShopID: shop.ID, Op: geoOpUpsert, LastError: err.Error()})
	}
}

// CheckLocation 校验坐标合法且索引后端能够存储
func (s *GeoSyncService) CheckLocation(c geo.Coordinate) error {
	if s == nil {
		return c.Validate()
	}
	return geo.CheckIndexable(s.index, c)
}

// Remove 从索引删除商铺，失败时投递补偿消息
func (s *GeoSyncService) Remove(ctx context.Context, shopID int64) {
	if s == nil {
		return
	}
	if err := s.index.Remove(ctx, shopID); err != nil {
		s.log.Warn("geo index remove failed, enqueue compensation", zap.Int64("shopId", shopID), zap.Error(err))
		s.enqueue(ctx, geoSyncMessage{ShopID: shopID, Op: geoOpRemove, LastError: err.Error()})
	}
}

func (s *GeoSyncService) enqueue(ctx context.Context, msg geoSyncMessage) {
	if s.topics.Main.Writer == nil {
		s.log.Error("geo sync compensation disabled, index may be stale", zap.Int64("shopId", msg.ShopID))
		return
	}
	msg.CreatedAt = s.now().Unix()
	// 请求 ctx 可能随响应结束而取消，补偿消息单独给一个超时
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	_ = s.publish(pubCtx, s.topics.Main, msg)
}

type consumeOutcome int

const (
	consumeSuccess consumeOutcome = iota
	consumeRetryEnqueued
	consumeError
)

// consumeLoop 通用消费循环：拉取、反序列化、埋点、提交 offset，业务交给 handler
func (s *GeoSyncService) consumeLoop(
	ctx context.Context,
	reader MessageReader,
	name string,
	handler func(context.Context, geoSyncMessage, trace.Span) (consumeOutcome, error),
) {
	s.log.Info(fmt.Sprintf("%s started", name))
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.log.Info(fmt.Sprintf("%s stopped", name))
				return
			}
			s.log.Error(fmt.Sprintf("%s fetch message error", name), zap.Error(err))
			if s.sleep(ctx, time.Second) != nil {
				return
			}
			continue
		}
		if done := s.consumeOne(ctx, reader, name, msg, handler); done {
			return
		}
	}
}

// consumeOne 处理单条消息，返回 true 表示 ctx 已取消应退出循环
func (s *GeoSyncService) consumeOne(
	ctx context.Context,
	reader MessageReader,
	name string,
	msg kafka.Message,
	handler func(context.Context, geoSyncMessage, trace.Span) (consumeOutcome, error),
) bool {
	var payload geoSyncMessage
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		s.log.Error(fmt.Sprintf("%s parse message error", name), zap.Error(err))
		_ = reader.CommitMessages(ctx, msg)
		return false
	}
	topic := msg.Topic
	if topic == "" {
		topic = "unknown"
	}
	consumeCtx, span := observability.StartConsumeSpan(ctx, msg)
	span.SetAttributes(attribute.Int64("shop.id", payload.ShopID), attribute.Int("geosync.retry", payload.RetryCount))
	start := time.Now()

	outcome, err := handler(consumeCtx, payload, span)
	if err != nil {
		span.RecordError(err)
	}
	span.End()

	switch outcome {
	case consumeError:
		s.metrics.ObserveGeoSyncConsume(topic, "error", time.Since(start))
		s.log.Error(fmt.Sprintf("%s handle error", name), zap.Error(err), zap.Int64("shopId", payload.ShopID))
		// 不提交 offset，稍后重新拉取
		return s.sleep(ctx, 200*time.Millisecond) != nil
	case consumeRetryEnqueued:
		s.metrics.ObserveGeoSyncConsume(topic, "retry", time.Since(start))
	default:
		s.metrics.ObserveGeoSyncConsume(topic, "success", time.Since(start))
	}
	if err := reader.CommitMessages(ctx, msg); err != nil {
		s.log.Error(fmt.Sprintf("%s commit error", name), zap.Error(err), zap.Int64("shopId", payload.ShopID))
	}
	return false
}

func (s *GeoSyncService) handleSync(ctx context.Context, payload geoSyncMessage, _ trace.Span) (consumeOutcome, error) {
	if payload.NextRetryAt > 0 {
		if delay := time.Unix(payload.NextRetryAt, 0).Sub(s.now()); delay > 0 {
			if err := s.sleep(ctx, delay); err != nil {
				return consumeError, err
			}
		}
	}
	if err := s.apply(ctx, payload); err != nil {
		s.log.Warn("geo sync apply failed", zap.Int64("shopId", payload.ShopID), zap.Int("retryCount", payload.RetryCount), zap.Error(err))
		if pubErr := s.publishRetryOrDLQ(ctx, payload, err); !errors.Is(pubErr, errRetryEnqueued) {
			return consumeError, pubErr
		}
		return consumeRetryEnqueued, err
	}
	s.log.Info("geo sync applied", zap.Int64("shopId", payload.ShopID), zap.String("op", payload.Op), zap.Int("retryCount", payload.RetryCount))
	return consumeSuccess, nil
}

// apply 以数据库当前状态为准：商铺存在则写入坐标，不存在则从索引删除
func (s *GeoSyncService) apply(ctx context.Context, payload geoSyncMessage) error {
	var shop model.Shop
	err := s.db.WithContext(ctx).Select("id", "latitude", "longitude").First(&shop, payload.ShopID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.index.Remove(ctx, payload.ShopID)
	}
	if err != nil {
		return err
	}
	return s.index.Upsert(ctx, shop.ID, shop.Coordinate())
}

// publishRetryOrDLQ 未超过最大重试次数写入重试主题，否则进入死信
func (s *GeoSyncService) publishRetryOrDLQ(ctx context.Context, payload geoSyncMessage, cause error) error {
	payload.RetryCount++
	payload.LastError = cause.Error()
	if payload.RetryCount <= s.maxRetries {
		payload.NextRetryAt = s.now().Add(retryBackoff(payload.RetryCount)).Unix()
		s.metrics.ObserveRetry("retry")
		if err := s.publish(ctx, s.topics.Retry, payload); err != nil {
			return err
		}
		return errRetryEnqueued
	}
	payload.NextRetryAt = 0
	s.metrics.ObserveRetry("dlq")
	if err := s.publish(ctx, s.topics.DLQ, payload); err != nil {
		return err
	}
	return errRetryEnqueued
}

// handleDLQ 死信只做告警，需人工执行 reindex
func (s *GeoSyncService) handleDLQ(ctx context.Context, payload geoSyncMessage, span trace.Span) (consumeOutcome, error) {
	if s.notifier == nil || s.alertTo == "" {
		s.log.Warn("geo sync dlq alert skipped: no recipient", zap.Int64("shopId", payload.ShopID))
		return consumeSuccess, nil
	}
	subject := fmt.Sprintf("[DLQ] geo index sync failed for shop %d", payload.ShopID)
	body := fmt.Sprintf(
		"Geo index sync for a shop reached the dead-letter topic. Run cmd/reindex to repair it.\n\nshopId: %d\nop: %s\nretryCount: %d\nlastError: %s\ncreatedAt: %s\n",
		payload.ShopID,
		payload.Op,
		payload.RetryCount,
		payload.LastError,
		time.Unix(payload.CreatedAt, 0).UTC().Format(time.RFC3339),
	)
	if err := s.notifier.Send(ctx, s.alertTo, subject, body); err != nil {
		span.RecordError(err)
		s.log.Error("geo sync dlq alert failed", zap.Error(err), zap.Int64("shopId", payload.ShopID))
		return consumeSuccess, nil
	}
	s.log.Info("geo sync dlq alert sent", zap.Int64("shopId", payload.ShopID))
	return consumeSuccess, nil
}

func (s *GeoSyncService) publish(ctx context.Context, topic Topic, payload geoSyncMessage) error {
	if topic.Writer == nil {
		return fmt.Errorf("no writer for topic %q", topic.Name)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	message := kafka.Message{
		// shopId 作为 key，同一商铺的消息落到同一分区
		Key:   []byte(strconv.FormatInt(payload.ShopID, 10)),
		Value: data,
	}
	spanCtx, span := otel.Tracer("local-inventory/geosync").Start(ctx, "geosync.produce "+topic.Name,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", topic.Name),
		),
	)
	defer span.End()
	observability.InjectKafkaHeaders(spanCtx, &message.Headers)
	if err := topic.Writer.WriteMessages(spanCtx, message); err != nil {
		span.RecordError(err)
		s.log.Error("geo sync publish failed", zap.String("topic", topic.Name), zap.Int64("shopId", payload.ShopID), zap.Error(err))
		s.metrics.ObserveGeoSyncPublish(topic.Name, "error")
		return err
	}
	s.metrics.ObserveGeoSyncPublish(topic.Name, "success")
	return nil
}

const maxRetryCount = 3

// retryBackoff 重试回退时间，指数增长，最大 30 秒
func retryBackoff(retryCount int) time.Duration {
	if retryCount <= 0 {
		return time.Second
	}
	backoff := time.Second * time.Duration(1<<uint(retryCount-1))
	if backoff > 30*time.Second {
		return 30 * time.Second
	}
	return backoff
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
