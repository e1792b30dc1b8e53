package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/Nikhi-l37/local-inventory-project/internal/auth"
	"github.com/Nikhi-l37/local-inventory-project/internal/config"
	"github.com/Nikhi-l37/local-inventory-project/internal/data"
	"github.com/Nikhi-l37/local-inventory-project/internal/handler"
	"github.com/Nikhi-l37/local-inventory-project/internal/middleware"
	"github.com/Nikhi-l37/local-inventory-project/internal/notify"
	"github.com/Nikhi-l37/local-inventory-project/internal/observability"
	"github.com/Nikhi-l37/local-inventory-project/internal/router"
	"github.com/Nikhi-l37/local-inventory-project/internal/service"
	"github.com/Nikhi-l37/local-inventory-project/internal/storage"
	"github.com/Nikhi-l37/local-inventory-project/pkg/logger"
)

// version 由构建时 -ldflags 注入
var version = "dev"

func main() {
	cfgPath := os.Getenv("INVENTORY_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/app.yaml"
	}
	// 加载配置
	cfg := config.MustLoad(cfgPath)
	serviceName := cfg.Observability.ServiceName
	environment := cfg.Observability.Environment
	log, err := logger.New(cfg.Logging.Level, environment)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log = log.With(
		zap.String("service", serviceName),
		zap.String("env", environment),
	)
	log.Info("loaded config", zap.String("path", cfgPath), zap.String("searchBackend", cfg.Search.Backend))

	tracingShutdown, err := observability.SetupTracing(context.Background(),
		observability.TracingConfig{
			Enabled:          cfg.Observability.Tracing.Enabled,
			OTLPGrpcEndpoint: cfg.Observability.Tracing.OTLPGrpcEndpoint,
			Insecure:         cfg.Observability.Tracing.Insecure,
			SampleRate:       cfg.Observability.Tracing.SampleRate,
		},
		observability.ResourceConfig{
			ServiceName:    serviceName,
			ServiceVersion: version,
			Environment:    environment,
		})
	if err != nil {
		log.Fatal("tracing init failed", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracingShutdown(shutdownCtx); err != nil {
			log.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	// 初始化 MySQL
	db, err := data.NewMySQL(cfg.MySQL, log)
	if err != nil {
		log.Fatal("mysql init failed", zap.Error(err))
	}
	if cfg.Observability.Tracing.Enabled {
		if err := db.Use(tracing.NewPlugin()); err != nil {
			log.Warn("gorm tracing plugin init failed", zap.Error(err))
		}
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("mysql db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	log.Info("connected to mysql")

	checks := map[string]handler.CheckFunc{"mysql": handler.MySQLCheck(sqlDB)}

	// Redis 承载 GEO 索引（redis 后端）与登录验证码
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = data.NewRedis(cfg.Redis)
		if err := data.Ping(context.Background(), redisClient); err != nil {
			log.Fatal("redis ping failed", zap.Error(err))
		}
		defer redisClient.Close()
		if cfg.Observability.Tracing.Enabled {
			if err := redisotel.InstrumentTracing(redisClient); err != nil {
				log.Warn("redis tracing init failed", zap.Error(err))
			}
		}
		checks["redis"] = handler.RedisCheck(redisClient)
		log.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
	} else if cfg.Auth.OTP.Enabled {
		log.Fatal("auth.otp.enabled requires redis.addr")
	}

	var rdb redis.Cmdable
	if redisClient != nil {
		rdb = redisClient
	}
	index, err := data.NewGeoIndex(context.Background(), cfg, rdb)
	if err != nil {
		log.Fatal("geo index init failed", zap.Error(err))
	}
	defer index.Close()
	if index.Elastic != nil {
		checks["elastic"] = handler.ElasticCheck(index.Elastic)
	}

	// Kafka 仅用于地理索引补偿，未配置 broker 时补偿关闭
	var topics service.GeoSyncTopics
	if len(cfg.Kafka.Brokers) > 0 {
		mainWriter := data.NewKafkaWriter(cfg.Kafka, cfg.Kafka.GeoSyncTopic)
		retryWriter := data.NewKafkaWriter(cfg.Kafka, cfg.Kafka.GeoSyncRetryTopic)
		dlqWriter := data.NewKafkaWriter(cfg.Kafka, cfg.Kafka.GeoSyncDLQTopic)
		mainReader := data.NewKafkaReader(cfg.Kafka, cfg.Kafka.GeoSyncTopic, cfg.Kafka.GroupID)
		// 重试消费者 - 到期后重新对齐索引
		retryReader := data.NewKafkaReader(cfg.Kafka, cfg.Kafka.GeoSyncRetryTopic, cfg.Kafka.GroupID+"-retry")
		// 死信消费者 - 审计与告警
		dlqReader := data.NewKafkaReader(cfg.Kafka, cfg.Kafka.GeoSyncDLQTopic, cfg.Kafka.GroupID+"-dlq")
		defer mainWriter.Close()
		defer retryWriter.Close()
		defer dlqWriter.Close()
		defer mainReader.Close()
		defer retryReader.Close()
		defer dlqReader.Close()
		topics = service.GeoSyncTopics{
			Main:        service.Topic{Name: cfg.Kafka.GeoSyncTopic, Writer: mainWriter},
			Retry:       service.Topic{Name: cfg.Kafka.GeoSyncRetryTopic, Writer: retryWriter},
			DLQ:         service.Topic{Name: cfg.Kafka.GeoSyncDLQTopic, Writer: dlqWriter},
			MainReader:  mainReader,
			RetryReader: retryReader,
			DLQReader:   dlqReader,
		}
		checks["kafka"] = handler.KafkaCheck(cfg.Kafka.Brokers)
		log.Info("configured kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.GeoSyncTopic),
			zap.String("retryTopic", cfg.Kafka.GeoSyncRetryTopic),
			zap.String("dlqTopic", cfg.Kafka.GeoSyncDLQTopic),
			zap.String("groupID", cfg.Kafka.GroupID),
		)
	} else {
		log.Warn("kafka brokers not configured, geo index compensation disabled")
	}

	var otpStore service.OTPStore
	if redisClient != nil {
		otpStore = service.NewRedisOTPStore(redisClient)
	}

	var (
		metricsRegistry *prometheus.Registry
		searchMetrics   *observability.SearchMetrics
	)
	if cfg.Observability.Metrics.Enabled {
		metricsRegistry = observability.NewMetricsRegistry(observability.BuildInfo{
			Service:     serviceName,
			Version:     version,
			Environment: environment,
		})
		searchMetrics = observability.NewSearchMetrics(metricsRegistry, serviceName)
	}

	jwt := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Auth.Issuer)
	services := service.NewRegistry(service.Deps{
		DB:       db,
		Index:    index,
		Topics:   topics,
		OTP:      otpStore,
		JWT:      jwt,
		Notifier: notify.New(cfg.SMTP, log.Named("notify")),
		Metrics:  searchMetrics,
		Logger:   log,
		Config:   cfg,
	})

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	services.GeoSync.Start(ctx)
	// 进程内索引不持久化，启动时从数据库重建
	if index.Backend == "memory" {
		if _, err := service.NewReindexer(services.Shop, index, 0, 4, log.Named("reindex")).Run(ctx); err != nil {
			log.Fatal("memory geo index rebuild failed", zap.Error(err))
		}
	}

	// 初始化 Gin 引擎
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(middleware.RequestIDMiddleware(cfg.Observability.Logging.RequestIDHeader))
	engine.Use(middleware.ErrorHandler(log))
	// 集成 OpenTelemetry 中间件
	if cfg.Observability.Tracing.Enabled {
		engine.Use(otelgin.Middleware(serviceName))
	}
	if cfg.Observability.Metrics.Enabled {
		metricsPath := cfg.Observability.Metrics.Path
		metrics := observability.NewHTTPMetrics(metricsRegistry, serviceName, metricsPath, "/healthz", "/readyz")
		engine.Use(metrics.Middleware())
		// 注册 Prometheus 指标端点
		engine.GET(metricsPath, gin.WrapH(metrics.Handler()))
	}
	engine.Use(middleware.RequestLogger(log, "/healthz", "/readyz", cfg.Observability.Metrics.Path))

	// 注册健康检查端点
	handler.NewHealthHandler(checks, log).RegisterRoutes(engine)

	log.Info("configured upload directory", zap.String("path", cfg.App.ImageUploadDir))
	router.RegisterRoutes(engine, router.Deps{
		Services: services,
		Store:    storage.NewLocalStore(cfg.App.ImageUploadDir, cfg.App.PublicBaseURL, cfg.App.MaxUploadBytes),
		JWT:      jwt,
		Config:   cfg,
		Logger:   log,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// 启动 HTTP 服务（异步）
	go func() {
		log.Info("starting http server", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server run failed", zap.Error(err))
		}
	}()

	// 监听系统信号，执行优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")
	stop()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	log.Info("server exited")
}
