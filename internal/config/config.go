package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 对应 configs/app.yaml 的完整结构
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	MySQL         MySQLConfig         `yaml:"mysql"`
	Redis         RedisConfig         `yaml:"redis"`
	Kafka         KafkaConfig         `yaml:"kafka"`
	Elastic       ElasticConfig       `yaml:"elastic"`
	SMTP          SMTPConfig          `yaml:"smtp"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
	App           AppConfig           `yaml:"app"`
	Auth          AuthConfig          `yaml:"auth"`
	Search        SearchConfig        `yaml:"search"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type MySQLConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	// Timeout 同时作用于建连与读写；GEO 查询超过该值按依赖故障处理
	Timeout time.Duration `yaml:"timeout"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
	// 地理索引补偿：主题、重试主题与死信主题
	GeoSyncTopic      string `yaml:"geo_sync_topic"`
	GeoSyncRetryTopic string `yaml:"geo_sync_retry_topic"`
	GeoSyncDLQTopic   string `yaml:"geo_sync_dlq_topic"`
	MaxRetries        int    `yaml:"max_retries"`
}

type ElasticConfig struct {
	URLs     []string `yaml:"urls"`
	Index    string   `yaml:"index"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	Sniff    bool     `yaml:"sniff"`
	// PageSize 每次 search_after 翻页的条数，不限制总命中数
	PageSize int `yaml:"page_size"`
}

type SMTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	User string `yaml:"user"`
	Pass string `yaml:"pass"`
	From string `yaml:"from"`
	// To 接收死信告警
	To string `yaml:"to"`
}

// Enabled 配置齐全时才发送邮件
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.Port > 0
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type ObservabilityConfig struct {
	ServiceName string         `yaml:"service_name"`
	Environment string         `yaml:"environment"`
	Tracing     TracingConfig  `yaml:"tracing"`
	Metrics     MetricsConfig  `yaml:"metrics"`
	Logging     RequestLogging `yaml:"logging"`
}

type TracingConfig struct {
	Enabled          bool    `yaml:"enabled"`
	OTLPGrpcEndpoint string  `yaml:"otlp_grpc_endpoint"`
	Insecure         bool    `yaml:"insecure"`
	SampleRate       float64 `yaml:"sample_rate"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type RequestLogging struct {
	RequestIDHeader string `yaml:"request_id_header"`
}

type AppConfig struct {
	ImageUploadDir string          `yaml:"image_upload_dir"`
	PublicBaseURL  string          `yaml:"public_base_url"`
	MaxUploadBytes int64           `yaml:"max_upload_bytes"`
	ShopCache      ShopCacheConfig `yaml:"shop_cache"`
}

// ShopCacheConfig 控制商铺行的进程内 LRU 缓存
type ShopCacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	JWTSecret        string        `yaml:"jwt_secret"`
	TokenTTL         time.Duration `yaml:"token_ttl"`
	Issuer           string        `yaml:"issuer"`
	ResetTokenTTL    time.Duration `yaml:"reset_token_ttl"`
	ResetURLTemplate string        `yaml:"reset_url_template"`
	OTP              OTPConfig     `yaml:"otp"`
}

type OTPConfig struct {
	Enabled     bool          `yaml:"enabled"`
	TTL         time.Duration `yaml:"ttl"`
	MaxAttempts int           `yaml:"max_attempts"`
	Cooldown    time.Duration `yaml:"cooldown"`
	MaxResends  int           `yaml:"max_resends"`
}

type SearchConfig struct {
	// Backend 取 redis、elastic 或 memory
	Backend        string          `yaml:"backend"`
	RedisKey       string          `yaml:"redis_key"`
	DefaultRadius  float64         `yaml:"default_radius_m"`
	Timeout        time.Duration   `yaml:"timeout"`
	Timezone       string          `yaml:"timezone"`
	OvernightHours bool            `yaml:"overnight_hours"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// Load 读取 YAML 配置；.env 与环境变量中的敏感项覆盖文件内容
func Load(path string) (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyEnv(cfg)
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad 加载失败直接 panic
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Default 只填默认值、不做校验的配置
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		cfg.MySQL.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("SMTP_PASS"); v != "" {
		cfg.SMTP.Pass = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("ELASTIC_URL"); v != "" {
		cfg.Elastic.URLs = splitList(v)
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8081
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 5 * time.Second
	}
	if cfg.MySQL.MaxOpenConns == 0 {
		cfg.MySQL.MaxOpenConns = 20
	}
	if cfg.MySQL.MaxIdleConns == 0 {
		cfg.MySQL.MaxIdleConns = 10
	}
	if cfg.MySQL.ConnMaxLifetime == 0 {
		cfg.MySQL.ConnMaxLifetime = time.Hour
	}
	if cfg.Redis.Timeout == 0 {
		cfg.Redis.Timeout = time.Second
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = "local-inventory"
	}
	if cfg.Kafka.GeoSyncTopic == "" {
		cfg.Kafka.GeoSyncTopic = "shop-geo-sync"
	}
	if cfg.Kafka.GeoSyncRetryTopic == "" {
		cfg.Kafka.GeoSyncRetryTopic = cfg.Kafka.GeoSyncTopic + "-retry"
	}
	if cfg.Kafka.GeoSyncDLQTopic == "" {
		cfg.Kafka.GeoSyncDLQTopic = cfg.Kafka.GeoSyncTopic + "-dlq"
	}
	if cfg.Kafka.MaxRetries == 0 {
		cfg.Kafka.MaxRetries = 3
	}
	if cfg.Elastic.Index == "" {
		cfg.Elastic.Index = "shops_geo"
	}
	if cfg.Elastic.PageSize == 0 {
		cfg.Elastic.PageSize = 1000
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "local-inventory"
	}
	if cfg.Observability.Environment == "" {
		cfg.Observability.Environment = "local"
	}
	if cfg.Observability.Metrics.Path == "" {
		cfg.Observability.Metrics.Path = "/metrics"
	}
	if cfg.Observability.Logging.RequestIDHeader == "" {
		cfg.Observability.Logging.RequestIDHeader = "X-Request-ID"
	}
	if cfg.App.ImageUploadDir == "" {
		cfg.App.ImageUploadDir = "uploads"
	}
	if cfg.App.PublicBaseURL == "" {
		cfg.App.PublicBaseURL = "/uploads"
	}
	if cfg.App.MaxUploadBytes == 0 {
		cfg.App.MaxUploadBytes = 5 << 20
	}
	if cfg.App.ShopCache.Size == 0 {
		cfg.App.ShopCache.Size = 1024
	}
	if cfg.App.ShopCache.TTL == 0 {
		cfg.App.ShopCache.TTL = 30 * time.Second
	}
	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "local-inventory"
	}
	if cfg.Auth.ResetTokenTTL == 0 {
		cfg.Auth.ResetTokenTTL = 15 * time.Minute
	}
	if cfg.Auth.ResetURLTemplate == "" {
		cfg.Auth.ResetURLTemplate = "http://localhost:5173/reset-password/%s"
	}
	if cfg.Auth.OTP.TTL == 0 {
		cfg.Auth.OTP.TTL = 5 * time.Minute
	}
	if cfg.Auth.OTP.MaxAttempts == 0 {
		cfg.Auth.OTP.MaxAttempts = 5
	}
	if cfg.Auth.OTP.Cooldown == 0 {
		cfg.Auth.OTP.Cooldown = 30 * time.Second
	}
	if cfg.Auth.OTP.MaxResends == 0 {
		cfg.Auth.OTP.MaxResends = 3
	}
	if cfg.Search.Backend == "" {
		cfg.Search.Backend = "redis"
	}
	if cfg.Search.RedisKey == "" {
		cfg.Search.RedisKey = "shop:geo"
	}
	if cfg.Search.DefaultRadius == 0 {
		cfg.Search.DefaultRadius = 10000
	}
	if cfg.Search.Timeout == 0 {
		cfg.Search.Timeout = 3 * time.Second
	}
	if cfg.Search.RateLimit.PerSecond == 0 {
		cfg.Search.RateLimit.PerSecond = 20
	}
	if cfg.Search.RateLimit.Burst == 0 {
		cfg.Search.RateLimit.Burst = 40
	}
}

// Validate 校验启动必需项
func (c *Config) Validate() error {
	var errs []error
	if c.MySQL.DSN == "" {
		errs = append(errs, errors.New("mysql.dsn is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	switch c.Search.Backend {
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr is required for the redis search backend"))
		}
	case "elastic":
		if len(c.Elastic.URLs) == 0 {
			errs = append(errs, errors.New("elastic.urls is required for the elastic search backend"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("search.backend %q is not one of redis, elastic, memory", c.Search.Backend))
	}
	if c.Search.Timezone != "" {
		if _, err := time.LoadLocation(c.Search.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("search.timezone: %w", err))
		}
	}
	if c.Search.DefaultRadius < 0 {
		errs = append(errs, errors.New("search.default_radius_m must not be negative"))
	}
	return errors.Join(errs...)
}

// Location 返回营业时间比较所用的时区，未配置时用本地时区
func (c SearchConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
