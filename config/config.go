package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	Session      SessionConfig      `mapstructure:"session"`
	OSS          OSSConfig          `mapstructure:"oss"`
	OAuth        OAuthConfig        `mapstructure:"oauth"`
	Email        EmailConfig        `mapstructure:"email"`
	Queue        QueueConfig        `mapstructure:"queue"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Payment      PaymentConfig      `mapstructure:"payment"`
	Cron         CronConfig         `mapstructure:"cron"`
	Notification NotificationConfig `mapstructure:"notification"`
	RateLimit    RateLimitConfig    `mapstructure:"ratelimit"`
	JP           JPConfig           `mapstructure:"jp"`
	Upload       UploadConfig       `mapstructure:"upload"`
}

type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
	BaseURL string `mapstructure:"base_url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
	LogLevel     string `mapstructure:"log_level"` // silent, error, warn, info
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type SessionConfig struct {
	CookieName string `mapstructure:"cookie_name"`
	Domain     string `mapstructure:"domain"`
	Secure     bool   `mapstructure:"secure"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	CDNDomain       string `mapstructure:"cdn_domain"`
}

type OAuthConfig struct {
	Github GithubOAuthConfig `mapstructure:"github"`
}

type GithubOAuthConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
}

type EmailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type QueueConfig struct {
	NotificationQueue string `mapstructure:"notification_queue"`
	MaxWorkers        int    `mapstructure:"max_workers"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// PaymentConfig 支付网关（订阅 + 一次性订单）
type PaymentConfig struct {
	BaseURL          string `mapstructure:"base_url"`
	ClientID         string `mapstructure:"client_id"`
	ClientSecret     string `mapstructure:"client_secret"`
	APIVersion       string `mapstructure:"api_version"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	WebhookSecret    string `mapstructure:"webhook_secret"`
	WebhookTolerance int    `mapstructure:"webhook_tolerance_seconds"` // 0 表示不校验时间戳
	ReturnURL        string `mapstructure:"return_url"`
	DedupeEvents     bool   `mapstructure:"dedupe_events"`
	DedupeTTLHours   int    `mapstructure:"dedupe_ttl_hours"`
}

// CronConfig 定时任务；Secret 用于外部调度器调用 /cron/* 接口
type CronConfig struct {
	Secret                  string `mapstructure:"secret"`
	GoalReminderSpec        string `mapstructure:"goal_reminder_spec"`
	ExpireSubscriptionsSpec string `mapstructure:"expire_subscriptions_spec"`
	ExpireSpotlightsSpec    string `mapstructure:"expire_spotlights_spec"`
	Concurrency             int    `mapstructure:"concurrency"`
}

type NotificationConfig struct {
	Channel string `mapstructure:"channel"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// JPConfig JoyPearls 相关配置
type JPConfig struct {
	SpotlightDays int `mapstructure:"spotlight_days"`
}

type UploadConfig struct {
	MaxSize           int64    `mapstructure:"max_size"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

func Load(configPath string) (*Config, error) {
	// 优先读取 config.local.yaml（包含真实密钥，不提交到 git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	setDefaults(v)

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("jwt.expire_hours", 72)
	v.SetDefault("session.cookie_name", "thrive_session")
	v.SetDefault("queue.notification_queue", "thrive:notifications")
	v.SetDefault("queue.max_workers", 4)
	v.SetDefault("payment.api_version", "2025-01-01")
	v.SetDefault("payment.timeout_seconds", 15)
	v.SetDefault("payment.dedupe_ttl_hours", 72)
	v.SetDefault("cron.goal_reminder_spec", "0 9 * * *")
	v.SetDefault("cron.expire_subscriptions_spec", "15 0 * * *")
	v.SetDefault("cron.expire_spotlights_spec", "*/30 * * * *")
	v.SetDefault("cron.concurrency", 8)
	v.SetDefault("notification.channel", "thrive:realtime")
	v.SetDefault("ratelimit.requests_per_second", 5)
	v.SetDefault("ratelimit.burst", 20)
	v.SetDefault("jp.spotlight_days", 1)
	v.SetDefault("upload.max_size", 5<<20)
	v.SetDefault("upload.allowed_extensions", []string{".jpg", ".jpeg", ".png", ".webp"})
}

// Validate 生产模式下检查必填密钥
func (c *Config) Validate() error {
	if c.Server.Mode != "release" {
		return nil
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required in release mode")
	}
	if c.Cron.Secret == "" {
		return errors.New("cron.secret is required in release mode")
	}
	if c.Payment.WebhookSecret == "" {
		return errors.New("payment.webhook_secret is required in release mode")
	}
	return nil
}
