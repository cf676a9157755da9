package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Log       LogConfig
	Blob      BlobConfig
	Notify    NotifyConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type AppConfig struct {
	Name        string
	Environment string
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	// DSN vacío => repos in-memory (modo dev), igual que el router del MVP.
	DSN string
}

type JWTConfig struct {
	// Secret vacío => modo dev: header X-Debug-Staff-Email.
	Secret   string
	TokenTTL time.Duration
	Issuer   string
}

type LogConfig struct {
	Level  string
	Format string // json | console
}

type BlobConfig struct {
	// Backend: "s3" o "memory".
	Backend  string
	S3Bucket string
	S3Region string
}

type NotifyConfig struct {
	// WebhookURL vacío => notifier noop.
	WebhookURL string
	Timeout    time.Duration
}

type RateLimitConfig struct {
	// Límite por IP en rutas públicas (agendado web).
	PublicRPS   float64
	PublicBurst int
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load lee config desde env (prefijo VET_), con defaults de dev.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.name", "vet-practice")
	v.SetDefault("app.environment", "development")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("db.dsn", "")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.token_ttl", 24*time.Hour)
	v.SetDefault("jwt.issuer", "vet-practice")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("blob.backend", "memory")
	v.SetDefault("blob.s3_bucket", "")
	v.SetDefault("blob.s3_region", "")

	v.SetDefault("notify.webhook_url", "")
	v.SetDefault("notify.timeout", 10*time.Second)

	v.SetDefault("ratelimit.public_rps", 5.0)
	v.SetDefault("ratelimit.public_burst", 10)

	v.SetDefault("cors.allowed_origins", []string{"*"})

	cfg := &Config{
		App: AppConfig{
			Name:        v.GetString("app.name"),
			Environment: v.GetString("app.environment"),
		},
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Port:            v.GetInt("server.port"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			IdleTimeout:     v.GetDuration("server.idle_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Database: DatabaseConfig{
			DSN: v.GetString("db.dsn"),
		},
		JWT: JWTConfig{
			Secret:   v.GetString("jwt.secret"),
			TokenTTL: v.GetDuration("jwt.token_ttl"),
			Issuer:   v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Blob: BlobConfig{
			Backend:  v.GetString("blob.backend"),
			S3Bucket: v.GetString("blob.s3_bucket"),
			S3Region: v.GetString("blob.s3_region"),
		},
		Notify: NotifyConfig{
			WebhookURL: v.GetString("notify.webhook_url"),
			Timeout:    v.GetDuration("notify.timeout"),
		},
		RateLimit: RateLimitConfig{
			PublicRPS:   v.GetFloat64("ratelimit.public_rps"),
			PublicBurst: v.GetInt("ratelimit.public_burst"),
		},
		CORS: CORSConfig{
			AllowedOrigins: v.GetStringSlice("cors.allowed_origins"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	if cfg.App.Environment == "production" && strings.TrimSpace(cfg.JWT.Secret) == "" {
		return fmt.Errorf("jwt secret is required in production")
	}
	if cfg.Blob.Backend == "s3" && strings.TrimSpace(cfg.Blob.S3Bucket) == "" {
		return fmt.Errorf("blob backend s3 requires a bucket")
	}
	return nil
}
