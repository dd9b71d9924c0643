package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v6"

	"onecoupon-console/internal/pkg/jwt"
	"onecoupon-console/internal/pkg/session"
	"onecoupon-console/internal/pkg/tracing"
)

type AppConfig struct {
	// Server
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Backend
	BackendBaseURL string        `env:"BACKEND_BASE_URL" envDefault:"http://127.0.0.1:10001/api/merchant-admin"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"0s"`

	// Tracing
	OTLPEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTLPInsecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	TraceSampleRate float64 `env:"TRACE_SAMPLE_RATE" envDefault:"1"`

	// Redis
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass     string `env:"REDIS_PASS" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`

	// Session
	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	SessionCookie string        `env:"SESSION_COOKIE" envDefault:"onecoupon_console"`
	SessionSecure bool          `env:"SESSION_SECURE" envDefault:"false"`

	// Operator shown in the header
	OperatorUserID   string `env:"OPERATOR_USER_ID" envDefault:"100012345"`
	OperatorUsername string `env:"OPERATOR_USERNAME" envDefault:"shency"`
	OperatorShopID   string `env:"OPERATOR_SHOP_ID" envDefault:"1000501L"`

	TimeZone         string   `env:"TIME_ZONE" envDefault:"Asia/Shanghai"`
	UploadMaxBytes   int64    `env:"UPLOAD_MAX_BYTES" envDefault:"10485760"`
	CORSAllowOrigins []string `env:"CORS_ALLOW_ORIGINS" envSeparator:","`

	location *time.Location
}

// Load loads environment variables into AppConfig.
func Load() (AppConfig, error) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.SessionSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("SESSION_SECRET is required in production")
		}
		c.SessionSecret = "onecoupon-console-development-secret"
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}

	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return fmt.Errorf("invalid TIME_ZONE %q: %w", c.TimeZone, err)
	}
	c.location = loc
	return nil
}

// Location is the zone form times are read and sent in.
func (c AppConfig) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

func (c AppConfig) JWT() jwt.Config {
	return jwt.Config{
		Secret:   c.SessionSecret,
		Issuer:   "onecoupon-console",
		Audience: "merchant-admin",
		TTL:      c.SessionTTL,
	}
}

func (c AppConfig) Tracing() tracing.Config {
	return tracing.Config{
		ServiceName: "onecoupon-console",
		Endpoint:    c.OTLPEndpoint,
		Insecure:    c.OTLPInsecure,
		SampleRate:  c.TraceSampleRate,
	}
}

func (c AppConfig) Operator() session.Identity {
	return session.Identity{
		UserID:   c.OperatorUserID,
		Username: c.OperatorUsername,
		ShopID:   c.OperatorShopID,
	}
}

func (c AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

func (c AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}
