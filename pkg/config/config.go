package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App      AppConfig
	Backend  BackendConfig
	Forecast ForecastConfig
	Stock    StockConfig
	Alerts   AlertsConfig
	Redis    RedisConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Stock.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"POSENGINE_APP_ENV" required:"true"`
	Port         string `envconfig:"POSENGINE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"POSENGINE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"POSENGINE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// BackendConfig points the engine at the POS backend it drives.
type BackendConfig struct {
	BaseURL  string        `envconfig:"POSENGINE_BACKEND_BASE_URL" required:"true"`
	APIToken string        `envconfig:"POSENGINE_BACKEND_API_TOKEN"`
	Timeout  time.Duration `envconfig:"POSENGINE_BACKEND_TIMEOUT" default:"10s"`
}

// ForecastConfig configures the external forecasting service client.
type ForecastConfig struct {
	BaseURL               string        `envconfig:"POSENGINE_FORECAST_BASE_URL"`
	Timeout               time.Duration `envconfig:"POSENGINE_FORECAST_TIMEOUT" default:"30s"`
	HistoryWindowDays     int           `envconfig:"POSENGINE_FORECAST_HISTORY_DAYS" default:"90"`
	ConsumptionWindowDays int           `envconfig:"POSENGINE_FORECAST_CONSUMPTION_DAYS" default:"30"`
}

// StockConfig carries the severity thresholds. They are configuration, not
// engine state: classification is always recomputed against them.
type StockConfig struct {
	CriticalMax int `envconfig:"POSENGINE_STOCK_CRITICAL_MAX" default:"3"`
	LowMax      int `envconfig:"POSENGINE_STOCK_LOW_MAX" default:"5"`
	MediumMax   int `envconfig:"POSENGINE_STOCK_MEDIUM_MAX" default:"10"`
}

func (s StockConfig) validate() error {
	if s.CriticalMax < 0 {
		return fmt.Errorf("stock thresholds must be non-negative")
	}
	if !(s.CriticalMax < s.LowMax && s.LowMax < s.MediumMax) {
		return fmt.Errorf("stock thresholds must satisfy critical < low < medium, got %d/%d/%d",
			s.CriticalMax, s.LowMax, s.MediumMax)
	}
	return nil
}

type AlertsConfig struct {
	ThrottleWindow time.Duration `envconfig:"POSENGINE_ALERT_THROTTLE_WINDOW" default:"30m"`
	SweepInterval  time.Duration `envconfig:"POSENGINE_ALERT_SWEEP_INTERVAL" default:"5m"`
	UseRedis       bool          `envconfig:"POSENGINE_ALERT_USE_REDIS" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"POSENGINE_REDIS_URL"`
	Address      string        `envconfig:"POSENGINE_REDIS_ADDR"`
	Password     string        `envconfig:"POSENGINE_REDIS_PASSWORD"`
	DB           int           `envconfig:"POSENGINE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"POSENGINE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"POSENGINE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"POSENGINE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"POSENGINE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"POSENGINE_REDIS_WRITE_TIMEOUT" default:"5s"`
}
