package config

import (
	"os"
	"testing"
)

func TestStockConfigValidate(t *testing.T) {
	t.Parallel()

	valid := StockConfig{CriticalMax: 3, LowMax: 5, MediumMax: 10}
	if err := valid.validate(); err != nil {
		t.Fatalf("default thresholds should validate: %v", err)
	}

	inverted := StockConfig{CriticalMax: 5, LowMax: 3, MediumMax: 10}
	if err := inverted.validate(); err == nil {
		t.Fatal("expected error for inverted thresholds")
	}

	equal := StockConfig{CriticalMax: 5, LowMax: 5, MediumMax: 10}
	if err := equal.validate(); err == nil {
		t.Fatal("expected error for equal critical and low thresholds")
	}

	negative := StockConfig{CriticalMax: -1, LowMax: 5, MediumMax: 10}
	if err := negative.validate(); err == nil {
		t.Fatal("expected error for negative threshold")
	}
}

func TestLoadRequiresAppEnv(t *testing.T) {
	for _, key := range []string{"POSENGINE_APP_ENV", "POSENGINE_APP_PORT", "POSENGINE_BACKEND_BASE_URL"} {
		// t.Setenv registers cleanup to restore the original value; the
		// variable must then be unset so envconfig sees it as missing.
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected error when required variables are missing")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSENGINE_APP_ENV", "dev")
	t.Setenv("POSENGINE_APP_PORT", "8080")
	t.Setenv("POSENGINE_BACKEND_BASE_URL", "http://localhost:9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.App.IsDev() {
		t.Fatal("expected dev environment")
	}
	if cfg.Stock.CriticalMax != 3 || cfg.Stock.LowMax != 5 || cfg.Stock.MediumMax != 10 {
		t.Fatalf("unexpected default thresholds: %+v", cfg.Stock)
	}
	if cfg.Alerts.ThrottleWindow.Minutes() != 30 {
		t.Fatalf("expected 30m throttle window, got %s", cfg.Alerts.ThrottleWindow)
	}
	if cfg.Forecast.HistoryWindowDays != 90 || cfg.Forecast.ConsumptionWindowDays != 30 {
		t.Fatalf("unexpected forecast windows: %+v", cfg.Forecast)
	}
}
