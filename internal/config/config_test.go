package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andreolf/clawloan/internal/domain/credit"
	"github.com/andreolf/clawloan/internal/domain/rate"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MARKET_CONFIG", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("IDEMPOTENCY_TTL_SECONDS", "")
	t.Setenv("SWEEP_INTERVAL_SECONDS", "")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DBDriver != "mysql" || c.IdempTTLSecs != 300 || c.SweepEverySecs != 300 || c.PoolID == "" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if c.Market.RateParams() != rate.Reference() {
		t.Fatalf("default market must use the reference curve")
	}
	table, err := c.Market.TierTable()
	if err != nil {
		t.Fatalf("TierTable: %v", err)
	}
	if table != credit.DefaultTable() {
		t.Fatalf("default tiers = %v", table)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MARKET_CONFIG", "")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("IDEMPOTENCY_TTL_SECONDS", "60")
	t.Setenv("LOG_DEV", "true")
	t.Setenv("SWEEP_INTERVAL_SECONDS", "0")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DBDriver != "sqlite" || c.DSN() != "/tmp/x.db" {
		t.Fatalf("driver=%q dsn=%q", c.DBDriver, c.DSN())
	}
	if c.RedisDB != 3 || c.IdempTTLSecs != 60 || !c.LogDev || c.SweepEverySecs != 0 {
		t.Fatalf("unexpected overrides: %+v", c)
	}
}

func TestValidate_Rejects(t *testing.T) {
	base := func() *Config {
		return &Config{
			AppPort: "8080", DBDriver: "mysql",
			MySQLHost: "db", MySQLPort: "3306", MySQLDB: "x", MySQLUser: "u",
			IdempTTLSecs: 300, PoolID: "main", Market: DefaultMarket(),
		}
	}
	cases := map[string]func(c *Config){
		"driver":   func(c *Config) { c.DBDriver = "postgres" },
		"port":     func(c *Config) { c.MySQLPort = "not-a-port" },
		"pool id":  func(c *Config) { c.PoolID = "" },
		"ttl":      func(c *Config) { c.IdempTTLSecs = 0 },
		"optimal":  func(c *Config) { c.Market.Rates.OptimalBps = 10000 },
		"reserve":  func(c *Config) { c.Market.Rates.ReserveFactorBps = 10001 },
		"tiers":    func(c *Config) { c.Market.TierCeilings = []string{"5", "4", "6", "7", "8"} },
		"tier len": func(c *Config) { c.Market.TierCeilings = []string{"1"} },
		"term":     func(c *Config) { c.Market.LoanTerm = 0 },
		"sweep":    func(c *Config) { c.SweepEverySecs = -1 },
	}
	for name, mutate := range cases {
		c := base()
		mutate(c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
	if err := base().Validate(); err != nil {
		t.Fatalf("base config should validate: %v", err)
	}
}

func TestLoadMarket_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.yaml")
	body := `asset: USDT
rates:
  base_bps: 100
  slope1_bps: 300
  slope2_bps: 6000
  optimal_bps: 9000
  reserve_factor_bps: 2000
profit_share_bps: 250
loan_term: 72h
tier_ceilings: ["1000000", "2000000", "3000000", "4000000", "5000000"]
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	m, err := LoadMarket(path)
	if err != nil {
		t.Fatalf("LoadMarket: %v", err)
	}
	if m.Asset != "USDT" || m.Decimals != 6 || m.ProfitShareBps != 250 || m.LoanTerm != 72*time.Hour {
		t.Fatalf("unexpected market: %+v", m)
	}
	if m.RateParams() != rate.ParamsFromBps(100, 300, 6000, 9000, 2000) {
		t.Fatalf("rate params not taken from file")
	}

	t.Setenv("MARKET_CONFIG", path)
	c, err := Load()
	if err != nil {
		t.Fatalf("Load with market: %v", err)
	}
	if c.Market.Asset != "USDT" {
		t.Fatalf("Load ignored MARKET_CONFIG")
	}
}

func TestLoadMarket_Errors(t *testing.T) {
	if _, err := LoadMarket(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("rates:\n  optimal_bps: 0\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadMarket(path); err == nil {
		t.Fatalf("expected validation error for zero kink")
	}

	unknown := filepath.Join(t.TempDir(), "unknown.yaml")
	if err := os.WriteFile(unknown, []byte("slope9: 1\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadMarket(unknown); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}
