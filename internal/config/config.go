package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	AppPort string

	// DBDriver is "mysql" or "sqlite".
	DBDriver string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	SQLitePath string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int
	// SweepEverySecs is the overdue-loan sweep period; 0 disables it.
	SweepEverySecs int

	LogLevel string
	LogDev   bool

	PoolID     string
	MarketPath string
	Market     Market
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// Load reads the environment and, when MARKET_CONFIG is set, the market file.
func Load() (*Config, error) {
	c := &Config{
		AppPort:    getenv("APP_PORT", "8080"),
		DBDriver:   strings.ToLower(getenv("DB_DRIVER", "mysql")),
		MySQLHost:  getenv("MYSQL_HOST", "mysql"),
		MySQLPort:  getenv("MYSQL_PORT", "3306"),
		MySQLDB:    getenv("MYSQL_DB", "clawloan"),
		MySQLUser:  getenv("MYSQL_USER", "clawloan"),
		MySQLPass:  getenv("MYSQL_PASS", "clawloan"),
		SQLitePath: getenv("SQLITE_PATH", "clawloan.db"),

		RedisAddr:      getenv("REDIS_ADDR", "redis:6379"),
		IdempTTLSecs:   300,
		SweepEverySecs: 300,

		LogLevel:   getenv("LOG_LEVEL", "info"),
		PoolID:     getenv("POOL_ID", "usdc-main"),
		MarketPath: os.Getenv("MARKET_CONFIG"),
		Market:     DefaultMarket(),
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RedisDB = n
		}
	}
	if v := os.Getenv("IDEMPOTENCY_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.IdempTTLSecs = n
		}
	}
	if v := os.Getenv("SWEEP_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SweepEverySecs = n
		}
	}
	if v := os.Getenv("LOG_DEV"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.LogDev = b
		}
	}
	if c.MarketPath != "" {
		m, err := LoadMarket(c.MarketPath)
		if err != nil {
			return nil, err
		}
		c.Market = m
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.PoolID == "" || len(c.PoolID) > 32 {
		return fmt.Errorf("POOL_ID must be 1-32 characters, got %q", c.PoolID)
	}
	switch c.DBDriver {
	case "mysql":
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.IdempTTLSecs <= 0 {
		return fmt.Errorf("IDEMPOTENCY_TTL_SECONDS must be positive, got %d", c.IdempTTLSecs)
	}
	if c.SweepEverySecs < 0 {
		return fmt.Errorf("SWEEP_INTERVAL_SECONDS must not be negative, got %d", c.SweepEverySecs)
	}
	if err := c.Market.Validate(); err != nil {
		return fmt.Errorf("market: %w", err)
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

// DSN is the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == "sqlite" {
		return c.SQLitePath
	}
	return c.MySQLDSN()
}
