package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/andreolf/clawloan/internal/domain/credit"
	"github.com/andreolf/clawloan/internal/domain/loan"
	"github.com/andreolf/clawloan/internal/domain/rate"
	"github.com/andreolf/clawloan/pkg/fixed"

	"gopkg.in/yaml.v3"
)

// Market is the static economic configuration of one pool.
type Market struct {
	Asset    string `yaml:"asset"`
	Decimals int32  `yaml:"decimals"`

	Rates RatesConfig `yaml:"rates"`

	ProfitShareBps uint64        `yaml:"profit_share_bps"`
	LoanTerm       time.Duration `yaml:"loan_term"`

	// TierCeilings lists NEW..PLATINUM borrow ceilings in minor units.
	TierCeilings []string `yaml:"tier_ceilings"`

	DefaultMaxSpend string        `yaml:"default_max_spend"`
	DefaultExpiry   time.Duration `yaml:"default_permission_ttl"`
}

// RatesConfig is the rate curve in basis points.
type RatesConfig struct {
	BaseBps          uint64 `yaml:"base_bps"`
	Slope1Bps        uint64 `yaml:"slope1_bps"`
	Slope2Bps        uint64 `yaml:"slope2_bps"`
	OptimalBps       uint64 `yaml:"optimal_bps"`
	ReserveFactorBps uint64 `yaml:"reserve_factor_bps"`
}

func DefaultMarket() Market {
	return Market{
		Asset:    "USDC",
		Decimals: 6,
		Rates: RatesConfig{
			BaseBps:          200,
			Slope1Bps:        400,
			Slope2Bps:        7500,
			OptimalBps:       8000,
			ReserveFactorBps: 1000,
		},
		ProfitShareBps:  500,
		LoanTerm:        loan.DefaultTerm,
		TierCeilings:    []string{"10000000", "50000000", "200000000", "500000000", "1000000000"},
		DefaultMaxSpend: "1000000000",
		DefaultExpiry:   30 * 24 * time.Hour,
	}
}

// LoadMarket overlays the YAML file at path onto DefaultMarket.
func LoadMarket(path string) (Market, error) {
	m := DefaultMarket()
	file, err := os.Open(path)
	if err != nil {
		return Market{}, fmt.Errorf("open market config: %w", err)
	}
	defer file.Close()

	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return Market{}, fmt.Errorf("decode market config: %w", err)
	}
	m.Asset = strings.TrimSpace(m.Asset)
	if err := m.Validate(); err != nil {
		return Market{}, err
	}
	return m, nil
}

func (m Market) Validate() error {
	if m.Asset == "" {
		return fmt.Errorf("asset is required")
	}
	if m.Decimals < 0 || m.Decimals > 36 {
		return fmt.Errorf("decimals %d out of range", m.Decimals)
	}
	r := m.Rates
	if r.OptimalBps == 0 || r.OptimalBps >= 10000 {
		return fmt.Errorf("optimal_bps must be in (0, 10000), got %d", r.OptimalBps)
	}
	if r.ReserveFactorBps > 10000 {
		return fmt.Errorf("reserve_factor_bps must be <= 10000, got %d", r.ReserveFactorBps)
	}
	if m.ProfitShareBps > 10000 {
		return fmt.Errorf("profit_share_bps must be <= 10000, got %d", m.ProfitShareBps)
	}
	if m.LoanTerm <= 0 {
		return fmt.Errorf("loan_term must be positive")
	}
	if m.DefaultExpiry <= 0 {
		return fmt.Errorf("default_permission_ttl must be positive")
	}
	if _, err := fixed.Parse(m.DefaultMaxSpend); err != nil {
		return fmt.Errorf("default_max_spend: %w", err)
	}
	if _, err := m.TierTable(); err != nil {
		return err
	}
	return nil
}

func (m Market) RateParams() rate.Params {
	r := m.Rates
	return rate.ParamsFromBps(r.BaseBps, r.Slope1Bps, r.Slope2Bps, r.OptimalBps, r.ReserveFactorBps)
}

func (m Market) TierTable() (credit.Table, error) {
	var t credit.Table
	if len(m.TierCeilings) != len(t) {
		return t, fmt.Errorf("tier_ceilings needs %d entries, got %d", len(t), len(m.TierCeilings))
	}
	for i, s := range m.TierCeilings {
		v, err := fixed.Parse(strings.TrimSpace(s))
		if err != nil {
			return t, fmt.Errorf("tier_ceilings[%s]: %w", credit.Tier(i), err)
		}
		t[i] = v
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

// MaxSpend is the permission cap granted at registration when none is given.
func (m Market) MaxSpend() fixed.Int {
	v, err := fixed.Parse(m.DefaultMaxSpend)
	if err != nil {
		return fixed.Zero()
	}
	return v
}
