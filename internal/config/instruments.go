// Package config loads matchcore's instrument registry: the router's
// construction input. Adapted from the teacher's
// internal/config/strong_consistency_config.go — same viper search-path
// pattern (a named config file searched across a fixed list of
// directories) and the same "warn and fall back to an in-memory default"
// behavior when no file is found — retargeted from that file's
// consensus/settlement/balance sections onto an instrument price-range
// and capacity schema.
package config

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/orbitbook/matchcore/internal/matching/types"
)

// InstrumentConfig is one instrument's static configuration: its price
// range and tick size, the arena sizing the router builds its pipeline
// with, its share of the router's shared event ring capacity
// (RingCapacity), and a self-trade-prevention mode read from the registry
// (STPDefault). The router does not apply STPDefault to orders; the engine
// uses each order's own STP field. ExternalID
// is the instrument's UUID in whatever outward-facing catalog references
// it; the dense uint32 ID is what the router and hot-path types actually
// key on.
type InstrumentConfig struct {
	ID            uint32
	ExternalID    uuid.UUID
	Symbol        string
	MinPrice      types.Price
	MaxPrice      types.Price
	TickSize      types.Price
	OrderCapacity int
	RingCapacity  int
	STPDefault    types.SelfTradePrevention
}

type rawInstrument struct {
	ID            uint32 `mapstructure:"id"`
	ExternalID    string `mapstructure:"external_id"`
	Symbol        string `mapstructure:"symbol"`
	MinPrice      string `mapstructure:"min_price"`
	MaxPrice      string `mapstructure:"max_price"`
	TickSize      string `mapstructure:"tick_size"`
	OrderCapacity int    `mapstructure:"order_capacity"`
	RingCapacity  int    `mapstructure:"ring_capacity"`
	STPDefault    string `mapstructure:"stp_default"`
}

// LoadInstruments reads the instrument registry from configPath, or (if
// empty) searches ".", "./configs", "/etc/matchcore" for
// "instruments.yaml". When no file is found anywhere, it returns a small
// hard-coded default registry rather than failing, matching the
// teacher's setDefaultConfiguration fallback.
func LoadInstruments(configPath string, logger *zap.Logger) ([]InstrumentConfig, error) {
	v := viper.New()
	log := logger.Named("config")

	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			log.Warn("instrument config file not found, using defaults", zap.String("path", configPath))
			return defaultInstruments(), nil
		}
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("instruments")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/matchcore")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Warn("instrument config file not found, using defaults")
			return defaultInstruments(), nil
		}
		return nil, fmt.Errorf("matchcore: failed to read instrument config: %w", err)
	}

	var raw []rawInstrument
	if err := v.UnmarshalKey("instruments", &raw); err != nil {
		return nil, fmt.Errorf("matchcore: failed to parse instrument config: %w", err)
	}

	configs := make([]InstrumentConfig, 0, len(raw))
	for _, r := range raw {
		cfg, err := toInstrumentConfig(r)
		if err != nil {
			return nil, fmt.Errorf("matchcore: instrument %q: %w", r.Symbol, err)
		}
		configs = append(configs, cfg)
	}
	log.Info("instrument configuration loaded", zap.String("file", v.ConfigFileUsed()), zap.Int("instruments", len(configs)))
	return configs, nil
}

func toInstrumentConfig(r rawInstrument) (InstrumentConfig, error) {
	minPrice, err := decimalToPrice(r.MinPrice)
	if err != nil {
		return InstrumentConfig{}, fmt.Errorf("min_price: %w", err)
	}
	maxPrice, err := decimalToPrice(r.MaxPrice)
	if err != nil {
		return InstrumentConfig{}, fmt.Errorf("max_price: %w", err)
	}
	tickSize, err := decimalToPrice(r.TickSize)
	if err != nil {
		return InstrumentConfig{}, fmt.Errorf("tick_size: %w", err)
	}
	capacity := r.OrderCapacity
	if capacity <= 0 {
		capacity = 65536
	}
	ringCapacity := r.RingCapacity
	if ringCapacity <= 0 {
		ringCapacity = 4096
	}
	externalID := uuid.UUID{}
	if r.ExternalID != "" {
		parsed, err := uuid.Parse(r.ExternalID)
		if err != nil {
			return InstrumentConfig{}, fmt.Errorf("external_id: %w", err)
		}
		externalID = parsed
	}
	return InstrumentConfig{
		ID:            r.ID,
		ExternalID:    externalID,
		Symbol:        r.Symbol,
		MinPrice:      minPrice,
		MaxPrice:      maxPrice,
		TickSize:      tickSize,
		OrderCapacity: capacity,
		RingCapacity:  ringCapacity,
		STPDefault:    stpFromString(r.STPDefault),
	}, nil
}

// decimalToPrice converts a human-readable decimal string from the config
// file into matchcore's fixed-point Price. This is the only place
// shopspring/decimal appears in the module — never inside the matching
// hot path (§3 mandates
// int64 fixed-point there precisely to avoid decimal comparison cost).
func decimalToPrice(s string) (types.Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	scaled := d.Mul(decimal.NewFromInt(types.PriceScale))
	return types.Price(scaled.IntPart()), nil
}

func stpFromString(s string) types.SelfTradePrevention {
	switch s {
	case "cancel_newest":
		return types.STPCancelNewest
	case "cancel_oldest":
		return types.STPCancelOldest
	case "cancel_both":
		return types.STPCancelBoth
	default:
		return types.STPNone
	}
}

func defaultInstruments() []InstrumentConfig {
	return []InstrumentConfig{
		{
			ID:            1,
			Symbol:        "BTC-USD",
			MinPrice:      1 * types.PriceScale,
			MaxPrice:      1_000_000 * types.PriceScale,
			TickSize:      types.PriceScale / 100,
			OrderCapacity: 65536,
			RingCapacity:  4096,
			STPDefault:    types.STPCancelNewest,
		},
	}
}
