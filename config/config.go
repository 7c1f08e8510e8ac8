package config

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"artifactledger/native/seasons"
)

// Allocation seeds an account balance at first start.
type Allocation struct {
	Address string `toml:"Address"`
	Balance string `toml:"Balance"`
}

type Config struct {
	RPCAddress     string `toml:"RPCAddress"`
	MetricsAddress string `toml:"MetricsAddress"`
	DataDir        string `toml:"DataDir"`
	Env            string `toml:"Env"`

	OwnerAddress string `toml:"OwnerAddress"`
	PotAddress   string `toml:"PotAddress"`

	UnitPrice            string `toml:"UnitPrice"`
	ProtocolWallet       string `toml:"ProtocolWallet"`
	TreasuryWallet       string `toml:"TreasuryWallet"`
	ProtocolFeePercent   uint32 `toml:"ProtocolFeePercent"`
	TreasurySplitPercent uint32 `toml:"TreasurySplitPercent"`

	Allocations []Allocation `toml:"Allocations"`

	LogFile       string `toml:"LogFile"`
	LogMaxSizeMB  int    `toml:"LogMaxSizeMB"`
	LogMaxBackups int    `toml:"LogMaxBackups"`
}

// Load loads the configuration from the given path, writing a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8645"
	}
	if strings.TrimSpace(cfg.MetricsAddress) == "" {
		cfg.MetricsAddress = ":9464"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./artifactledger-data"
	}
	if cfg.Allocations == nil {
		cfg.Allocations = []Allocation{}
	}
}

// Validate checks the address and amount fields without mutating anything.
func (c *Config) Validate() error {
	if _, err := ParseAddress(c.OwnerAddress); err != nil {
		return fmt.Errorf("OwnerAddress: %w", err)
	}
	if _, err := ParseAddress(c.PotAddress); err != nil {
		return fmt.Errorf("PotAddress: %w", err)
	}
	if c.ProtocolWallet != "" {
		if _, err := ParseAddress(c.ProtocolWallet); err != nil {
			return fmt.Errorf("ProtocolWallet: %w", err)
		}
	}
	if c.TreasuryWallet != "" {
		if _, err := ParseAddress(c.TreasuryWallet); err != nil {
			return fmt.Errorf("TreasuryWallet: %w", err)
		}
	}
	if c.UnitPrice != "" {
		if _, err := ParseAmount(c.UnitPrice); err != nil {
			return fmt.Errorf("UnitPrice: %w", err)
		}
	}
	if c.ProtocolFeePercent > seasons.PercentDenominator {
		return fmt.Errorf("ProtocolFeePercent %d exceeds %d", c.ProtocolFeePercent, seasons.PercentDenominator)
	}
	if c.TreasurySplitPercent > seasons.PercentDenominator {
		return fmt.Errorf("TreasurySplitPercent %d exceeds %d", c.TreasurySplitPercent, seasons.PercentDenominator)
	}
	for i, alloc := range c.Allocations {
		if _, err := ParseAddress(alloc.Address); err != nil {
			return fmt.Errorf("Allocations[%d].Address: %w", i, err)
		}
		if _, err := ParseAmount(alloc.Balance); err != nil {
			return fmt.Errorf("Allocations[%d].Balance: %w", i, err)
		}
	}
	return nil
}

// Owner returns the parsed administrative address.
func (c *Config) Owner() ([20]byte, error) {
	return ParseAddress(c.OwnerAddress)
}

// Pot returns the parsed internal proceeds address.
func (c *Config) Pot() ([20]byte, error) {
	return ParseAddress(c.PotAddress)
}

// Genesis converts the config into the registry parameters and the initial
// account balances applied at first start.
func (c *Config) Genesis() (*seasons.GlobalConfig, map[[20]byte]*big.Int, error) {
	out := &seasons.GlobalConfig{
		UnitPrice:            big.NewInt(0),
		ProtocolFeePercent:   c.ProtocolFeePercent,
		TreasurySplitPercent: c.TreasurySplitPercent,
	}
	if c.UnitPrice != "" {
		price, err := ParseAmount(c.UnitPrice)
		if err != nil {
			return nil, nil, fmt.Errorf("UnitPrice: %w", err)
		}
		out.UnitPrice = price
	}
	if c.ProtocolWallet != "" {
		wallet, err := ParseAddress(c.ProtocolWallet)
		if err != nil {
			return nil, nil, fmt.Errorf("ProtocolWallet: %w", err)
		}
		out.ProtocolWallet = wallet
	}
	if c.TreasuryWallet != "" {
		wallet, err := ParseAddress(c.TreasuryWallet)
		if err != nil {
			return nil, nil, fmt.Errorf("TreasuryWallet: %w", err)
		}
		out.TreasuryWallet = wallet
	}
	allocations := make(map[[20]byte]*big.Int, len(c.Allocations))
	for i, alloc := range c.Allocations {
		addr, err := ParseAddress(alloc.Address)
		if err != nil {
			return nil, nil, fmt.Errorf("Allocations[%d].Address: %w", i, err)
		}
		balance, err := ParseAmount(alloc.Balance)
		if err != nil {
			return nil, nil, fmt.Errorf("Allocations[%d].Balance: %w", i, err)
		}
		allocations[addr] = balance
	}
	return out, allocations, nil
}

// ParseAddress decodes a 0x-prefixed 20-byte hex address.
func ParseAddress(raw string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "0x")
	if trimmed == "" {
		return addr, fmt.Errorf("empty address")
	}
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("invalid hex address %q: %w", raw, err)
	}
	if len(decoded) != len(addr) {
		return addr, fmt.Errorf("address %q must be %d bytes", raw, len(addr))
	}
	copy(addr[:], decoded)
	return addr, nil
}

// ParseAmount decodes a non-negative base-10 integer amount.
func ParseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("empty amount")
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("amount %q must not be negative", raw)
	}
	return value, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:           ":8645",
		MetricsAddress:       ":9464",
		DataDir:              "./artifactledger-data",
		OwnerAddress:         "0x" + strings.Repeat("00", 19) + "01",
		PotAddress:           "0x" + strings.Repeat("00", 19) + "02",
		UnitPrice:            "0",
		ProtocolFeePercent:   0,
		TreasurySplitPercent: 0,
		Allocations:          []Allocation{},
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
