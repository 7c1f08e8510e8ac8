package seasons

import (
	"fmt"
	"math/big"
)

// PercentDenominator scales the whole-percent fee values used by the sale
// engine when splitting a payment.
const PercentDenominator = 100

// GlobalConfig holds the owner-controlled parameters read by every component
// of the registry. Setters on the engine are the only mutation path; each one
// emits a corresponding audit event.
//
// UnitPrice is expressed in the smallest denomination of the native value
// (wei-style integer).
type GlobalConfig struct {
	UnitPrice            *big.Int
	ProtocolWallet       [20]byte
	TreasuryWallet       [20]byte
	ProtocolFeePercent   uint32
	TreasurySplitPercent uint32
	Shutdown             bool
}

// Clone produces a deep copy of the configuration.
func (c *GlobalConfig) Clone() *GlobalConfig {
	if c == nil {
		return nil
	}
	clone := *c
	if c.UnitPrice != nil {
		clone.UnitPrice = new(big.Int).Set(c.UnitPrice)
	}
	return &clone
}

// Normalize ensures pointer fields are non-nil for ease of use. The method
// returns the receiver to allow chaining.
func (c *GlobalConfig) Normalize() *GlobalConfig {
	if c == nil {
		return nil
	}
	if c.UnitPrice == nil || c.UnitPrice.Sign() < 0 {
		c.UnitPrice = big.NewInt(0)
	}
	return c
}

// Validate performs static validation of the configuration. Individual
// percentages are bounded at 100; the combined total is deliberately left
// unchecked, matching the registry's documented behaviour.
func (c *GlobalConfig) Validate() error {
	if c == nil {
		return fmt.Errorf("nil seasons config")
	}
	if c.UnitPrice != nil && c.UnitPrice.Sign() < 0 {
		return fmt.Errorf("unit price must not be negative")
	}
	if c.ProtocolFeePercent > PercentDenominator {
		return fmt.Errorf("protocol fee percent %d exceeds %d", c.ProtocolFeePercent, PercentDenominator)
	}
	if c.TreasurySplitPercent > PercentDenominator {
		return fmt.Errorf("treasury split percent %d exceeds %d", c.TreasurySplitPercent, PercentDenominator)
	}
	return nil
}
