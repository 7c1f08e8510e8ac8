package seasons

import (
	"math/big"
	"strconv"
)

func (e *Engine) updateConfig(caller [20]byte, mutate func(cfg *GlobalConfig) error) (*GlobalConfig, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.leave()
	if err := e.requireOwner(caller); err != nil {
		return nil, err
	}
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	if err := mutate(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := e.state.ConfigPut(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetUnitPrice sets the fixed price per artifact unit. Owner only.
func (e *Engine) SetUnitPrice(caller [20]byte, price *big.Int) error {
	if price == nil || price.Sign() < 0 {
		return ErrInvalidInput
	}
	cfg, err := e.updateConfig(caller, func(cfg *GlobalConfig) error {
		cfg.UnitPrice = new(big.Int).Set(price)
		return nil
	})
	if err != nil {
		return err
	}
	e.emit(configSetEvent(EventTypeUnitPriceSet, "unitPrice", cfg.UnitPrice.String()))
	return nil
}

// SetProtocolWallet sets the destination for protocol-side supply and fees.
// Owner only.
func (e *Engine) SetProtocolWallet(caller [20]byte, wallet [20]byte) error {
	_, err := e.updateConfig(caller, func(cfg *GlobalConfig) error {
		cfg.ProtocolWallet = wallet
		return nil
	})
	if err != nil {
		return err
	}
	e.emit(configSetEvent(EventTypeProtocolWalletSet, "wallet", hexAddr(wallet)))
	return nil
}

// SetTreasuryWallet sets the destination for the treasury revenue split.
// Owner only.
func (e *Engine) SetTreasuryWallet(caller [20]byte, wallet [20]byte) error {
	_, err := e.updateConfig(caller, func(cfg *GlobalConfig) error {
		cfg.TreasuryWallet = wallet
		return nil
	})
	if err != nil {
		return err
	}
	e.emit(configSetEvent(EventTypeTreasuryWalletSet, "wallet", hexAddr(wallet)))
	return nil
}

// SetProtocolFeePercent sets the protocol's whole-percent share of each
// payment. Owner only.
func (e *Engine) SetProtocolFeePercent(caller [20]byte, percent uint32) error {
	if percent > PercentDenominator {
		return ErrInvalidPercentage
	}
	_, err := e.updateConfig(caller, func(cfg *GlobalConfig) error {
		cfg.ProtocolFeePercent = percent
		return nil
	})
	if err != nil {
		return err
	}
	e.emit(configSetEvent(EventTypeProtocolFeePercentSet, "percent", strconv.FormatUint(uint64(percent), 10)))
	return nil
}

// SetTreasurySplitPercent sets the treasury's whole-percent share of each
// payment. Owner only.
func (e *Engine) SetTreasurySplitPercent(caller [20]byte, percent uint32) error {
	if percent > PercentDenominator {
		return ErrInvalidPercentage
	}
	_, err := e.updateConfig(caller, func(cfg *GlobalConfig) error {
		cfg.TreasurySplitPercent = percent
		return nil
	})
	if err != nil {
		return err
	}
	e.emit(configSetEvent(EventTypeTreasurySplitPercentSet, "percent", strconv.FormatUint(uint64(percent), 10)))
	return nil
}

// SetShutdown toggles the global shutdown flag. Owner only.
func (e *Engine) SetShutdown(caller [20]byte, down bool) error {
	_, err := e.updateConfig(caller, func(cfg *GlobalConfig) error {
		cfg.Shutdown = down
		return nil
	})
	if err != nil {
		return err
	}
	value := "false"
	if down {
		value = "true"
	}
	e.emit(configSetEvent(EventTypeShutdownSet, "shutdown", value))
	return nil
}

// Config returns a copy of the stored global configuration.
func (e *Engine) Config() (*GlobalConfig, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	return cfg.Clone(), nil
}

// WithdrawProtocolFees transfers the entire accrued protocol balance from the
// registry pot to the protocol wallet and resets the accrual. A zero balance
// is a silent no-op. Owner only.
func (e *Engine) WithdrawProtocolFees(caller [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.leave()
	if err := e.requireOwner(caller); err != nil {
		return nil, err
	}
	accrued, err := e.state.ProtocolAccruedGet()
	if err != nil {
		return nil, err
	}
	if accrued == nil || accrued.Sign() == 0 {
		return big.NewInt(0), nil
	}
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	amount := new(big.Int).Set(accrued)
	// Debit the pot first: if it cannot cover the accrual the call aborts
	// with the accrual intact. The reset still precedes the outward credit
	// so a reentrant hook observes a drained accrual.
	if err := e.debitAccount(e.pot, amount); err != nil {
		return nil, err
	}
	if err := e.state.ProtocolAccruedPut(big.NewInt(0)); err != nil {
		return nil, err
	}
	if err := e.creditAccount(cfg.ProtocolWallet, amount); err != nil {
		return nil, err
	}
	e.emit(feesWithdrawnEvent(hexAddr(cfg.ProtocolWallet), amount.String()))
	return amount, nil
}
