package seasons

import "math/big"

// addUnits adds two unit quantities, failing on uint64 overflow so supply
// counters can never silently wrap.
func addUnits(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrAmountOverflow
	}
	return sum, nil
}

// pairCost returns amount * unitPrice as an arbitrary-precision value.
func pairCost(unitPrice *big.Int, amount uint64) *big.Int {
	if unitPrice == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Mul(unitPrice, new(big.Int).SetUint64(amount))
}

// percentShare returns value * percent / 100, truncating toward zero.
func percentShare(value *big.Int, percent uint32) *big.Int {
	if value == nil || value.Sign() == 0 || percent == 0 {
		return big.NewInt(0)
	}
	share := new(big.Int).Mul(value, big.NewInt(int64(percent)))
	return share.Div(share, big.NewInt(PercentDenominator))
}
