package model

import (
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/shopspring/decimal"
)

// Unit converts between ledger smallest units and the configured display unit.
type Unit struct {
	Decimals int32
	Symbol   string
}

// DefaultUnit is the 8-decimal ckTESTBTC display unit.
var DefaultUnit = Unit{Decimals: 8, Symbol: "ckTESTBTC"}

// ToDisplay returns amount / 10^Decimals.
func (u Unit) ToDisplay(amount uint64) decimal.Decimal {
	return fromUint(amount).Shift(-u.Decimals)
}

// FromDisplay converts a display-unit value back to smallest units, truncating.
func (u Unit) FromDisplay(v decimal.Decimal) uint64 {
	return uint64(v.Shift(u.Decimals).Truncate(0).IntPart())
}

// Format renders amount in display units, e.g. "0.00500000 ckTESTBTC".
func (u Unit) Format(amount uint64) string {
	return fmt.Sprintf("%s %s", u.ToDisplay(amount).StringFixed(u.Decimals), u.Symbol)
}

// FormatSats renders a settlement-network value given in satoshis.
func FormatSats(sats uint64) string {
	return btcutil.Amount(int64(sats)).String()
}

// ExpectedFee is the booster's earning for amount at feePct percent,
// computed as amount * floor(feePct*100) / 10000.
func ExpectedFee(amount uint64, feePct float64) uint64 {
	bps := decimal.NewFromFloat(feePct).Mul(decimal.NewFromInt(100)).Floor()
	fee := fromUint(amount).Mul(bps).Div(decimal.NewFromInt(10000)).Floor()
	return uint64(fee.IntPart())
}

func fromUint(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}
