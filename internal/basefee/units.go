package basefee

import "math/big"

// WeiPerGwei is the number of wei in one gwei.
const WeiPerGwei = 1_000_000_000

// GweiToWei converts a display-unit gwei amount to integer wei, truncating
// any fractional wei. The result feeds the recurrence, so it must be an
// exact integer.
func GweiToWei(gwei float64) *big.Int {
	f := new(big.Float).Mul(big.NewFloat(gwei), big.NewFloat(WeiPerGwei))
	wei, _ := f.Int(nil)
	if wei == nil {
		return new(big.Int)
	}
	return wei
}

// WeiToGwei converts wei to a gwei float for reporting. The result is
// display-only and never fed back into the recurrence.
func WeiToGwei(wei *big.Int) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(WeiPerGwei)).Float64()
	return f
}
