// Package basefee implements the EIP-1559 style base-fee update rule used by
// the simulator. All fee arithmetic is exact integer arithmetic on math/big;
// floating point is confined to display conversion.
package basefee

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrDegenerateTarget is returned when the target gas usage computes to
	// zero, i.e. the elasticity multiplier is at least the parent gas limit.
	ErrDegenerateTarget = errors.New("degenerate gas target")

	// ErrInvalidParameter is returned for out-of-range fee parameters before
	// any computation begins.
	ErrInvalidParameter = errors.New("invalid fee parameter")
)

// Observation is one block's gas accounting as read from historical data.
// Observations are ordered ascending by block number; gaps and duplicates are
// the loader's concern, not checked here.
type Observation struct {
	BlockNumber uint64
	GasUsed     uint64
	GasLimit    uint64
}

// Params configures one trajectory run.
type Params struct {
	// Elasticity is the ratio between a block's gas limit and its long-run
	// target usage. Must be >= 1.
	Elasticity uint64

	// Denominator bounds the per-block fractional fee change. Must be >= 1.
	Denominator uint64

	// InitialBaseFee seeds the first trajectory element, in wei.
	InitialBaseFee *big.Int
}

// Validate checks the parameters eagerly so a bad combination fails before
// any block is processed.
func (p Params) Validate() error {
	if p.Elasticity < 1 {
		return fmt.Errorf("%w: elasticity multiplier must be >= 1, got %d", ErrInvalidParameter, p.Elasticity)
	}
	if p.Denominator < 1 {
		return fmt.Errorf("%w: adjustment denominator must be >= 1, got %d", ErrInvalidParameter, p.Denominator)
	}
	if p.InitialBaseFee == nil || p.InitialBaseFee.Sign() < 0 {
		return fmt.Errorf("%w: initial base fee must be a non-negative integer", ErrInvalidParameter)
	}
	return nil
}

// CalcNextBaseFee computes a block's base fee from its parent's gas
// accounting:
//
//	target  = parentGasLimit / elasticity
//	adjust  = parentBaseFee * |parentGasUsed - target| / (target * denominator)
//	next    = parentBaseFee + max(adjust, 1)   if parentGasUsed > target
//	        = max(parentBaseFee - adjust, 0)   if parentGasUsed < target
//	        = parentBaseFee                    if parentGasUsed == target
//
// The adjustment is a single exact integer division with the combined
// denominator, so identical inputs reproduce identical wei values no matter
// how large the fee grows. parentBaseFee is never mutated.
func CalcNextBaseFee(parentBaseFee *big.Int, parentGasUsed, parentGasLimit, elasticity, denominator uint64) (*big.Int, error) {
	if elasticity < 1 || denominator < 1 {
		return nil, fmt.Errorf("%w: elasticity=%d denominator=%d", ErrInvalidParameter, elasticity, denominator)
	}

	target := parentGasLimit / elasticity
	if target == 0 {
		return nil, fmt.Errorf("%w: gas limit %d with elasticity %d", ErrDegenerateTarget, parentGasLimit, elasticity)
	}

	// Exact equilibrium: the fee carries over unchanged, no drift.
	if parentGasUsed == target {
		return new(big.Int).Set(parentBaseFee), nil
	}

	var delta uint64
	if parentGasUsed > target {
		delta = parentGasUsed - target
	} else {
		delta = target - parentGasUsed
	}

	num := new(big.Int).Mul(parentBaseFee, new(big.Int).SetUint64(delta))
	den := new(big.Int).Mul(new(big.Int).SetUint64(target), new(big.Int).SetUint64(denominator))
	adjustment := num.Div(num, den)

	if parentGasUsed > target {
		// A fuller-than-target parent always raises the fee by at least one
		// wei, so rounding to zero cannot stall the mechanism.
		if adjustment.Sign() == 0 {
			adjustment.SetUint64(1)
		}
		return adjustment.Add(parentBaseFee, adjustment), nil
	}

	next := new(big.Int).Sub(parentBaseFee, adjustment)
	if next.Sign() < 0 {
		next.SetUint64(0)
	}
	return next, nil
}
