package basefee

import (
	"fmt"
	"math/big"
)

// Trajectory replays the base-fee recurrence over an ordered block sequence
// and returns one fee per observation, aligned by index.
//
// The first element is seeded from p.InitialBaseFee; every later element is
// derived from the previous fee and the previous observation (the parent
// block), never from the observation at the same index. The function is pure:
// rerunning it with the same inputs yields the same wei values, and distinct
// parameter sets over the same observations are fully independent.
//
// On any error no partial trajectory is returned.
func Trajectory(obs []Observation, p Params) ([]*big.Int, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	fees := make([]*big.Int, len(obs))
	if len(obs) == 0 {
		return fees, nil
	}

	fees[0] = new(big.Int).Set(p.InitialBaseFee)
	for i := 1; i < len(obs); i++ {
		parent := obs[i-1]
		next, err := CalcNextBaseFee(fees[i-1], parent.GasUsed, parent.GasLimit, p.Elasticity, p.Denominator)
		if err != nil {
			return nil, fmt.Errorf("computing base fee for block %d: %w", obs[i].BlockNumber, err)
		}
		fees[i] = next
	}
	return fees, nil
}
