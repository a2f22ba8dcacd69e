package basefee

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullBlocks(n int) []Observation {
	obs := make([]Observation, n)
	for i := range obs {
		obs[i] = Observation{
			BlockNumber: uint64(100 + i),
			GasUsed:     30_000_000,
			GasLimit:    30_000_000,
		}
	}
	return obs
}

func TestTrajectorySeedAndLength(t *testing.T) {
	p := Params{Elasticity: 2, Denominator: 250, InitialBaseFee: GweiToWei(0.02)}
	obs := fullBlocks(10)

	fees, err := Trajectory(obs, p)
	require.NoError(t, err)
	require.Len(t, fees, len(obs))
	assert.Equal(t, big.NewInt(20_000_000), fees[0])
}

func TestTrajectoryEmptyInput(t *testing.T) {
	p := Params{Elasticity: 2, Denominator: 250, InitialBaseFee: big.NewInt(1)}
	fees, err := Trajectory(nil, p)
	require.NoError(t, err)
	assert.Empty(t, fees)
}

func TestTrajectoryDeterminism(t *testing.T) {
	p := Params{Elasticity: 2, Denominator: 250, InitialBaseFee: big.NewInt(1_000_000_000)}
	obs := []Observation{
		{BlockNumber: 1, GasUsed: 30_000_000, GasLimit: 30_000_000},
		{BlockNumber: 2, GasUsed: 0, GasLimit: 30_000_000},
		{BlockNumber: 3, GasUsed: 15_000_000, GasLimit: 30_000_000},
		{BlockNumber: 4, GasUsed: 22_500_000, GasLimit: 30_000_000},
		{BlockNumber: 5, GasUsed: 7_500_000, GasLimit: 30_000_000},
	}

	first, err := Trajectory(obs, p)
	require.NoError(t, err)
	second, err := Trajectory(obs, p)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestTrajectoryUsesParentBlock(t *testing.T) {
	p := Params{Elasticity: 2, Denominator: 250, InitialBaseFee: big.NewInt(1_000_000_000)}
	obs := []Observation{
		{BlockNumber: 1, GasUsed: 30_000_000, GasLimit: 30_000_000},
		{BlockNumber: 2, GasUsed: 15_000_000, GasLimit: 30_000_000},
	}

	fees, err := Trajectory(obs, p)
	require.NoError(t, err)

	// fees[1] reflects the full parent block, not block 2's own usage.
	assert.Equal(t, big.NewInt(1_004_000_000), fees[1])

	// The last observation is never an input to any element: mutating it
	// leaves the trajectory unchanged.
	obs[1].GasUsed = 0
	again, err := Trajectory(obs, p)
	require.NoError(t, err)
	assert.Equal(t, fees, again)
}

func TestTrajectoryDenominatorSmoothing(t *testing.T) {
	// Over the same non-equilibrium usage pattern, larger denominators
	// produce strictly smaller per-step swings.
	obs := fullBlocks(20)
	initial := big.NewInt(1_000_000_000)

	maxStep := func(fees []*big.Int) *big.Int {
		biggest := new(big.Int)
		for i := 1; i < len(fees); i++ {
			step := new(big.Int).Sub(fees[i], fees[i-1])
			step.Abs(step)
			if step.Cmp(biggest) > 0 {
				biggest = step
			}
		}
		return biggest
	}

	denominators := []uint64{100, 200, 250, 300, 400}
	steps := make([]*big.Int, len(denominators))
	for i, d := range denominators {
		fees, err := Trajectory(obs, Params{Elasticity: 2, Denominator: d, InitialBaseFee: initial})
		require.NoError(t, err)
		steps[i] = maxStep(fees)
	}

	for i := 1; i < len(steps); i++ {
		assert.Equal(t, -1, steps[i].Cmp(steps[i-1]),
			"denominator %d should swing less than %d", denominators[i], denominators[i-1])
	}
}

func TestTrajectoryDegenerateTarget(t *testing.T) {
	p := Params{Elasticity: 100, Denominator: 250, InitialBaseFee: big.NewInt(1)}
	obs := []Observation{
		{BlockNumber: 1, GasUsed: 10, GasLimit: 50},
		{BlockNumber: 2, GasUsed: 10, GasLimit: 50},
	}

	fees, err := Trajectory(obs, p)
	require.ErrorIs(t, err, ErrDegenerateTarget)
	assert.Nil(t, fees, "no partial trajectory on failure")
}

func TestTrajectoryInvalidParams(t *testing.T) {
	_, err := Trajectory(fullBlocks(3), Params{Elasticity: 0, Denominator: 250, InitialBaseFee: big.NewInt(1)})
	require.ErrorIs(t, err, ErrInvalidParameter)
}
