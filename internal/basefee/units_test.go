package basefee

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGweiToWei(t *testing.T) {
	assert.Equal(t, big.NewInt(20_000_000), GweiToWei(0.02))
	assert.Equal(t, big.NewInt(1_000_000_000), GweiToWei(1))
	assert.Equal(t, big.NewInt(2_500_000_000), GweiToWei(2.5))
	assert.Equal(t, 0, GweiToWei(0).Sign())
}

func TestGweiToWeiTruncatesFractionalWei(t *testing.T) {
	// 0.1 wei truncates to zero.
	assert.Equal(t, 0, GweiToWei(0.0000000001).Sign())
}

func TestWeiToGwei(t *testing.T) {
	assert.InDelta(t, 1.004, WeiToGwei(big.NewInt(1_004_000_000)), 1e-12)
	assert.InDelta(t, 0.02, WeiToGwei(big.NewInt(20_000_000)), 1e-12)
	assert.Zero(t, WeiToGwei(new(big.Int)))
}
