package output

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/feescope/internal/models"
)

func TestCSVBlockOutputWritesHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.csv")
	out, err := NewCSVBlockOutput(path)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, out.WriteBlock(ctx, models.BlockRecord{
		Number: 100, GasUsed: 15_000_000, GasLimit: 30_000_000, Timestamp: 1700000000, Hash: "0xaa",
	}))
	require.NoError(t, out.WriteErrorRow(ctx, 101))
	require.NoError(t, out.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "block_number,gas_used,gas_limit,gas_utilization,timestamp,hash", lines[0])
	assert.Equal(t, "100,15000000,30000000,50.00,1700000000,0xaa", lines[1])
	assert.Equal(t, "101,ERROR,ERROR,ERROR,ERROR,ERROR", lines[2])
}

func TestCSVBlockOutputResumeTracksExistingBlocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.csv")
	ctx := context.Background()

	out, err := NewCSVBlockOutput(path)
	require.NoError(t, err)
	require.NoError(t, out.WriteBlock(ctx, models.BlockRecord{Number: 10, GasLimit: 1}))
	require.NoError(t, out.WriteBlock(ctx, models.BlockRecord{Number: 13, GasLimit: 1}))
	require.NoError(t, out.Close())

	out, err = NewCSVBlockOutput(path)
	require.NoError(t, err)
	defer out.Close()

	latest, ok, err := out.LatestBlockNumber(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(13), latest)

	missing, err := out.MissingBlockNumbers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{11, 12}, missing)
}

func TestCSVBlockOutputEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.csv")
	out, err := NewCSVBlockOutput(path)
	require.NoError(t, err)
	defer out.Close()

	ctx := context.Background()
	_, ok, err := out.LatestBlockNumber(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	missing, err := out.MissingBlockNumbers(ctx)
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestCSVTipOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fees.csv")
	out, err := NewCSVTipOutput(path)
	require.NoError(t, err)

	sample := models.TipSample{
		BlockNumber:        424242,
		MaxPriorityFeeGwei: 1.5,
		GasUsageRatio:      0.51,
	}
	require.NoError(t, out.WriteTipSample(context.Background(), sample))
	require.NoError(t, out.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "timestamp,block_number,max_priority_fee_gwei,gas_usage_ratio", lines[0])
	assert.Contains(t, lines[1], ",424242,1.500000000,0.510000")
}
