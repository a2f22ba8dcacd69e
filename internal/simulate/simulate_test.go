package simulate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manifest-network/feescope/internal/models"
)

func records(n int) []models.BlockRecord {
	recs := make([]models.BlockRecord, n)
	for i := range recs {
		recs[i] = models.BlockRecord{
			Number:   uint64(100 + i),
			GasUsed:  30_000_000,
			GasLimit: 30_000_000,
		}
	}
	return recs
}

func TestRunDenominatorSweep(t *testing.T) {
	sweeps, err := Run(records(5), Request{
		InitialBaseFeeGwei: 1,
		Elasticities:       []uint64{2},
		Denominators:       []uint64{100, 200, 250, 300, 400},
	})
	require.NoError(t, err)
	require.Len(t, sweeps, 5)

	assert.Equal(t, "D=100", sweeps[0].Label)
	assert.Equal(t, "D=400", sweeps[4].Label)
	for _, sweep := range sweeps {
		assert.Len(t, sweep.Fees, 5)
	}

	// The faster-adjusting sweep must end above the slower one on a run of
	// full blocks.
	last := len(sweeps[0].Fees) - 1
	assert.Equal(t, 1, sweeps[0].Fees[last].Cmp(sweeps[4].Fees[last]))
}

func TestRunElasticitySweep(t *testing.T) {
	sweeps, err := Run(records(3), Request{
		InitialBaseFeeGwei: 0.02,
		Elasticities:       []uint64{2, 5, 10},
		Denominators:       []uint64{250},
	})
	require.NoError(t, err)
	require.Len(t, sweeps, 3)
	assert.Equal(t, "E=2", sweeps[0].Label)
	assert.Equal(t, "E=10", sweeps[2].Label)
}

func TestRunRejectsDoubleSweep(t *testing.T) {
	_, err := Run(records(3), Request{
		InitialBaseFeeGwei: 1,
		Elasticities:       []uint64{2, 5},
		Denominators:       []uint64{100, 200},
	})
	assert.Error(t, err)
}

func TestRunRejectsEmptyAxes(t *testing.T) {
	_, err := Run(records(3), Request{InitialBaseFeeGwei: 1})
	assert.Error(t, err)
}

func TestColumnName(t *testing.T) {
	assert.Equal(t, "base_fee_d250", ColumnName("D=250"))
	assert.Equal(t, "base_fee_e75", ColumnName("E=75"))
}

func TestWriteCSV(t *testing.T) {
	recs := records(2)
	sweeps, err := Run(recs, Request{
		InitialBaseFeeGwei: 1,
		Elasticities:       []uint64{2},
		Denominators:       []uint64{250},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "comparison.csv")
	require.NoError(t, WriteCSV(path, recs, sweeps))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "block_number,gas_used,gas_limit,base_fee_d250", lines[0])
	assert.Equal(t, "100,30000000,30000000,1.000000000", lines[1])
	assert.Equal(t, "101,30000000,30000000,1.004000000", lines[2])
}

func TestWriteCSVLengthMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comparison.csv")
	err := WriteCSV(path, records(2), []Sweep{{Label: "D=250"}})
	assert.Error(t, err)
}
