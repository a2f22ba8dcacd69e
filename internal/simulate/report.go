package simulate

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/manifest-network/feescope/internal/basefee"
	"github.com/manifest-network/feescope/internal/models"
)

// WriteCSV writes the comparison dataset: the input block columns followed
// by one base-fee column (gwei) per sweep, aligned row by row.
func WriteCSV(path string, records []models.BlockRecord, sweeps []Sweep) error {
	for _, sweep := range sweeps {
		if len(sweep.Fees) != len(records) {
			return fmt.Errorf("sweep %s has %d fees for %d blocks", sweep.Label, len(sweep.Fees), len(records))
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"block_number", "gas_used", "gas_limit"}
	for _, sweep := range sweeps {
		header = append(header, ColumnName(sweep.Label))
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, rec := range records {
		row := []string{
			strconv.FormatUint(rec.Number, 10),
			strconv.FormatUint(rec.GasUsed, 10),
			strconv.FormatUint(rec.GasLimit, 10),
		}
		for _, sweep := range sweeps {
			row = append(row, strconv.FormatFloat(basefee.WeiToGwei(sweep.Fees[i]), 'f', 9, 64))
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return nil
}
