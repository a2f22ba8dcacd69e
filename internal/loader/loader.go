// Package loader reads historical datasets from disk and hands the analysis
// code clean, ordered records.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/pkg/errors"

	"github.com/manifest-network/feescope/internal/models"
)

// Blocks reads a block-history CSV. Header rows are skipped, rows with ERROR
// placeholders (permanently failed fetches) are dropped, and the result is
// sorted ascending by block number. Duplicates and gaps pass through
// untouched; they are the analysis layer's concern.
func Blocks(path string) ([]models.BlockRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening block history %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var records []models.BlockRecord
	for line := 1; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if len(row) < 3 {
			return nil, errors.Errorf("%s: row %d has %d columns, want at least 3", path, line, len(row))
		}
		if isHeader(row) || isErrorRow(row) {
			continue
		}

		rec, err := parseRow(row)
		if err != nil {
			return nil, errors.WithMessagef(err, "%s: row %d", path, line)
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, errors.Errorf("%s: no valid block rows", path)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Number < records[j].Number })
	return records, nil
}

func isHeader(row []string) bool {
	_, err := strconv.ParseUint(row[0], 10, 64)
	return err != nil
}

func isErrorRow(row []string) bool {
	for _, cell := range row[1:] {
		if cell == "ERROR" {
			return true
		}
	}
	return false
}

func parseRow(row []string) (models.BlockRecord, error) {
	number, err := strconv.ParseUint(row[0], 10, 64)
	if err != nil {
		return models.BlockRecord{}, errors.WithMessage(err, "parsing block number")
	}
	gasUsed, err := strconv.ParseUint(row[1], 10, 64)
	if err != nil {
		return models.BlockRecord{}, errors.WithMessage(err, "parsing gas used")
	}
	gasLimit, err := strconv.ParseUint(row[2], 10, 64)
	if err != nil {
		return models.BlockRecord{}, errors.WithMessage(err, "parsing gas limit")
	}

	rec := models.BlockRecord{Number: number, GasUsed: gasUsed, GasLimit: gasLimit}
	if len(row) >= 5 {
		if ts, err := strconv.ParseUint(row[4], 10, 64); err == nil {
			rec.Timestamp = ts
		}
	}
	if len(row) >= 6 {
		rec.Hash = row[5]
	}
	return rec, nil
}

// TxSizeRecords reads a fixed-width binary compressed-size dataset.
func TxSizeRecords(path string) ([]models.TxSizeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening size dataset %s: %w", path, err)
	}
	defer f.Close()

	records, err := models.ReadTxSizeRecords(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}
