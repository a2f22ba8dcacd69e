package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/manifest-network/feescope/internal/models"
)

var blockHeader = []string{"block_number", "gas_used", "gas_limit", "gas_utilization", "timestamp", "hash"}

const errorCell = "ERROR"

// CSVBlockOutput appends block records to a CSV file, writing the header
// only when the file starts empty. Rows may land out of block order when the
// extractor runs concurrently; the loader sorts on read.
type CSVBlockOutput struct {
	mu   sync.Mutex
	file *os.File
	w    *csv.Writer

	seen     map[uint64]struct{}
	min, max uint64
	any      bool
}

// NewCSVBlockOutput opens (or creates) path in append mode and indexes the
// block numbers already present so resumed runs can detect gaps.
func NewCSVBlockOutput(path string) (*CSVBlockOutput, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening block output %s: %w", path, err)
	}

	out := &CSVBlockOutput{
		file: file,
		w:    csv.NewWriter(file),
		seen: make(map[uint64]struct{}),
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		if err := out.w.Write(blockHeader); err != nil {
			file.Close()
			return nil, fmt.Errorf("writing header: %w", err)
		}
		out.w.Flush()
		if err := out.w.Error(); err != nil {
			file.Close()
			return nil, err
		}
		return out, nil
	}

	if err := out.indexExisting(path); err != nil {
		file.Close()
		return nil, err
	}
	return out, nil
}

func (o *CSVBlockOutput) indexExisting(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("reindexing %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	for {
		row, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reindexing %s: %w", path, err)
		}
		if len(row) == 0 {
			continue
		}
		number, err := strconv.ParseUint(row[0], 10, 64)
		if err != nil {
			continue // header or malformed row
		}
		o.track(number)
	}
}

func (o *CSVBlockOutput) track(number uint64) {
	o.seen[number] = struct{}{}
	if !o.any || number < o.min {
		o.min = number
	}
	if !o.any || number > o.max {
		o.max = number
	}
	o.any = true
}

func (o *CSVBlockOutput) writeRow(row []string) error {
	if err := o.w.Write(row); err != nil {
		return err
	}
	o.w.Flush()
	return o.w.Error()
}

func (o *CSVBlockOutput) WriteBlock(_ context.Context, rec models.BlockRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	row := []string{
		strconv.FormatUint(rec.Number, 10),
		strconv.FormatUint(rec.GasUsed, 10),
		strconv.FormatUint(rec.GasLimit, 10),
		fmt.Sprintf("%.2f", rec.GasUtilization()),
		strconv.FormatUint(rec.Timestamp, 10),
		rec.Hash,
	}
	if err := o.writeRow(row); err != nil {
		return fmt.Errorf("writing block %d: %w", rec.Number, err)
	}
	o.track(rec.Number)
	return nil
}

func (o *CSVBlockOutput) WriteErrorRow(_ context.Context, blockNumber uint64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	row := []string{strconv.FormatUint(blockNumber, 10), errorCell, errorCell, errorCell, errorCell, errorCell}
	if err := o.writeRow(row); err != nil {
		return fmt.Errorf("writing error row for block %d: %w", blockNumber, err)
	}
	o.track(blockNumber)
	return nil
}

func (o *CSVBlockOutput) LatestBlockNumber(context.Context) (uint64, bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.max, o.any, nil
}

func (o *CSVBlockOutput) MissingBlockNumbers(context.Context) ([]uint64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	var missing []uint64
	if !o.any {
		return nil, nil
	}
	for n := o.min; n <= o.max; n++ {
		if _, ok := o.seen[n]; !ok {
			missing = append(missing, n)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing, nil
}

func (o *CSVBlockOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.w.Flush()
	if err := o.w.Error(); err != nil {
		o.file.Close()
		return err
	}
	return o.file.Close()
}
