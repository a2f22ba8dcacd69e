package output

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/manifest-network/feescope/internal/models"
)

const tipHeader = "timestamp,block_number,max_priority_fee_gwei,gas_usage_ratio\n"

// CSVTipOutput appends priority-fee samples to a CSV file in the monitor's
// historical format.
type CSVTipOutput struct {
	mu   sync.Mutex
	file *os.File
}

func NewCSVTipOutput(path string) (*CSVTipOutput, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening tip output %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		if _, err := file.WriteString(tipHeader); err != nil {
			file.Close()
			return nil, fmt.Errorf("writing header: %w", err)
		}
	}
	return &CSVTipOutput{file: file}, nil
}

func (o *CSVTipOutput) WriteTipSample(_ context.Context, sample models.TipSample) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	line := fmt.Sprintf("%s,%d,%.9f,%.6f\n",
		sample.Timestamp.Format(time.RFC3339),
		sample.BlockNumber,
		sample.MaxPriorityFeeGwei,
		sample.GasUsageRatio,
	)
	if _, err := o.file.WriteString(line); err != nil {
		return fmt.Errorf("writing tip sample for block %d: %w", sample.BlockNumber, err)
	}
	return nil
}

func (o *CSVTipOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.file.Close()
}
