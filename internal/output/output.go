package output

import (
	"context"

	"github.com/manifest-network/feescope/internal/models"
)

type BlockOutput interface {
	// WriteBlock writes one extracted block record to the output.
	WriteBlock(ctx context.Context, rec models.BlockRecord) error

	// WriteErrorRow records a block whose fetch permanently failed, so the
	// gap is visible downstream instead of silently missing.
	WriteErrorRow(ctx context.Context, blockNumber uint64) error

	// LatestBlockNumber returns the highest block number present in the
	// output, or ok=false when the output is empty.
	LatestBlockNumber(ctx context.Context) (number uint64, ok bool, err error)

	// MissingBlockNumbers returns block numbers absent from the contiguous
	// range the output already spans.
	MissingBlockNumbers(ctx context.Context) ([]uint64, error)

	// Close flushes and closes the output.
	Close() error
}

// TipOutput receives live priority-fee samples.
type TipOutput interface {
	WriteTipSample(ctx context.Context, sample models.TipSample) error
	Close() error
}
