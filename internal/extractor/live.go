package extractor

import (
	"context"
	"fmt"
	"time"

	"github.com/manifest-network/feescope/internal/client"
	"github.com/manifest-network/feescope/internal/output"
)

// FollowHead extracts new blocks as the chain produces them, starting at
// start. Returns nil when the context is cancelled.
func FollowHead(ctx context.Context, fetcher Fetcher, start uint64, out output.BlockOutput, cfg Config) error {
	currentHeight := start - 1
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			latestHeight, err := client.WithRetry(ctx, cfg.MaxRetries, func() (uint64, error) {
				return fetcher.LatestBlockNumber(ctx)
			})
			if err != nil {
				return fmt.Errorf("failed to get latest block height: %w", err)
			}

			if latestHeight > currentHeight {
				if err := ExtractRange(ctx, fetcher, currentHeight+1, latestHeight, out, cfg); err != nil {
					return fmt.Errorf("failed to extract new blocks: %w", err)
				}
				currentHeight = latestHeight
			}

			// Sleep before checking again.
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Duration(cfg.BlockTime) * time.Second):
			}
		}
	}
}
