package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/manifest-network/feescope/internal/client"
	"github.com/manifest-network/feescope/internal/models"
	"github.com/manifest-network/feescope/internal/output"
)

// Fetcher is the slice of the RPC client the extractor needs.
type Fetcher interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockByNumber(ctx context.Context, number uint64) (*models.BlockRecord, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
}

// Config tunes an extraction run.
type Config struct {
	MaxConcurrency int
	MaxRetries     uint
	// BlockTime is the polling interval, in seconds, used when following
	// the chain head.
	BlockTime uint
}

// ExtractRange fetches blocks [start, stop] and writes them to the output.
// A block whose fetch fails after all retries is recorded as an error row
// rather than aborting the run, so one flaky height cannot sink a long
// extraction.
func ExtractRange(ctx context.Context, fetcher Fetcher, start, stop uint64, out output.BlockOutput, cfg Config) error {
	if start > stop {
		return fmt.Errorf("invalid block range [%d, %d]", start, stop)
	}

	displayProgress := start != stop
	if displayProgress {
		slog.Info("Extracting block history", "range", fmt.Sprintf("[%d, %d]", start, stop))
	} else {
		slog.Info("Extracting block history", "height", start)
	}

	var bar *progressbar.ProgressBar
	if displayProgress {
		bar = progressbar.NewOptions64(
			int64(stop-start+1),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetDescription("Fetching blocks..."),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
		if err := bar.RenderBlank(); err != nil {
			return fmt.Errorf("failed to render progress bar: %w", err)
		}
	}

	if err := processBlocks(ctx, fetcher, start, stop, out, cfg, bar); err != nil {
		return fmt.Errorf("failed to process block range: %w", err)
	}

	if bar != nil {
		if err := bar.Finish(); err != nil {
			return fmt.Errorf("failed to finish progress bar: %w", err)
		}
	}
	return nil
}

func processBlocks(ctx context.Context, fetcher Fetcher, start, stop uint64, out output.BlockOutput, cfg Config, bar *progressbar.ProgressBar) error {
	concurrency := cfg.MaxConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	eg, ctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, concurrency)

	for height := start; height <= stop; height++ {
		if ctx.Err() != nil {
			slog.Info("Extraction cancelled")
			return ctx.Err()
		}

		blockHeight := height
		sem <- struct{}{}

		eg.Go(func() error {
			defer func() { <-sem }()

			if err := processSingleBlock(ctx, fetcher, blockHeight, out, cfg.MaxRetries); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				slog.Error("Block fetch failed permanently", "height", blockHeight, "error", err, "retries", cfg.MaxRetries)
				if writeErr := out.WriteErrorRow(ctx, blockHeight); writeErr != nil {
					return fmt.Errorf("failed to record error row for block %d: %w", blockHeight, writeErr)
				}
			}

			if bar != nil {
				if err := bar.Add(1); err != nil {
					slog.Warn("Failed to update progress bar", "error", err)
				}
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return fmt.Errorf("error while fetching blocks: %w", err)
	}
	return nil
}

func processSingleBlock(ctx context.Context, fetcher Fetcher, height uint64, out output.BlockOutput, maxRetries uint) error {
	rec, err := client.WithRetry(ctx, maxRetries, func() (*models.BlockRecord, error) {
		return fetcher.BlockByNumber(ctx, height)
	})
	if err != nil {
		return fmt.Errorf("failed to fetch block %d: %w", height, err)
	}
	if err := out.WriteBlock(ctx, *rec); err != nil {
		return fmt.Errorf("failed to write block %d: %w", height, err)
	}
	return nil
}

// BackfillMissing re-fetches blocks the output knows it is missing, for
// example gaps left by an interrupted earlier run.
func BackfillMissing(ctx context.Context, fetcher Fetcher, out output.BlockOutput, cfg Config) error {
	missing, err := out.MissingBlockNumbers(ctx)
	if err != nil {
		return fmt.Errorf("failed to get missing block numbers: %w", err)
	}
	if len(missing) == 0 {
		return nil
	}

	slog.Warn("Missing blocks detected", "count", len(missing))
	for _, height := range missing {
		if err := processSingleBlock(ctx, fetcher, height, out, cfg.MaxRetries); err != nil {
			return fmt.Errorf("failed to backfill block %d: %w", height, err)
		}
	}
	return nil
}
