package extractor

import (
	"context"
	"log/slog"
	"time"

	"github.com/manifest-network/feescope/internal/basefee"
	"github.com/manifest-network/feescope/internal/models"
	"github.com/manifest-network/feescope/internal/output"
)

// MonitorTips polls the node on the given interval and records one priority
// fee sample per new head. Failed polls are logged and retried on the next
// tick; the monitor only stops on context cancellation. metrics may be nil.
func MonitorTips(ctx context.Context, fetcher Fetcher, out output.TipOutput, interval time.Duration, metrics *TipMetrics) error {
	slog.Info("Starting priority-fee monitor", "interval", interval)

	var lastBlockNumber uint64
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		sample, sampled := sampleOnce(ctx, fetcher, &lastBlockNumber, metrics)
		if sampled {
			if err := out.WriteTipSample(ctx, sample); err != nil {
				return err
			}
			slog.Info("Recorded tip sample",
				"height", sample.BlockNumber,
				"maxPriorityFeeGwei", sample.MaxPriorityFeeGwei,
				"gasUsageRatio", sample.GasUsageRatio)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func sampleOnce(ctx context.Context, fetcher Fetcher, lastBlockNumber *uint64, metrics *TipMetrics) (models.TipSample, bool) {
	height, err := fetcher.LatestBlockNumber(ctx)
	if err != nil {
		slog.Warn("Failed to get latest block number", "error", err)
		metrics.observeError()
		return models.TipSample{}, false
	}
	if height == *lastBlockNumber {
		return models.TipSample{}, false
	}
	*lastBlockNumber = height

	rec, err := fetcher.BlockByNumber(ctx, height)
	if err != nil {
		slog.Warn("Failed to get block gas info", "height", height, "error", err)
		metrics.observeError()
		return models.TipSample{}, false
	}

	tip, err := fetcher.SuggestGasTipCap(ctx)
	if err != nil {
		slog.Warn("Failed to get priority fee suggestion", "height", height, "error", err)
		metrics.observeError()
		return models.TipSample{}, false
	}

	var ratio float64
	if rec.GasLimit > 0 {
		ratio = float64(rec.GasUsed) / float64(rec.GasLimit)
	}

	sample := models.TipSample{
		Timestamp:          time.Now(),
		BlockNumber:        height,
		MaxPriorityFeeGwei: basefee.WeiToGwei(tip),
		GasUsageRatio:      ratio,
	}
	metrics.observeSample(sample)
	return sample, true
}
