// Package scanner walks a block range and measures every transaction's
// compressed size, producing the binary dataset the regression models train
// on.
package scanner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/sync/errgroup"

	"github.com/manifest-network/feescope/internal/compress"
	"github.com/manifest-network/feescope/internal/models"
)

// depositTxType is the OP-stack deposit transaction envelope type. Deposits
// are system transactions that never hit the batch compressor, so they are
// excluded from the dataset.
const depositTxType = 0x7e

// BlockClient is the slice of ethclient the scanner needs.
type BlockClient interface {
	BlockByNumber(ctx context.Context, number *big.Int) (*types.Block, error)
	Close()
}

// Dialer opens one client connection; each fetcher gets its own so a slow
// endpoint connection cannot serialize the whole scan.
type Dialer func(ctx context.Context) (BlockClient, error)

// RPCDialer dials a JSON-RPC endpoint with ethclient.
func RPCDialer(rpcURL string) Dialer {
	return func(ctx context.Context) (BlockClient, error) {
		c, err := ethclient.DialContext(ctx, rpcURL)
		if err != nil {
			return nil, fmt.Errorf("dialing %s: %w", rpcURL, err)
		}
		return c, nil
	}
}

// Config tunes a scan.
type Config struct {
	// StartBlock is the highest block to scan, or -1 for the chain head.
	StartBlock int64
	// EndBlock is the lowest block (exclusive); the scan walks downward.
	EndBlock uint64
	// Fetchers is the number of concurrent block fetchers.
	Fetchers int
	// MaxRetries bounds per-block fetch retries.
	MaxRetries uint
	// BootstrapTxs is how many transactions warm the zlib estimator before
	// measurements are recorded.
	BootstrapTxs int
	// TrimSignature drops the trailing signature bytes before measuring.
	TrimSignature bool
}

// Run scans blocks from cfg.StartBlock down to (but not including)
// cfg.EndBlock and streams one TxSizeRecord per non-deposit transaction to
// out. The zlib estimator is stateful and order-sensitive, so a single
// worker owns it while fetchers run concurrently.
func Run(ctx context.Context, dial Dialer, cfg Config, out io.Writer) error {
	fetchers := cfg.Fetchers
	if fetchers < 1 {
		fetchers = 1
	}

	startBlock, err := resolveStartBlock(ctx, dial, cfg.StartBlock)
	if err != nil {
		return err
	}
	if startBlock <= cfg.EndBlock {
		return fmt.Errorf("start block %d is not above end block %d", startBlock, cfg.EndBlock)
	}
	slog.Info("Starting compressed-size scan", "start", startBlock, "end", cfg.EndBlock)

	blockNums := make(chan uint64, fetchers*10)
	blocks := make(chan *types.Block, 20)
	records := make(chan models.TxSizeRecord, 1000)

	eg, ctx := errgroup.WithContext(ctx)

	// Feed block numbers in descending order.
	eg.Go(func() error {
		defer close(blockNums)
		for number := startBlock; number > cfg.EndBlock; number-- {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case blockNums <- number:
			}
		}
		return nil
	})

	// Concurrent fetchers, each with its own connection.
	fetchGroup, fetchCtx := errgroup.WithContext(ctx)
	for i := 0; i < fetchers; i++ {
		fetchGroup.Go(func() error {
			c, err := dial(fetchCtx)
			if err != nil {
				return err
			}
			defer c.Close()

			for number := range blockNums {
				block, err := fetchWithRetry(fetchCtx, c, number, cfg.MaxRetries)
				if err != nil {
					slog.Warn("Skipping unfetchable block", "height", number, "error", err)
					continue
				}
				select {
				case <-fetchCtx.Done():
					return fetchCtx.Err()
				case blocks <- block:
				}
			}
			return nil
		})
	}
	eg.Go(func() error {
		defer close(blocks)
		return fetchGroup.Wait()
	})

	// Single measuring worker owns the estimator.
	eg.Go(func() error {
		defer close(records)
		return measureBlocks(ctx, blocks, records, cfg)
	})

	// Writer.
	eg.Go(func() error {
		return writeRecords(records, out)
	})

	return eg.Wait()
}

func resolveStartBlock(ctx context.Context, dial Dialer, start int64) (uint64, error) {
	c, err := dial(ctx)
	if err != nil {
		return 0, err
	}
	defer c.Close()

	var number *big.Int
	if start >= 0 {
		number = big.NewInt(start)
	}
	block, err := c.BlockByNumber(ctx, number)
	if err != nil {
		return 0, fmt.Errorf("resolving start block: %w", err)
	}
	return block.NumberU64(), nil
}

func fetchWithRetry(ctx context.Context, c BlockClient, number uint64, maxRetries uint) (*types.Block, error) {
	delay := 100 * time.Millisecond
	for attempt := uint(0); ; attempt++ {
		block, err := c.BlockByNumber(ctx, new(big.Int).SetUint64(number))
		if err == nil {
			return block, nil
		}
		if attempt >= maxRetries {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

func measureBlocks(ctx context.Context, blocks <-chan *types.Block, records chan<- models.TxSizeRecord, cfg Config) error {
	estimator, err := compress.NewZlibBatchEstimator()
	if err != nil {
		return err
	}

	bootstrapLeft := cfg.BootstrapTxs
	for block := range blocks {
		for _, tx := range block.Transactions() {
			rec, ok, err := measureTx(block.NumberU64(), tx, estimator, &bootstrapLeft, cfg.TrimSignature)
			if err != nil {
				slog.Warn("Skipping unmeasurable transaction", "height", block.NumberU64(), "error", err)
				continue
			}
			if !ok {
				continue
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case records <- rec:
			}
		}
	}
	return nil
}

// measureTx feeds one transaction through the estimators. ok is false while
// the estimator is still bootstrapping and for filtered transaction types.
func measureTx(blockNumber uint64, tx *types.Transaction, estimator *compress.ZlibBatchEstimator, bootstrapLeft *int, trimSignature bool) (models.TxSizeRecord, bool, error) {
	if tx.Type() == depositTxType {
		return models.TxSizeRecord{}, false, nil
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return models.TxSizeRecord{}, false, fmt.Errorf("marshaling transaction: %w", err)
	}
	if trimSignature && len(raw) >= 68 {
		raw = raw[:len(raw)-68]
	}

	best, err := estimator.Write(raw)
	if err != nil {
		return models.TxSizeRecord{}, false, err
	}
	if *bootstrapLeft > 0 {
		*bootstrapLeft--
		if *bootstrapLeft == 0 {
			slog.Info("Estimator bootstrap complete")
		}
		return models.TxSizeRecord{}, false, nil
	}

	zeroes, nonZeroes := compress.ByteCounts(raw)
	return models.TxSizeRecord{
		Block:     uint32(blockNumber),
		Best:      best,
		FastLZ:    compress.FlzCompressLen(raw),
		Zeroes:    zeroes,
		NonZeroes: nonZeroes,
	}, true, nil
}

func writeRecords(records <-chan models.TxSizeRecord, out io.Writer) error {
	w := models.NewTxSizeWriter(out)

	lastPrint := time.Now()
	const printInterval = 10 * time.Second
	count := 0
	var lastBlock uint32

	for rec := range records {
		if err := w.Write(rec); err != nil {
			return err
		}
		count++
		lastBlock = rec.Block

		if time.Since(lastPrint) > printInterval {
			slog.Info("Scan progress", "transactions", count, "currentBlock", lastBlock)
			lastPrint = time.Now()
		}
	}
	slog.Info("Scan complete", "transactions", count)
	return nil
}
