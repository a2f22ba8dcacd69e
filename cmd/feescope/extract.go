package feescope

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/manifest-network/feescope/internal/client"
	"github.com/manifest-network/feescope/internal/extractor"
	"github.com/manifest-network/feescope/internal/output"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Fetch per-block gas data from a JSON-RPC endpoint",
	Long: `Fetch gas usage for a block range and store it in a CSV file or a
PostgreSQL database. Re-running against an existing output resumes after
the last stored block. Blocks that cannot be fetched after all retries are
recorded as error rows and can be repaired later with --backfill.`,
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.String("rpc-url", "http://localhost:8545", "Ethereum JSON-RPC endpoint")
	f.Uint64("start", 1, "First block of the range")
	f.Uint64("stop", 0, "Last block of the range (0 means the current chain head)")
	f.String("output", "csv", "Output backend (csv or postgres)")
	f.String("csv-path", "blocks.csv", "CSV output path")
	f.String("postgres-dsn", "", "PostgreSQL connection string")
	f.Int("concurrency", 8, "Maximum concurrent block fetches")
	f.Uint("retries", 3, "Per-block fetch retries")
	f.Uint("block-time", 12, "Head polling interval in seconds, used with --live")
	f.Bool("live", false, "Keep following new blocks after the range completes")
	f.Bool("backfill", false, "Refetch gaps and error rows before extracting")

	rootCmd.AddCommand(extractCmd)
}

func newBlockOutput() (output.BlockOutput, error) {
	switch backend := viper.GetString("output"); backend {
	case "csv":
		return output.NewCSVBlockOutput(viper.GetString("csv-path"))
	case "postgres":
		dsn := viper.GetString("postgres-dsn")
		if dsn == "" {
			return nil, fmt.Errorf("postgres output requires --postgres-dsn")
		}
		return output.NewPostgresBlockOutput(dsn)
	default:
		return nil, fmt.Errorf("unknown output backend %q (want csv or postgres)", backend)
	}
}

func runExtract(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	out, err := newBlockOutput()
	if err != nil {
		return err
	}
	defer out.Close()

	c := client.New(viper.GetString("rpc-url"))
	cfg := extractor.Config{
		MaxConcurrency: viper.GetInt("concurrency"),
		MaxRetries:     viper.GetUint("retries"),
		BlockTime:      viper.GetUint("block-time"),
	}

	if viper.GetBool("backfill") {
		if err := extractor.BackfillMissing(ctx, c, out, cfg); err != nil {
			return err
		}
	}

	start := viper.GetUint64("start")
	stop := viper.GetUint64("stop")
	if stop == 0 {
		stop, err = client.LatestBlockNumberWithRetry(ctx, c, cfg.MaxRetries)
		if err != nil {
			return fmt.Errorf("resolving chain head: %w", err)
		}
	}

	if latest, ok, err := out.LatestBlockNumber(ctx); err != nil {
		return err
	} else if ok && latest+1 > start {
		slog.Info("Resuming extraction", "lastStored", latest)
		start = latest + 1
	}

	if start <= stop {
		if err := extractor.ExtractRange(ctx, c, start, stop, out, cfg); err != nil {
			return err
		}
	} else {
		slog.Info("Output is already up to date", "stop", stop)
	}

	if viper.GetBool("live") {
		return extractor.FollowHead(ctx, c, stop+1, out, cfg)
	}
	return nil
}
