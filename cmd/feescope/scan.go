package feescope

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/manifest-network/feescope/internal/scanner"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Measure per-transaction compressed sizes over a block range",
	Long: `Walk a block range from the newest block downward and record, for every
non-deposit transaction, its batch-compressed size alongside the FastLZ
estimate and zero/non-zero byte counts. The output is a fixed-width binary
file consumed by the regress command.`,
	RunE: runScan,
}

func init() {
	f := scanCmd.Flags()
	f.String("rpc-url", "http://localhost:8545", "Ethereum JSON-RPC endpoint")
	f.Int64("start", -1, "Highest block to scan (-1 means the current chain head)")
	f.Uint64("end", 0, "Lowest block of the range, exclusive")
	f.Int("fetchers", 4, "Concurrent block fetchers")
	f.Uint("retries", 3, "Per-block fetch retries")
	f.Int("bootstrap-txs", 100, "Transactions used to warm the batch compressor before recording")
	f.Bool("trim-signature", false, "Drop the trailing signature bytes before measuring")
	f.String("out", "fastlz.bin", "Binary output path")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	path := viper.GetString("out")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	cfg := scanner.Config{
		StartBlock:    viper.GetInt64("start"),
		EndBlock:      viper.GetUint64("end"),
		Fetchers:      viper.GetInt("fetchers"),
		MaxRetries:    viper.GetUint("retries"),
		BootstrapTxs:  viper.GetInt("bootstrap-txs"),
		TrimSignature: viper.GetBool("trim-signature"),
	}
	dial := scanner.RPCDialer(viper.GetString("rpc-url"))
	if err := scanner.Run(cmd.Context(), dial, cfg, f); err != nil {
		return err
	}
	return f.Sync()
}
