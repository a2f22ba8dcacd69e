package feescope

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/manifest-network/feescope/internal/client"
	"github.com/manifest-network/feescope/internal/extractor"
	"github.com/manifest-network/feescope/internal/output"
)

var tipsCmd = &cobra.Command{
	Use:   "tips",
	Short: "Sample the suggested priority fee over time",
	Long: `Poll the endpoint's suggested priority fee together with the head
block's gas usage and append each sample to a CSV. Runs until interrupted.
With --metrics-addr the latest sample is also exported as Prometheus
gauges.`,
	RunE: runTips,
}

func init() {
	f := tipsCmd.Flags()
	f.String("rpc-url", "http://localhost:8545", "Ethereum JSON-RPC endpoint")
	f.String("tips-path", "tips.csv", "CSV output path")
	f.Duration("interval", 12*time.Second, "Sampling interval; unchanged heads are skipped")
	f.String("metrics-addr", "", "Optional listen address for Prometheus metrics, e.g. :9090")

	rootCmd.AddCommand(tipsCmd)
}

func runTips(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	out, err := output.NewCSVTipOutput(viper.GetString("tips-path"))
	if err != nil {
		return err
	}
	defer out.Close()

	var metrics *extractor.TipMetrics
	if addr := viper.GetString("metrics-addr"); addr != "" {
		metrics = extractor.NewTipMetrics()
		go metrics.Serve(ctx, addr)
	}

	c := client.New(viper.GetString("rpc-url"))
	return extractor.MonitorTips(ctx, c, out, viper.GetDuration("interval"), metrics)
}
