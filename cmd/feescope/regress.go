package feescope

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/manifest-network/feescope/internal/loader"
	"github.com/manifest-network/feescope/internal/regression"
)

var regressCmd = &cobra.Command{
	Use:   "regress",
	Short: "Fit compression cost models against scanned transaction sizes",
	Long: `Fit linear models that predict a transaction's batch-compressed size
from cheap on-chain observables (FastLZ estimate, serialized size,
zero/non-zero byte counts), then score every model per time bucket. Also
refits the FastLZ-only model inside each bucket to expose drift in the
compression ratio over time.`,
	RunE: runRegress,
}

func init() {
	f := regressCmd.Flags()
	f.String("input", "fastlz.bin", "Binary size records produced by scan")
	f.String("group", "month", "Bucketing interval (day or month)")
	f.String("genesis-time", "2021-11-11T21:16:39Z", "Genesis block timestamp, RFC 3339")
	f.Uint64("genesis-block", 0, "Genesis block number")
	f.Duration("chain-block-time", 2*time.Second, "Fixed block cadence of the chain")
	f.Bool("signature-omitted", false, "Set when the scan ran with --trim-signature")
	f.String("report", "", "Optional CSV path for the per-bucket model scores")

	rootCmd.AddCommand(regressCmd)
}

func runRegress(cmd *cobra.Command, _ []string) error {
	records, err := loader.TxSizeRecords(viper.GetString("input"))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no size records in %s", viper.GetString("input"))
	}

	genesisTime, err := time.Parse(time.RFC3339, viper.GetString("genesis-time"))
	if err != nil {
		return fmt.Errorf("parsing --genesis-time: %w", err)
	}
	chain := regression.Chain{
		GenesisTime:  genesisTime,
		GenesisBlock: viper.GetUint64("genesis-block"),
		BlockTime:    viper.GetDuration("chain-block-time"),
	}

	groups, err := regression.GroupRecords(records, chain, regression.Interval(viper.GetString("group")))
	if err != nil {
		return err
	}

	set, err := regression.FitModelSet(regression.NewDataset(records))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	signatureOmitted := viper.GetBool("signature-omitted")
	reports := regression.EvaluateGroups(groups, set, signatureOmitted)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "bucket\tsamples\tmodel\trmse\tmae\tpredicted total")
	for _, report := range reports {
		for _, score := range report.Scores {
			fmt.Fprintf(w, "%s\t%d\t%s\t%.2f\t%.2f\t%.0f\n",
				report.Label, report.Samples, score.Name, score.RMSE, score.MAE, score.Total)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if path := viper.GetString("report"); path != "" {
		if err := regression.WriteReportCSV(path, reports); err != nil {
			return err
		}
	}

	fits, err := regression.FitPerGroup(groups)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "bucket\tsamples\tintercept\tfastlz coef\tr2")
	for _, fit := range fits {
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%.4f\t%.4f\n",
			fit.Label, fit.Samples, fit.Model.Intercept, fit.Model.Coef[0], fit.Metrics.R2)
	}
	return w.Flush()
}
