package feescope

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/manifest-network/feescope/internal/loader"
	"github.com/manifest-network/feescope/internal/simulate"
	"github.com/manifest-network/feescope/internal/stats"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay extracted blocks through the base-fee recurrence",
	Long: `Replay a block-gas CSV through the EIP-1559 base-fee recurrence under
alternative parameters. Either the elasticity or the adjustment denominator
may be swept, one axis at a time. Prints a summary per parameter value and
optionally writes the full per-block trajectories to a CSV.`,
	RunE: runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.String("input", "blocks.csv", "Block-gas CSV produced by extract")
	f.Float64("initial-base-fee", 0.02, "Initial base fee in gwei")
	f.IntSlice("elasticity", []int{2}, "Elasticity multiplier values to sweep")
	f.IntSlice("denominator", []int{250}, "Adjustment denominator values to sweep")
	f.String("out", "", "Optional CSV path for the full trajectories")

	rootCmd.AddCommand(simulateCmd)
}

func uint64Slice(key string) []uint64 {
	in := viper.GetIntSlice(key)
	out := make([]uint64, len(in))
	for i, v := range in {
		out[i] = uint64(v)
	}
	return out
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	records, err := loader.Blocks(viper.GetString("input"))
	if err != nil {
		return err
	}

	usage := stats.SummarizeUsage(records)
	fmt.Printf("Blocks %d-%d (%d records)\n", usage.First, usage.Last, usage.Blocks)
	fmt.Printf("Gas utilization: mean %.2f%%, median %.2f%%, min %.2f%%, max %.2f%%\n\n",
		usage.Mean, usage.Median, usage.Min, usage.Max)

	req := simulate.Request{
		InitialBaseFeeGwei: viper.GetFloat64("initial-base-fee"),
		Elasticities:       uint64Slice("elasticity"),
		Denominators:       uint64Slice("denominator"),
	}
	sweeps, err := simulate.Run(records, req)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "sweep\tfinal (gwei)\tmin\tmax\tmean")
	for _, sweep := range sweeps {
		s := stats.SummarizeFees(sweep.Fees)
		fmt.Fprintf(w, "%s\t%.9f\t%.9f\t%.9f\t%.9f\n", sweep.Label, s.Final, s.Min, s.Max, s.Mean)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if out := viper.GetString("out"); out != "" {
		if err := simulate.WriteCSV(out, records, sweeps); err != nil {
			return err
		}
		fmt.Printf("\nTrajectories written to %s\n", out)
	}
	return nil
}
