// Package feescope wires the analysis commands into a single CLI. Every
// flag can also be set through the environment with the FEESCOPE_ prefix,
// e.g. FEESCOPE_RPC_URL for --rpc-url.
package feescope

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "feescope",
	Short: "Ethereum fee-market analysis toolkit",
	Long: `feescope extracts block gas data from an Ethereum JSON-RPC endpoint and
analyzes the fee market on top of it: base-fee trajectory simulation under
alternative EIP-1559 parameters, priority-fee monitoring, transaction
compressed-size scanning, and compression cost-model regression.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		if err := viper.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
			return err
		}
		if cfgFile := viper.GetString("config"); cfgFile != "" {
			viper.SetConfigFile(cfgFile)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("reading config file: %w", err)
			}
		}
		return setupLogger(viper.GetString("log-level"))
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Optional config file (any format viper reads)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	viper.SetEnvPrefix("FEESCOPE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the command context so
// long-running extractions shut down cleanly.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func setupLogger(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}
