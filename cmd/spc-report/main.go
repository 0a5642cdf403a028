package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"spcpulse/internal/config"
	"spcpulse/internal/infrastructure"
	"spcpulse/pkg/contracts"
)

var longHelp = strings.TrimSpace(`
Offline statistical process control reports.

Runs the same engine as spc-server on local files: X̄-R and X̄-S control
limits, capability indices against specification limits, and out-of-control
detection. Reads CSV, text and XLSX files; writes JSON, CSV or XLSX.
`)

var exampleUsage = strings.TrimSpace(`
  spc-report analyze batch.csv --chart xs --usl 51 --lsl 49
  spc-report analyze line3.xlsx --sheet Week12 --format xlsx --out line3-report.xlsx
  spc-report constants 5
  spc-report simulate --seed 42 --out demo.csv && spc-report analyze demo.csv
`)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	logLevel string
	logger   *slog.Logger
	engine   config.EngineConfig
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{engine: config.Default().Engine}

	root := &cobra.Command{
		Use:           "spc-report",
		Short:         "Statistical process control reports from the command line",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       contracts.GetFullVersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.logger = infrastructure.NewLogger(cmd.ErrOrStderr(), opts.logLevel)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	root.PersistentFlags().BoolVar(&opts.engine.DegradeOnNoVariation, "degrade", opts.engine.DegradeOnNoVariation,
		"report zero capability instead of failing when the data has no variation")

	root.AddCommand(
		newAnalyzeCmd(opts),
		newConstantsCmd(opts),
		newSimulateCmd(opts),
	)
	return root
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		root.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
