// adjudicator judges contract clauses from interpreted facts and a neural
// risk band, and keeps an auditable record of every verdict.
//
// Usage:
//
//	adjudicator judge [file|-] [--save] [--batch]
//	adjudicator interpret --clause <text> [--addr host:port] [--save]
//	adjudicator serve [--listen :50052] [--metrics :9090]
//	adjudicator replay --fixture <path> | --stored <n> [--runs 30]
//	adjudicator inspect [adjudication-id]
//	adjudicator export-fixture --out <path> [--last n]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/clause-adjudicator/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	config    string
	db        string
	logLevel  string
	logFormat string
}

var rootCmd = &cobra.Command{
	Use:   "adjudicator",
	Short: "Deterministic risk adjudication for contract clauses",
	Long: "adjudicator combines interpreted facts, legal authority, a rule engine and\n" +
		"bilingual risk patterns into a reproducible, digest-stamped verdict.",
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.config, "config", envOr("ADJUDICATOR_CONFIG", ""), "YAML configuration (defaults when empty)")
	pf.StringVar(&rootFlags.db, "db", envOr("ADJUDICATOR_DB", "adjudicator.db"), "SQLite audit database")
	pf.StringVar(&rootFlags.logLevel, "log-level", "info", "debug|info|warn|error")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "text|json")

	rootCmd.AddCommand(judgeCmd)
	rootCmd.AddCommand(interpretCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.Version = version
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	level, err := logging.ParseLevel(rootFlags.logLevel)
	if err != nil {
		return err
	}
	return logging.Init(level, rootFlags.logFormat, cmd.ErrOrStderr())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
