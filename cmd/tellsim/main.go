// Command tellsim runs the river-valley clan simulation and reports on
// stored runs.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath  string
	turnsFlag   int
	seedFlag    int64
	dbFlag      string
	metricsFlag string
	runIDFlag   string
	notesFlag   int

	rootCmd = &cobra.Command{
		Use:   "tellsim",
		Short: "Simulate Neolithic clans settling a river valley",
		Long: `tellsim grows clans in river-valley villages turn by turn: births and
deaths, fields and fishing, prestige and leadership, rites, splits and
migration to new villages. Runs are stored in SQLite for later reports.`,
		SilenceUsage: true,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Generate a valley and run the simulation",
		RunE:  runSimulation,
	}

	reportCmd = &cobra.Command{
		Use:   "report",
		Short: "Print the timeline of a stored run",
		RunE:  runReport,
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		RunE:  runConfigInit,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "tellsim.yaml", "configuration file")

	runCmd.Flags().IntVar(&turnsFlag, "turns", 0, "turns to run (0 runs until interrupted)")
	runCmd.Flags().Int64Var(&seedFlag, "seed", 0, "random seed (0 draws one)")
	runCmd.Flags().StringVar(&dbFlag, "db", "", "SQLite database path")
	runCmd.Flags().StringVar(&metricsFlag, "metrics-addr", "", "serve /metrics and the read-only /api/v1 on this address")

	reportCmd.Flags().StringVar(&dbFlag, "db", "", "SQLite database path")
	reportCmd.Flags().StringVar(&runIDFlag, "run", "", "run id (default: the last run)")
	reportCmd.Flags().IntVar(&notesFlag, "notes", 10, "recent notes to show")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(runCmd, reportCmd, configCmd)
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
