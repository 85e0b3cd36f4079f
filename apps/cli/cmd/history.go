package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/checkspec/packages/core/config"
	"github.com/abdul-hamid-achik/checkspec/packages/history"
)

var (
	historyDBFlag     string
	historyLimitFlag  int
	historyConfigFlag string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently recorded runs",
	Long: `Show the runs recorded with 'checkspec run --history <db>', newest first.

Examples:
  checkspec history --db .checkspec.db
  checkspec history --limit 5`,
	Args: cobra.NoArgs,
	RunE: historyCommand,
}

func init() {
	historyCmd.Flags().StringVar(&historyDBFlag, "db", getEnvString("CHECKSPEC_HISTORY", ""), "SQLite history database (env: CHECKSPEC_HISTORY)")
	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "l", 10, "Number of runs to show")
	historyCmd.Flags().StringVar(&historyConfigFlag, "config", getEnvString("CHECKSPEC_CONFIG", ""), "Path to config file (env: CHECKSPEC_CONFIG)")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	dsn := historyDBFlag
	if dsn == "" {
		cfg, err := config.LoadConfig(historyConfigFlag)
		if err != nil {
			return withExitCode(ExitConfigError, err)
		}
		dsn = cfg.History
	}
	if dsn == "" {
		return withExitCode(ExitUsageError, errors.New("no history database (use --db or set \"history\" in the config file)"))
	}

	store, err := history.Open(dsn)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	defer store.Close()

	runs, err := store.Recent(cmd.Context(), historyLimitFlag)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	for _, run := range runs {
		status := green("PASS")
		if !run.Succeeded() {
			status = red("FAIL")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %d passed, %d failed, %d skipped  (%d files, %dms)  %s\n",
			run.StartedAt.Format(time.DateTime),
			status,
			run.Passed, run.Failed, run.Skipped,
			run.Files, run.Duration.Milliseconds(),
			run.ID,
		)
	}

	return nil
}
