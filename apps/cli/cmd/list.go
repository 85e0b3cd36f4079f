package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/checkspec/packages/core/parser"
)

var listCmd = &cobra.Command{
	Use:   "list <file|directory>...",
	Short: "List all checks in suite files",
	Long: `List all checks defined in suite files.

Examples:
  checkspec list greetings.check.yaml
  checkspec list ./checks/`,
	Args: cobra.MinimumNArgs(1),
	RunE: listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	if len(files) == 0 {
		return withExitCode(ExitUsageError, fmt.Errorf("no suite files found (%s)", strings.Join(suiteExtensions, ", ")))
	}

	for _, file := range files {
		suite, err := parser.ParseFile(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error parsing %s: %v\n", file, err)
			continue
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\n%s:\n", file)
		for _, check := range suite.Checks {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %s%s\n", check.Name, markers(check))
			if len(check.Tags) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "    tags: %v\n", check.Tags)
			}
		}
	}

	return nil
}

func markers(check *parser.Check) string {
	var m []string
	if check.Only {
		m = append(m, "only")
	}
	if check.Skip != "" {
		m = append(m, "skip: "+check.Skip)
	}
	if check.Snapshot {
		m = append(m, "snapshot")
	}
	if len(m) == 0 {
		return ""
	}
	return " (" + strings.Join(m, ", ") + ")"
}
