package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/checkspec/packages/assertions"
	"github.com/abdul-hamid-achik/checkspec/packages/core/config"
	"github.com/abdul-hamid-achik/checkspec/packages/core/env"
	"github.com/abdul-hamid-achik/checkspec/packages/core/parser"
)

var (
	validateConfigFlag  string
	validateEnvFileFlag string
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>...",
	Short: "Validate suite files for syntax errors",
	Long: `Validate suite files against the suite schema without evaluating them.

Every 'matches' pattern is compiled, and {{...}} expressions that no variable,
environment variable or builtin function can resolve are reported as warnings.

Examples:
  checkspec validate greetings.check.yaml
  checkspec validate ./checks/`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func init() {
	validateCmd.Flags().StringVar(&validateConfigFlag, "config", getEnvString("CHECKSPEC_CONFIG", ""), "Path to config file (env: CHECKSPEC_CONFIG)")
	validateCmd.Flags().StringVar(&validateEnvFileFlag, "env-file", getEnvString("CHECKSPEC_ENV_FILE", ""), "Path to .env file (env: CHECKSPEC_ENV_FILE)")
}

func validateCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(validateConfigFlag)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	envFile := cfg.EnvFile
	if validateEnvFileFlag != "" {
		envFile = validateEnvFileFlag
	}

	var dotenv map[string]string
	if envFile != "" {
		if dotenv, err = env.LoadDotEnv(envFile); err != nil {
			return withExitCode(ExitConfigError, fmt.Errorf("loading env file: %w", err))
		}
	}
	known := env.MergeVariables(
		env.LoadSystemEnv(env.SystemPrefix),
		env.StringMap(dotenv),
		env.StringMap(cfg.Variables),
	)

	files, err := collectFiles(args)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	if len(files) == 0 {
		return withExitCode(ExitUsageError, fmt.Errorf("no suite files found (%s)", strings.Join(suiteExtensions, ", ")))
	}

	yellow := color.New(color.FgYellow).SprintFunc()

	hasErrors := false
	for _, file := range files {
		suite, err := parser.ParseFile(file)
		if err == nil {
			err = validateSuite(cmd.ErrOrStderr(), suite, known, yellow)
		}
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
		}
	}

	if hasErrors {
		return withExitCode(ExitParseError, errors.New("validation failed"))
	}

	return nil
}

// validateSuite compiles every expectation of the suite and warns about
// expressions that would be left unresolved at run time.
func validateSuite(w io.Writer, suite *parser.Suite, known map[string]any, warn func(...any) string) error {
	resolver := env.NewResolver()
	resolver.SetVariables(known)

	report := func(line int, input string) {
		for _, expr := range resolver.GetUnresolvedVariables(input) {
			fmt.Fprintf(w, "%s %s:%d: unresolved expression {{%s}}\n", warn("Warning:"), suite.Path, line, expr)
		}
	}

	for _, v := range suite.Variables {
		report(v.Line, v.Value)
		resolver.SetVariable(v.Name, resolver.Resolve(v.Value))
	}

	var errs []error
	for _, check := range suite.Checks {
		report(check.Line, check.Value)
		report(check.Line, check.File)
		for _, a := range check.Assertions {
			for _, value := range a.ExpectedValues() {
				report(a.Line, value)
			}

			resolved := *a
			if a.Operator == parser.OpContains {
				resolved.Expected = resolver.ResolveAll(a.ExpectedValues())
			} else {
				resolved.Expected = resolver.Resolve(a.ExpectedString())
			}
			if _, err := assertions.CheckFor(&resolved); err != nil {
				errs = append(errs, fmt.Errorf("check %q line %d: %w", check.Name, a.Line, err))
			}
		}
	}
	return errors.Join(errs...)
}
