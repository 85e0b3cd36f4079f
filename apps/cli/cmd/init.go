package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/checkspec/packages/core/config"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new checkspec project",
	Long: `Initialize a new checkspec project in the current directory.

This creates:
  - .checkspec.config.json - Configuration file
  - example.check.yaml     - Example suite

Examples:
  checkspec init
  checkspec init --force`,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

// exampleSuite mirrors the suite file layout so the generated file keeps
// its keys in reading order.
type exampleSuite struct {
	Name      string            `yaml:"name"`
	Variables map[string]string `yaml:"variables"`
	Checks    []exampleCheck    `yaml:"checks"`
}

type exampleCheck struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Tags        []string         `yaml:"tags,omitempty,flow"`
	Value       string           `yaml:"value"`
	Snapshot    bool             `yaml:"snapshot,omitempty"`
	Expect      []map[string]any `yaml:"expect"`
}

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, config.ConfigFilenames[0])
	exampleFile := filepath.Join(cwd, "example.check.yaml")

	if !forceInit {
		for _, f := range []string{configFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return withExitCode(ExitUsageError, fmt.Errorf("file already exists: %s (use --force to overwrite)", f))
			}
		}
	}

	cfg := config.DefaultConfig()
	cfg.Variables = map[string]string{"greeting": "Hello"}
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	example := exampleSuite{
		Name:      "example",
		Variables: map[string]string{"who": "World"},
		Checks: []exampleCheck{
			{
				Name:        "greeting",
				Description: "Every expectation must hold; the first failure is reported",
				Tags:        []string{"smoke"},
				Value:       "{{greeting}}, {{who}}!",
				Expect: []map[string]any{
					{"contains": []string{"{{greeting}}", "{{who}}"}},
					{"startsWith": "{{greeting}}"},
					{"endsWith": "!"},
				},
			},
			{
				Name:  "user payload",
				Value: `{"user": {"name": "Alice", "roles": ["admin", "dev"]}}`,
				Expect: []map[string]any{
					{"subject": "json.user.name", "equals": "Alice"},
					{"subject": "json.user.roles[1]", "matches": "^d"},
				},
			},
		},
	}

	exampleYAML, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to render example suite: %w", err)
	}
	if err := os.WriteFile(exampleFile, exampleYAML, 0644); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	fmt.Fprintf(cmd.OutOrStdout(), "\ncheckspec project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'checkspec run example.check.yaml' to evaluate the example checks.\n")

	return nil
}
