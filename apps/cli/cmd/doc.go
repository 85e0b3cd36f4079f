// Package cmd implements the checkspec CLI commands using Cobra.
//
// Available commands:
//   - run: Evaluate the checks of suite files
//   - validate: Check suite file syntax without evaluating
//   - list: Display all checks defined in files
//   - history: Show recently recorded runs
//   - init: Create an example suite and config file
//   - version: Show checkspec version information
//
// Flags fall back to CHECKSPEC_* environment variables, then to the
// .checkspec.config.json file, then to built-in defaults.
package cmd
