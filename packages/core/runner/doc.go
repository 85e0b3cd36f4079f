// Package runner executes checkspec suite files.
//
// It provides functionality for:
//   - Running the checks of a suite file, in declaration order
//   - Filtering checks by name, tag, only and skip
//   - Parallel evaluation with configurable concurrency
//   - Variable resolution for values, files and expected parameters
//   - Snapshot comparison of check outcomes
//
// Expectations inside one check fail fast: the first failing expectation
// ends the check and the rest are counted as not evaluated.
package runner
