// Package assertions provides the string checks used by checkspec.
//
// Supported checks:
//   - Contains all values, in any order (contains: [Hello, World])
//   - Prefix (startsWith: Hello)
//   - Suffix (endsWith: World)
//   - Exact equality (equals: Hello World)
//   - Regular expression (matches: ^Hello)
//
// Each check is a pure predicate. When it does not hold it builds a
// FailureReport and raises it as an *AssertionFailure whose message follows a
// fixed template, for example:
//
//	The string ["Hello World"] does not start with ["World"].
//
// The checks can be used directly (ContainsAll, StartsWith), chained with
// That, or evaluated against suite assertions through an Evaluator.
package assertions
