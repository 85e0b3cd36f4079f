// Package env handles variables and variable resolution for checkspec.
//
// It provides functionality for:
//   - Loading .env files
//   - Variable interpolation using {{variable}} syntax
//   - Process environment lookups with {{$NAME}}
//   - Built-in function evaluation ({{upper(x)}}, {{uuid()}}, ...)
//   - Merging variables from config, .env, CHECKSPEC_VAR_* and suite files
package env
