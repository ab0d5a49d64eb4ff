// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// layers CLI flags over the environment, an optional config file and the
// built-in defaults to produce the application's configuration.
package cli
