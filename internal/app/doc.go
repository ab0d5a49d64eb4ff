// Package app contains the core application logic. It assembles the
// configuration, logger, planner registry and build session, and runs one
// build request, decoupled from any specific entrypoint like a CLI.
//
// # Configuration
//
// Config is layered, lowest precedence first: DefaultConfig, an optional
// YAML file (LoadFile), environment variables (LoadEnv, which also reads an
// optional .env file), and finally whatever the entrypoint sets explicitly.
// NewConfig validates the merged result.
package app
