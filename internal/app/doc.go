// Package app wires application dependencies for the CLI.
//
// It loads runtime configuration via viper and builds the concrete store,
// services, logger and room transport from it, exposing them via the Wire
// struct for commands to use.
package app
