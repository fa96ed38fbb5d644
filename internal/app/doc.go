// Package app wires application dependencies for the CLI.
//
// It builds the concrete stores, the crypto provider, the directory client
// and the session and message services from Config, exposing them via the
// Wire struct for commands to use.
package app
