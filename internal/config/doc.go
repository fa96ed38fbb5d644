// Package config loads runtime settings for the moltspeak CLI and the
// development directory server.
//
// Settings are layered: built-in defaults, then an optional TOML or YAML
// file, then MOLTSPEAK_* environment variables (a .env file in the working
// directory is loaded first when present).
package config
