// Package config loads and validates the TOML configuration shared by the
// lodestone daemon and CLI.
package config
