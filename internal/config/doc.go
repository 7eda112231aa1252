// Package config loads, normalizes, and validates the TOML configuration
// shared by the cineforge CLI and the cineforged daemon.
package config
