// Package config loads, validates, and normalizes the SmartPress TOML
// configuration shared by the CLI and the backend daemon.
package config
