// Package config loads and validates the mediaid TOML configuration.
package config
