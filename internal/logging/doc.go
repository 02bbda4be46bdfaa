// Package logging wraps log/slog with the console and JSON handlers used
// across mediaid, plus attribute helpers and standardized field keys.
package logging
