// Package logging constructs the application's slog loggers and provides
// shared attribute helpers so components log with consistent field names.
package logging
