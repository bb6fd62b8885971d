// Package log provides structured logging on top of log/slog with automatic
// masking of sensitive values.
//
// The SecureHandler masks session cookies (including the Cloudflare clearance
// cookies adopted from FlareSolverr), authorization headers and database auth
// tokens before any handler writes them.
//
//	logger := log.NewSecureLogger(os.Stderr, log.Options{Level: slog.LevelInfo})
//	logger.Info("session updated", "cookie", "cf_clearance=abc") // cookie=***REDACTED***
package log
