// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// This package extends slog to provide:
//   - Automatic sanitization of sensitive values (API keys, passwords, tokens)
//   - Configurable log levels with verbose mode support
//   - Consistent log formatting across the application
//   - Compatibility with retryablehttp's slog-based logging
//
// # Security Features
//
// The SecureHandler automatically sanitizes sensitive information in log output:
//   - HTTP headers (Authorization, Cookie, X-Auth, X-Api-Key)
//   - Secret values detected by pattern matching (passwords, tokens, keys)
//   - SMTP credentials used for notification delivery
//   - Session identifiers and authentication tokens
//
// Even in verbose mode, sensitive values are masked to prevent accidental
// exposure of secrets in logs that are typically captured by cron and may be
// shared or stored.
//
// # Usage
//
//	// Create a secure logger
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Info("request sent",
//	    "x-auth", "1986ad8c0a5b3df4d7028d5f3c06e936",  // Will be masked
//	    "url", "https://scanner.example.com/api/v1/scans",
//	)
//
//	// Set as default logger
//	slog.SetDefault(logger)
//
// # Integration with retryablehttp
//
// A *slog.Logger satisfies retryablehttp's LeveledLogger interface, so the
// same secure logger can be handed to the HTTP client:
//
//	secureLogger := log.NewSecureLogger(os.Stderr, verbose)
//	// Use with components that accept *slog.Logger
package log
