// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// Loggers are slog loggers tagged with module=<name>. Records go to stderr,
// which keeps stdout free for command output, and also to the systemd
// journal when journald is reachable.
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info", // Global log level: debug, info, warn, error
//		Format: "text", // Output format: text or json
//		Modules: map[string]string{
//			"engine": "debug", // Per-module overrides
//			"ffmpeg": "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("supervisor").With("run_id", id)
//	logger.Info("Pipeline state changed", "from", from, "to", to)
//
// Modules used by encodenode: main, resolver, supervisor, engine, ffmpeg
// (encoder child output), metrics, systemd.
//
// # Viewing Logs
//
//	journalctl -t encodenode
//	journalctl -t encodenode MODULE=supervisor
//	journalctl -t encodenode RUN_ID=<id>
//
// # Configuration
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	ffmpeg = "warn"
package logging
