// Package logging provides structured logging using uber/zap.
//
// Two output modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components receive a *zap.Logger named after themselves (Component), so
// engine, provider and stream entries can be told apart in one stream.
//
// Example Usage:
//
//	logger, err := logging.New(logging.Config{Level: cfg.Logging.Level})
//	engineLog := logger.Component("spawn")
//	engineLog.Info("Process launched", zap.Int("pid", pid))
package logging
