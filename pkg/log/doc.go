/*
Package log provides structured logging for Burrow using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers, configurable log levels, and helper
functions for common logging patterns. All logs include timestamps and
support filtering by severity level.

# Usage

Initialize the global logger once at startup:

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
	})

Create child loggers scoped to a component or a scaling group:

	logger := log.WithComponent("controller")
	logger.Info().Str("group_id", group).Int("steps", n).Msg("converged")

	glog := log.WithGroupID("9f3c...")
	glog.Warn().Err(err).Msg("gather failed, will retry next cycle")

Console output (human-readable, colorized) is used when JSONOutput is false,
which is the default for the CLI's one-shot commands.
*/
package log
