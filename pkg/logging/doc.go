// Package logging provides subsystem-tagged structured logging for mcpstack.
//
// It is a thin layer over log/slog. Every entry carries a subsystem
// attribute so output from the pipeline, the generators and the serving
// runtime can be told apart:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Pipeline", "built pipeline with %d tools", n)
//	logging.Error("Generator", err, "failed to write %s", path)
//
// The level can be changed after initialization with SetLevel, which is how a
// loaded pipeline's log_level takes effect when it is served. ParseLevel maps
// the textual names used in pipeline documents (DEBUG, INFO, WARN/WARNING,
// ERROR) onto LogLevel values.
//
// Logs should be written to stderr when serving over stdio, since stdout
// carries protocol traffic.
package logging
