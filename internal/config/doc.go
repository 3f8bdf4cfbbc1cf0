// Package config holds the two configuration layers of mcpstack.
//
// StackConfig is the per-pipeline configuration: a log level and a map of
// environment-variable overrides that take precedence over the process
// environment. It is persisted inside pipeline documents and consulted when
// tools declare required variables.
//
// Settings is the user-level YAML file (~/.config/mcpstack/config.yaml)
// holding CLI defaults such as the output format, the serving transport and
// docker launch flags. A missing file yields DefaultSettings.
//
// The package also provides Storage, a small locked file store used by
// tools that keep state on disk, and WriteFileAtomic/WithFileLock, which
// every writer of user-visible files goes through.
package config
