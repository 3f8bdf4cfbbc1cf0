// Package app provides application bootstrap for mcpstack.
//
// NewApplication performs the startup sequence every command shares:
//
//  1. Configure logging on stderr (stdout belongs to the stdio transport)
//  2. Load user settings from config.yaml
//  3. Populate the tool, preset and format registries and seal them
//
// After bootstrap the registries are read-only, so pipelines created by
// different commands resolve names against the same closed set.
//
// The Application then hands out the pieces a command needs: a StackConfig
// seeded from the settings, a serving runtime factory for the configured
// transport, and new pipelines wired to both. Serve is the host entrypoint
// that loads a saved pipeline and runs it until interrupted.
package app
