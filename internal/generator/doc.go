// Package generator implements the launch-artifact formats a built pipeline
// can be turned into.
//
// Three formats are provided:
//
//   - fastmcp: an mcpServers entry that launches mcpstack on the host
//   - docker: an mcpServers entry that launches the pipeline in a container
//   - universal: the raw pipeline document with its launch environment
//
// The host formats can be written to a file (SavePath) or merged into an
// existing host configuration such as the desktop client's
// claude_desktop_config.json (Merge). Merging preserves every other server
// entry and top-level key of the target file.
//
// Register adds all formats to a set of registries before they are sealed.
package generator
