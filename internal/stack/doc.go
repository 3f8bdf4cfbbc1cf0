// Package stack implements the pipeline builder at the heart of mcpstack.
//
// A Pipeline is an immutable, append-only composition of tools plus a
// shared StackConfig. Every With* call returns a fresh Unbuilt pipeline with
// a newly allocated tool slice; the receiver is never changed. A pipeline
// then moves through three states:
//
//	Unbuilt --Build--> Built --Run--> TornDown
//
// Build validates the composition exactly once, initializes every tool in
// insertion order, registers their actions with the serving runtime and
// finally hands the pipeline to the generator registered for the requested
// format. Run serves until the runtime returns and always tears every tool
// down afterwards, logging teardown failures instead of returning them.
//
// Save persists a built pipeline as a JSON (or YAML) document and Load
// restores it. Loaded pipelines are trusted: they run each tool's post-load
// hook and come back Built without repeating environment validation.
//
// Tool types, presets and generators are looked up in Registries, which the
// caller populates at startup, seals, and passes in explicitly.
package stack
