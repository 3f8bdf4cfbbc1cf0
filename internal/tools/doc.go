// Package tools contains the built-in tools that ship with mcpstack.
//
// HelloWorld contributes a single greeting action and is mostly useful for
// checking that a host can reach a pipeline. Scratchpad keeps named notes on
// disk in a directory it locks for the lifetime of a pipeline run.
//
// Every tool here is registered by Register under the identifier derived from
// its type name, e.g. hello_world and scratchpad.
package tools
