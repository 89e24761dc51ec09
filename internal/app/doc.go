// Package app contains the core launcher logic. It defines the App struct,
// its configuration, the logging profiles, and the dispatch lifecycle that
// resolves a backend name and runs it, decoupled from the CLI entrypoint.
package app
