// Package cli is responsible for parsing top-level command-line arguments,
// validating user input, and handling process-level concerns like exit
// codes. It translates CLI flags into the launcher's configuration and
// leaves every token after the backend name untouched.
package cli
