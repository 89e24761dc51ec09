package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/fetchgo/internal/app"
	"github.com/vk/fetchgo/internal/version"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly (help or version
// was requested), or an ExitError.
//
// Flag parsing stops at the first positional token: that token is the
// backend name and everything after it is forwarded to the backend verbatim,
// in its original order.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet(version.Program, flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprintf(output, `
%s - fetch data from external sources through pluggable backends.

Usage:
  %s [options] BACKEND [backend options]

Arguments:
  BACKEND
    Name of the backend to run. Every token after the backend name is
    passed to the backend unchanged.

Options:
`, version.Program, version.Program)
		flagSet.PrintDefaults()
	}

	debugFlag := flagSet.Bool("debug", false, "Enable the debug logging profile.")
	gFlag := flagSet.Bool("g", false, "Enable the debug logging profile (shorthand).")
	versionFlag := flagSet.Bool("version", false, "Print the program version and exit.")
	vFlag := flagSet.Bool("v", false, "Print the program version and exit (shorthand).")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	profilesFlag := flagSet.String("profiles", "", "Path to an HCL profiles file or directory with backend settings.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if *versionFlag || *vFlag {
		fmt.Fprintln(output, version.String())
		return nil, true, nil
	}

	if flagSet.NArg() == 0 {
		slog.Debug("No backend supplied, printing usage.")
		flagSet.Usage()
		return nil, false, &ExitError{Code: 1, Message: "usage error: no backend specified"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	rest := flagSet.Args()
	config, err := app.NewConfig(app.Config{
		BackendName:  rest[0],
		BackendArgs:  rest[1:],
		Debug:        *debugFlag || *gFlag,
		LogFormat:    logFormat,
		ProfilesPath: *profilesFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "backend", config.BackendName, "forwarded_args", len(config.BackendArgs))
	return config, false, nil
}
