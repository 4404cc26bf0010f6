// Package cli implements the save-edit CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"satisfactory-save-edit/config"
)

var verbose bool

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "satisfactory-save-edit",
	Short: "Decode, inspect and re-encode Satisfactory save files",
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func logger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose || config.DEBUG {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
