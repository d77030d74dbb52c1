package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var flagVerbose bool

var rootCmd = &cobra.Command{
	Use:   "zipwright",
	Short: "Smart per-file compression into zip archives",
	Long: `zipwright analyzes every input file, picks the compression method that
suits its content, and packs the results into a zip archive carrying
per-entry method metadata. Low-entropy text is preprocessed reversibly
before compression; files that do not shrink are stored as-is.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
