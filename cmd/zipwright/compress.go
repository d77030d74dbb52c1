package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/zipwright/zipwright"
	"github.com/zipwright/zipwright/zipsink"
)

var (
	flagOutput     string
	flagPolicyFile string
	flagPreset     string
	flagWorkers    int
)

var compressCmd = &cobra.Command{
	Use:   "compress [paths...]",
	Short: "Compress files and directories into an archive",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCompress,
}

func init() {
	compressCmd.Flags().StringVarP(&flagOutput, "output", "o", "archive.zip", "output archive path")
	compressCmd.Flags().StringVar(&flagPolicyFile, "policy", "", "YAML file overriding the decision policy")
	compressCmd.Flags().StringVar(&flagPreset, "preset", "default", "decision preset: default, fast, archival")
	compressCmd.Flags().IntVarP(&flagWorkers, "workers", "w", 0, "concurrent workers (0 = number of CPUs)")
	compressCmd.MarkFlagsMutuallyExclusive("policy", "preset")
	rootCmd.AddCommand(compressCmd)
}

func resolvePolicy(fsys afero.Fs) (*zipwright.Policy, error) {
	if flagPolicyFile != "" {
		return zipwright.LoadPolicy(fsys, flagPolicyFile)
	}
	switch flagPreset {
	case "default":
		return zipwright.DefaultPolicy(), nil
	case "fast":
		return zipwright.FastPolicy(), nil
	case "archival":
		return zipwright.ArchivalPolicy(), nil
	default:
		return nil, fmt.Errorf("unknown preset %q", flagPreset)
	}
}

func runCompress(cmd *cobra.Command, args []string) error {
	log := newLogger()
	fsys := afero.NewOsFs()

	policy, err := resolvePolicy(fsys)
	if err != nil {
		return err
	}

	tasks, err := zipwright.Walk(fsys, args...)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return errors.New("no input files")
	}

	config := &zipwright.Config{
		Policy:  policy,
		Workers: flagWorkers,
		Logger:  log,
	}
	if !flagVerbose {
		tracker := newConsoleProgress()
		defer tracker.Stop()
		config.Progress = tracker
	}

	engine, err := zipwright.New(config)
	if err != nil {
		return err
	}

	out, err := fsys.Create(flagOutput)
	if err != nil {
		return err
	}
	sink := zipsink.NewWriter(out)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	start := time.Now()
	var sinkErr error
	for res := range engine.Run(ctx, tasks) {
		if res.Err != nil {
			log.Error().Err(res.Err).Str("file", res.Name).Msg("skipped")
			continue
		}
		if sinkErr != nil {
			res.Entry.Close()
			continue
		}
		if err := sink.Add(res.Entry); err != nil {
			sinkErr = err
			cancel()
		}
	}
	if sinkErr != nil {
		sink.Close()
		out.Close()
		return sinkErr
	}
	if err := sink.Close(); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	stats := engine.Stats()
	log.Info().
		Int64("files", stats.FilesSucceeded).
		Int64("stored", stats.Stored()).
		Int64("failed", stats.FilesFailed).
		Str("in", zipwright.FormatSize(stats.OriginalBytes)).
		Str("out", zipwright.FormatSize(stats.CompressedBytes)).
		Str("saved", fmt.Sprintf("%.1f%%", zipwright.SavingsPercent(stats.OriginalBytes, stats.CompressedBytes))).
		Dur("elapsed", time.Since(start).Round(time.Millisecond)).
		Msg("archive written")
	return nil
}
