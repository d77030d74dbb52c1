package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/zipwright/zipwright"
	"github.com/zipwright/zipwright/zipsink"
)

var flagDest string

var extractCmd = &cobra.Command{
	Use:   "extract <archive>",
	Short: "Extract an archive, verifying checksums",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&flagDest, "dest", "d", ".", "destination directory")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := newLogger()
	fsys := afero.NewOsFs()

	f, err := fsys.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	reader, err := zipsink.NewReader(f, info.Size())
	if err != nil {
		return err
	}

	var failed int
	for _, entry := range reader.Entries() {
		if !filepath.IsLocal(filepath.FromSlash(entry.Name)) {
			log.Warn().Str("file", entry.Name).Msg("skipping non-local name")
			failed++
			continue
		}
		data, err := reader.Extract(entry.Name)
		if err != nil {
			log.Error().Err(err).Str("file", entry.Name).Msg("extract failed")
			failed++
			continue
		}
		dest := filepath.Join(flagDest, filepath.FromSlash(entry.Name))
		if err := fsys.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := afero.WriteFile(fsys, dest, data, 0o644); err != nil {
			return err
		}
		log.Debug().
			Str("file", entry.Name).
			Str("method", entry.Method.String()).
			Str("size", zipwright.FormatSize(int64(len(data)))).
			Msg("extracted")
	}

	if failed > 0 {
		return fmt.Errorf("%d entries failed to extract", failed)
	}
	log.Info().Int("files", len(reader.Entries())).Str("dest", flagDest).Msg("archive extracted")
	return nil
}
