package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/zipwright/zipwright"
	"github.com/zipwright/zipwright/zipsink"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <archive>",
	Short: "List archive entries with their methods and sizes",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
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

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMETHOD\tTRANSFORMS\tORIGINAL\tSTORED\tRATIO")
	var original, stored int64
	for _, entry := range reader.Entries() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f\n",
			entry.Name,
			entry.Method,
			entry.Transforms,
			zipwright.FormatSize(entry.OriginalSize),
			zipwright.FormatSize(entry.CompressedSize),
			zipwright.CompressionRatio(entry.OriginalSize, entry.CompressedSize),
		)
		original += entry.OriginalSize
		stored += entry.CompressedSize
	}
	fmt.Fprintf(w, "TOTAL\t\t\t%s\t%s\t%.2f\n",
		zipwright.FormatSize(original),
		zipwright.FormatSize(stored),
		zipwright.CompressionRatio(original, stored),
	)
	return w.Flush()
}
