package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/recording"
	"github.com/himanishpuri/NeuroPLI/pkg/utils"
	"github.com/spf13/cobra"
)

var (
	exportFormat  string
	exportOut     string
	exportPatient string
)

var exportCmd = &cobra.Command{
	Use:   "export <log.csv>",
	Short: "Convert a recording log to EDF or WAV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := recording.Load(args[0])
		if err != nil {
			return err
		}

		format := strings.ToLower(exportFormat)
		out := exportOut
		if out == "" {
			out = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + "." + format
		}

		tmp := out + ".part"
		f, err := os.Create(tmp)
		if err != nil {
			return err
		}

		switch format {
		case "edf":
			err = recording.ExportEDF(rec, f, exportPatient)
		case "wav":
			err = recording.ExportWAV(rec, f)
		default:
			err = fmt.Errorf("unknown export format %q (want edf or wav)", exportFormat)
		}
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			utils.DeleteFile(tmp)
			return err
		}
		if err := utils.MoveFile(tmp, out); err != nil {
			return err
		}

		size, _ := utils.FileSize(out)
		fmt.Printf("✅ Exported %s samples (%s) to %s, %s\n",
			humanize.Comma(int64(rec.Len())), rec.Series.Duration(), out, humanize.Bytes(uint64(size)))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "edf", "Export format: edf or wav")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default alongside the log)")
	exportCmd.Flags().StringVar(&exportPatient, "patient", "X X X X", "EDF patient identification field")
	rootCmd.AddCommand(exportCmd)
}
