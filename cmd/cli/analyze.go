package main

import (
	"context"
	"fmt"
	"os"

	"github.com/himanishpuri/NeuroPLI/pkg/neuropli"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/features"
	"github.com/spf13/cobra"
)

var (
	analyzeSession string
	featuresOut    string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [log.csv]",
	Short: "Score a finished recording",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := neuropli.AnalysisRequest{SessionID: analyzeSession}
		if len(args) == 1 {
			req.Path = args[0]
		}
		if req.Path == "" && req.SessionID == "" {
			return fmt.Errorf("a recording path or --session is required")
		}
		req.Progress = func(p int, stage string) {
			fmt.Printf("   [%3d%%] %s\n", p, stage)
		}

		svc, err := createService(nil, "")
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}
		defer svc.Close()

		fmt.Println("🔍 Analyzing recording...")
		a, err := svc.Analyze(context.Background(), req)
		if err != nil {
			if a != nil && a.ErrorKind != "" {
				fmt.Printf("\n❌ Analysis %s failed (%s)\n", a.ID, a.ErrorKind)
			}
			return err
		}
		fmt.Printf("\n✅ Score: %.4f\n", *a.Score)
		fmt.Printf("   Analysis ID: %s\n", a.ID)
		return nil
	},
}

var featuresCmd = &cobra.Command{
	Use:   "features <log.csv>",
	Short: "Write the connectivity feature row of a recording",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := createService(nil, "")
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}
		defer svc.Close()

		row, err := svc.ExtractFeatures(context.Background(), args[0])
		if err != nil {
			return err
		}

		out := os.Stdout
		if featuresOut != "" && featuresOut != "-" {
			f, err := os.Create(featuresOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		if err := features.WriteRow(out, row); err != nil {
			return err
		}
		if out != os.Stdout {
			fmt.Printf("✅ Wrote %d features to %s\n", len(row), featuresOut)
		}
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeSession, "session", "", "Catalogue session to analyse")
	featuresCmd.Flags().StringVarP(&featuresOut, "out", "o", "", "Output CSV (default stdout)")
	rootCmd.AddCommand(analyzeCmd, featuresCmd)
}
