package main

import (
	"fmt"
	"os"

	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/features"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/predict"
	"github.com/spf13/cobra"
)

var predictCmd = &cobra.Command{
	Use:   "predict <row.csv>",
	Short: "Score a feature row written by the features command",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := predict.Load(cfg.Artifacts)
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		row, err := features.ReadRow(f)
		if err != nil {
			return err
		}
		score, err := p.Predict(row)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Score: %.4f\n", score)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)
}
