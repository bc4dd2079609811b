package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/himanishpuri/NeuroPLI/pkg/logger"
	"github.com/himanishpuri/NeuroPLI/pkg/models"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/protocol"
	"github.com/spf13/cobra"
)

var (
	recordSubject  string
	recordPort     string
	recordProtocol string
	recordLabel    string
	recordDuration time.Duration
)

var recordCmd = &cobra.Command{
	Use:   "record <log.csv>",
	Short: "Record EEG into a recording log",
	Long: `Record runs the acquisition protocol (a fixation baseline followed by
forty stimulus trials, or the steps in --protocol) and appends every sample
to the recording log. With --label a single segment is recorded instead.
Ctrl-C stops the device and keeps what was written.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.GetLogger()

		src, name, err := openSource(recordPort)
		if err != nil {
			return err
		}
		defer src.Close()

		fmt.Println("\n🔧 Initializing service...")
		svc, err := createService(src, name)
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}
		defer svc.Close()

		sess, err := svc.OpenSession(recordSubject, args[0])
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var segs []models.Segment
		if recordLabel != "" {
			fmt.Printf("🎙  Recording %q from %s\n", recordLabel, name)
			seg, err := svc.Collect(ctx, sess.ID, recordLabel, recordDuration)
			if seg != nil {
				segs = append(segs, *seg)
			}
			if err != nil {
				log.Errorf("Collection failed: %v", err)
				return err
			}
		} else {
			p := protocol.Default()
			if recordProtocol != "" {
				if p, err = protocol.Load(recordProtocol); err != nil {
					return err
				}
			}
			fmt.Printf("🎙  Running %d-step protocol (%s) from %s\n", len(p.Steps), p.Total(), name)
			segs, err = svc.RunProtocol(ctx, sess.ID, p)
			if err != nil && ctx.Err() == nil {
				log.Errorf("Protocol failed: %v", err)
				return err
			}
		}

		printSegments(segs)
		fmt.Printf("\n✅ Session %s written to %s\n", sess.ID, sess.Path)
		return nil
	},
}

func printSegments(segs []models.Segment) {
	var samples int64
	for _, s := range segs {
		samples += int64(s.Samples)
		fmt.Printf("   %-16s %8s samples  %9s  %s\n",
			s.Label, humanize.Comma(int64(s.Samples)), humanize.Bytes(uint64(s.BytesRead)), s.Reason)
	}
	fmt.Printf("   %d segment(s), %s samples\n", len(segs), humanize.Comma(samples))
}

func init() {
	recordCmd.Flags().StringVar(&recordSubject, "subject", "", "Subject identifier")
	recordCmd.Flags().StringVar(&recordPort, "port", "", "Serial port, or \"sim\" for the simulator (default from config)")
	recordCmd.Flags().StringVar(&recordProtocol, "protocol", "", "YAML protocol file")
	recordCmd.Flags().StringVar(&recordLabel, "label", "", "Record one segment with this label")
	recordCmd.Flags().DurationVar(&recordDuration, "duration", 0, "Segment duration with --label (0 = until Ctrl-C)")
	rootCmd.AddCommand(recordCmd)
}
