package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/device"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List catalogued recording sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := createService(nil, "")
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}
		defer svc.Close()

		sessions, err := svc.ListSessions()
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("📭 No sessions in the catalogue")
			return nil
		}

		fmt.Printf("📚 %d session(s):\n\n", len(sessions))
		for _, s := range sessions {
			fmt.Printf("   %s  %-12s %-10s %s  (%s)\n", s.ID, s.Subject, s.Device, s.Path, humanize.Time(s.CreatedAt))
		}
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session's segments and analyses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := createService(nil, "")
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}
		defer svc.Close()

		s, err := svc.GetSession(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Session %s\n   Subject: %s\n   Device:  %s\n   Log:     %s\n   Created: %s\n\n",
			s.ID, s.Subject, s.Device, s.Path, humanize.Time(s.CreatedAt))

		segs, err := svc.ListSegments(s.ID)
		if err != nil {
			return err
		}
		printSegments(segs)

		analyses, err := svc.ListAnalyses(s.ID)
		if err != nil {
			return err
		}
		for _, a := range analyses {
			line := fmt.Sprintf("   analysis %s  %-9s", a.ID, a.Status)
			if a.Score != nil {
				line += fmt.Sprintf("  score %.4f", *a.Score)
			}
			if a.ErrorKind != "" {
				line += "  " + a.ErrorKind
			}
			fmt.Println(line)
		}
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "rm <session-id>",
	Short: "Remove a session from the catalogue (the log file is kept)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := createService(nil, "")
		if err != nil {
			return fmt.Errorf("failed to create service: %w", err)
		}
		defer svc.Close()

		if err := svc.DeleteSession(args[0]); err != nil {
			return err
		}
		fmt.Printf("✅ Deleted session %s\n", args[0])
		return nil
	},
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := device.ListPorts()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			fmt.Println("No serial ports found (use --port sim for the simulator)")
			return nil
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return nil
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsShowCmd, sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd, portsCmd)
}
