package main

import (
	"fmt"
	"os"

	"github.com/himanishpuri/NeuroPLI/internal/config"
	"github.com/himanishpuri/NeuroPLI/pkg/logger"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/capture"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/device"
	"github.com/spf13/cobra"
)

// Global flags
var (
	configPath string
	dbPath     string
	logLevel   string
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "neuropli",
	Short: "EEG capture and phase-lag connectivity scoring",
	Long: `neuropli records an 8-channel EEG headset into a CSV recording log and
turns a finished recording into a phase-lag-index feature row and a
severity score.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		if cmd.Flags().Changed("db") {
			cfg.DB.Path = dbPath
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}
		if lvl, err := logger.ParseLevel(cfg.Log.Level); err == nil {
			logger.SetLevel(lvl)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $NEUROPLI_CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the SQLite session catalogue")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// createService creates a NeuroPLI service from the loaded config. src may be nil
// for commands that never touch the device.
func createService(src capture.ByteSource, deviceName string) (neuropli.Service, error) {
	opts := []neuropli.Option{
		neuropli.WithDBPath(cfg.DB.Path),
		neuropli.WithLogger(logger.GetLogger().Named("neuropli")),
		neuropli.WithArtifacts(cfg.Artifacts),
		neuropli.WithPollInterval(cfg.Device.PollInterval),
	}
	if src != nil {
		opts = append(opts, neuropli.WithByteSource(src, deviceName))
	}
	return neuropli.NewService(opts...)
}

type closableSource interface {
	capture.ByteSource
	Close() error
}

// openSource opens the configured serial port, or the simulator.
func openSource(port string) (closableSource, string, error) {
	if port == "" {
		port = cfg.Device.Port
	}
	if port == "" || port == config.SimulatorPort {
		return device.NewSimulator(device.WithJunk(0.01)), "simulator", nil
	}
	s, err := device.OpenSerial(port, cfg.Device.Serial())
	if err != nil {
		return nil, "", fmt.Errorf("failed to open device: %w", err)
	}
	return s, s.Name(), nil
}
