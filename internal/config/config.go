package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/device"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/predict"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/storage"
	"gopkg.in/yaml.v3"
)

// Config is shared by the CLI and the HTTP server.
type Config struct {
	Server    ServerConfig      `yaml:"server"`
	DB        DBConfig          `yaml:"db"`
	Log       LogConfig         `yaml:"log"`
	Device    DeviceConfig      `yaml:"device"`
	Artifacts predict.Artifacts `yaml:"artifacts"`
}

type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// DeviceConfig selects the byte source. An empty Port, or "sim", uses the
// built-in simulator.
type DeviceConfig struct {
	Port         string        `yaml:"port"`
	BaudRate     int           `yaml:"baud_rate"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

const SimulatorPort = "sim"

// Default returns the built-in configuration.
func Default() Config {
	serial := device.DefaultSerialConfig()
	return Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			CORSOrigins: []string{"*"},
		},
		DB: DBConfig{
			Path: storage.DefaultDBFile,
		},
		Log: LogConfig{
			Level: "info",
		},
		Device: DeviceConfig{
			Port:         SimulatorPort,
			BaudRate:     serial.BaudRate,
			ReadTimeout:  serial.ReadTimeout,
			PollInterval: time.Millisecond,
		},
		Artifacts: predict.Artifacts{
			Ranking: "artifacts/ranking.csv",
			Scaler:  "artifacts/scaler.json",
			Model:   "artifacts/model.json",
		},
	}
}

// Load reads configuration from an optional YAML file and environment
// variables. path overrides NEUROPLI_CONFIG_PATH when non-empty.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("NEUROPLI_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("NEUROPLI_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("NEUROPLI_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid NEUROPLI_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("NEUROPLI_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("NEUROPLI_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if port := os.Getenv("NEUROPLI_DEVICE_PORT"); port != "" {
		cfg.Device.Port = port
	}
	if baud := os.Getenv("NEUROPLI_DEVICE_BAUD"); baud != "" {
		v, err := strconv.Atoi(baud)
		if err != nil {
			return Config{}, fmt.Errorf("invalid NEUROPLI_DEVICE_BAUD: %w", err)
		}
		cfg.Device.BaudRate = v
	}
	if dir := os.Getenv("NEUROPLI_ARTIFACT_DIR"); dir != "" {
		cfg.Artifacts = predict.Artifacts{
			Ranking: dir + "/ranking.csv",
			Scaler:  dir + "/scaler.json",
			Model:   dir + "/model.json",
		}
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// Simulated reports whether the configured device is the simulator.
func (c DeviceConfig) Simulated() bool {
	return c.Port == "" || c.Port == SimulatorPort
}

// Serial returns the serial link settings.
func (c DeviceConfig) Serial() device.SerialConfig {
	return device.SerialConfig{BaudRate: c.BaudRate, ReadTimeout: c.ReadTimeout}
}
