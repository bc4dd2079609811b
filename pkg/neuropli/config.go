package neuropli

import (
	"time"

	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/capture"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/predict"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/preprocess"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli/storage"
)

type Config struct {
	DBPath       string
	Logger       Logger
	Storage      Storage
	Source       capture.ByteSource
	DeviceName   string
	Artifacts    predict.Artifacts
	PollInterval time.Duration
	Preprocess   preprocess.Options
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

// WithByteSource attaches the headset link used by Collect. name is recorded
// on sessions opened afterwards.
func WithByteSource(src capture.ByteSource, name string) Option {
	return func(c *Config) {
		c.Source = src
		c.DeviceName = name
	}
}

func WithArtifacts(a predict.Artifacts) Option {
	return func(c *Config) {
		c.Artifacts = a
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(c *Config) {
		c.PollInterval = d
	}
}

func WithPreprocessOptions(opts preprocess.Options) Option {
	return func(c *Config) {
		c.Preprocess = opts
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:       storage.DefaultDBFile,
		PollInterval: capture.DefaultPollInterval,
		Preprocess:   preprocess.DefaultOptions(),
	}
}
