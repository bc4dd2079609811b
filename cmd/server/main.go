package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/himanishpuri/NeuroPLI/internal/config"
	"github.com/himanishpuri/NeuroPLI/pkg/logger"
	"github.com/himanishpuri/NeuroPLI/pkg/neuropli"
)

var (
	configPath     string
	port           int
	dbPath         string
	allowedOrigins string
	workers        int
)

func init() {
	flag.StringVar(&configPath, "config", "", "YAML config file (default $NEUROPLI_CONFIG_PATH)")
	flag.IntVar(&port, "port", 0, "HTTP server port (overrides config)")
	flag.StringVar(&dbPath, "db", "", "Path to SQLite database (overrides config)")
	flag.StringVar(&allowedOrigins, "origins", "", "Comma-separated list of allowed CORS origins (use * for all)")
	flag.IntVar(&workers, "workers", 2, "Concurrent analysis jobs")
}

func main() {
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if allowedOrigins != "" {
		origins := strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.Server.CORSOrigins = origins
	}
	if lvl, err := logger.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(lvl)
	}

	service, err := neuropli.NewService(
		neuropli.WithDBPath(cfg.DB.Path),
		neuropli.WithArtifacts(cfg.Artifacts),
		neuropli.WithLogger(logger.GetLogger().Named("neuropli")),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := NewServer(service, &ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		DBPath:         cfg.DB.Path,
		AllowedOrigins: cfg.Server.CORSOrigins,
		Workers:        workers,
	})
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
