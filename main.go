package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"trainpulse/internal/config"
	"trainpulse/internal/logging"
	"trainpulse/internal/metrics"
	"trainpulse/internal/server"
	"trainpulse/internal/service"
	"trainpulse/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if errors.Is(err, os.ErrNotExist) {
		log.Warnf("no config file at %s, using defaults", *configPath)
		cfg = config.Default()
	} else if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.LogsPath,
		LogToStdout:   cfg.LogToStdout,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.Environment == "production",
	})
	log.Warnf("---->> running in [%s] environment", cfg.Environment)
	log.Debugf("using port: %d", cfg.Port)
	log.Debugf("using input db: %s", cfg.DBPath)

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening input store: %w", err)
	}
	defer db.Close()

	promRegistry := prometheus.NewRegistry()
	manager := metrics.NewManager("trainpulse", "api", promRegistry)

	retrainInterval := time.Duration(cfg.RetrainIntervalDays) * 24 * time.Hour
	svc := service.New(db, manager, retrainInterval)

	// Warm up from previously stored inputs so read endpoints and
	// predictions work right after a restart.
	warmUp(svc)

	srv := server.New(svc, manager, promRegistry)

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(cfg.Port)
	}()

	select {
	case err := <-serveErr:
		return err
	case sig := <-chOsInterrupt:
		log.Warnf("received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func warmUp(svc *service.AnalysisService) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := svc.Analyze(ctx); err != nil {
		if errors.Is(err, store.ErrEmptyStore) {
			log.Infof("input store empty, waiting for first batch")
			return
		}
		log.Errorf("warm-up analysis failed: %s", err)
	}
}
