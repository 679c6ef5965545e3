package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	meteodisplay "meteo-stack/agents/meteo-display"
	"meteo-stack/shared/config"
	"meteo-stack/shared/logger"
	"meteo-stack/shared/monitoring"
	"meteo-stack/shared/publisher"
	"meteo-stack/shared/scheduler"
	"meteo-stack/shared/storage"
)

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog := logger.New(cfg.App.LogLevel, cfg.App.Env)
	if *debug {
		if err := logger.SetLevel(appLog, "debug"); err != nil {
			appLog.Warnf("Failed to enable debug logging: %v", err)
		}
	}

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetrics(registry)
	monitor := monitoring.NewMonitor(metrics, logger.Component(appLog, "monitor"))

	pub, err := publisher.New(&cfg.Publisher, appLog)
	if err != nil {
		appLog.Fatalf("Failed to create %s publisher: %v", cfg.Publisher.Kind, err)
	}
	defer func() {
		if err := pub.Close(); err != nil {
			appLog.Warnf("Failed to close publisher: %v", err)
		}
	}()

	store, err := storage.NewSnapshotStore(cfg.App.DataDir, 24*time.Hour, logger.Component(appLog, "storage"))
	if err != nil {
		appLog.Fatalf("Failed to open snapshot store: %v", err)
	}

	agent := meteodisplay.NewMeteoDisplayAgent(cfg, pub, store, metrics, logger.Component(appLog, "meteo-display"))
	s := scheduler.New(cfg, agent, monitor, logger.Component(appLog, "scheduler"))

	if *once {
		appLog.Info("Running once...")
		if err := agent.Initialize(); err != nil {
			appLog.Fatalf("Failed to initialize agent: %v", err)
		}

		if err := s.RunOnce(ctx); err != nil {
			appLog.Fatalf("Failed to run: %v", err)
		}
		return
	}

	health := monitoring.NewHealthServer(monitor, strconv.Itoa(cfg.Monitoring.HealthPort), registry, store, logger.Component(appLog, "health"))
	s.WithHealthServer(health)

	appLog.Info("Starting scheduler...")

	if err := s.Start(ctx); err != nil && ctx.Err() == nil {
		appLog.Fatalf("Scheduler failed: %v", err)
	}
}
