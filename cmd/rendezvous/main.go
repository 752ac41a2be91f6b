package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aradilov/rendezvous"
	"github.com/aradilov/rendezvous/internal/config"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to YAML configuration file")
	producers := flag.Int("producers", -1, "Number of producers (overrides config)")
	items := flag.Int("items", -1, "Payloads per producer (overrides config)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	jsonLogs := flag.Bool("json", false, "Log as JSON")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "config", *configPath, "error", err)
		os.Exit(1)
	}
	if *producers >= 0 {
		cfg.Producers = *producers
	}
	if *items >= 0 {
		cfg.ItemsPerProducer = *items
	}
	if *debug {
		cfg.Log.Level = "debug"
	}
	if *jsonLogs {
		cfg.Log.Format = "json"
	}

	logger, err := newLogger(os.Stdout, cfg.Log)
	if err != nil {
		slog.Error("invalid log settings", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	// SIGINT/SIGTERM end the consumer's wait
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &rendezvous.Coordinator{
		Producers: cfg.Producers,
		Items:     cfg.ItemsPerProducer,
		Consumer: rendezvous.Consumer{
			PollTimeout:   cfg.PollTimeout,
			Backoff:       cfg.Backoff,
			BackoffJitter: cfg.BackoffJitter,
		},
		Queue:    newQueue(cfg.Queue),
		Sink:     rendezvous.NewLogSink(logger),
		Deadline: cfg.Deadline,
	}

	report, err := c.Run(ctx)
	if err != nil {
		slog.Error("run failed",
			"run_id", report.RunID,
			"failed_producers", report.FailedProducers,
			"end_markers", report.Consumer.EndMarkers,
			"error", err,
		)
		os.Exit(1)
	}

	slog.Info("run summary",
		"run_id", report.RunID,
		"producers", report.Producers,
		"payloads", report.Consumer.Payloads,
		"end_markers", report.Consumer.EndMarkers,
		"empty_polls", report.Consumer.EmptyPolls,
		"pushed", report.Queue.Pushed,
		"popped", report.Queue.Popped,
		"elapsed", report.Elapsed,
	)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		return &cfg, nil
	}
	return config.Load(path)
}

func newLogger(w io.Writer, lc config.LogConfig) (*slog.Logger, error) {
	level, err := config.ParseLevel(lc.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func newQueue(qc config.QueueConfig) *rendezvous.Queue {
	if qc.Kind == config.QueueRing {
		return rendezvous.NewBoundedQueue(qc.Capacity)
	}
	return rendezvous.NewQueue()
}
