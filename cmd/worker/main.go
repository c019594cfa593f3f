package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aguilartradesfx/financetracker/internal/config"
	"github.com/aguilartradesfx/financetracker/internal/finance"
	"github.com/aguilartradesfx/financetracker/internal/logger"
	"github.com/aguilartradesfx/financetracker/internal/reports"
)

func main() {
	var cfg config.Config
	interval := flag.Duration("interval", time.Hour, "Time between self-heal passes")
	archive := flag.Bool("archive", false, "Upload each pass report to the configured GCS bucket")
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	log := logger.New()

	log.Info().Dur("interval", *interval).Msg("Starting self-heal worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := cfg.OpenStore(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger store")
	}
	if store == nil {
		log.Fatal().Msg("No backend configured: set -db, -project, or FINANCE_PROJECT_ID")
	}
	defer store.Close()

	svc := finance.New(store, log)

	runPass := func() {
		passCtx, passCancel := context.WithTimeout(ctx, 5*time.Minute)
		defer passCancel()

		report, err := svc.RepairSync(passCtx)
		if err != nil {
			log.Error().Err(err).Msg("Self-heal pass failed")
			return
		}

		log.Info().
			Int("created", report.Created).
			Int("clients", len(report.Lines)).
			Bool("errored", report.Errored()).
			Msg("Self-heal pass finished")

		if *archive && cfg.Bucket != "" && report.Created > 0 {
			uri, err := reports.Archive(passCtx, cfg.Bucket, report)
			if err != nil {
				log.Error().Err(err).Msg("Report archive failed")
				return
			}
			log.Info().Str("uri", uri).Msg("Report archived")
		}
	}

	// One pass up front, then on the interval.
	runPass()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			runPass()
		case <-quit:
			log.Info().Msg("Shutting down self-heal worker...")
			cancel()
			log.Info().Msg("Worker exited")
			return
		}
	}
}
