package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/aguilartradesfx/financetracker/internal/categorize"
	"github.com/aguilartradesfx/financetracker/internal/config"
	"github.com/aguilartradesfx/financetracker/internal/domain"
	"github.com/aguilartradesfx/financetracker/internal/finance"
	"github.com/aguilartradesfx/financetracker/internal/ledger"
	"github.com/aguilartradesfx/financetracker/internal/logger"
	"github.com/aguilartradesfx/financetracker/internal/reconcile"
	"github.com/aguilartradesfx/financetracker/internal/reports"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "repair":
		runRepair(log)
	case "inspect":
		runInspect(log)
	case "categorize":
		runCategorize(log)
	case "archive":
		runArchive(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Tracker CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  repair      Backfill missing client income transactions")
	fmt.Println("  inspect     Show per-client charged totals vs linked income")
	fmt.Println("  categorize  Suggest categories for uncategorized transactions")
	fmt.Println("  archive     Run a repair pass and upload the report to GCS")
	fmt.Println("  help        Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// openStore opens the configured backend. Unlike the API, the CLI cannot do
// anything useful local-only, so an unconfigured backend is fatal.
func openStore(ctx context.Context, log zerolog.Logger, cfg *config.Config) ledger.Store {
	store, err := cfg.OpenStore(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger store")
	}
	if store == nil {
		log.Fatal().Msg("No backend configured: set -db, -project, or FINANCE_PROJECT_ID")
	}
	return store
}

func runRepair(log zerolog.Logger) {
	fs := flag.NewFlagSet("repair", flag.ExitOnError)
	var cfg config.Config
	cfg.RegisterFlags(fs)
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store := openStore(ctx, log, &cfg)
	defer store.Close()

	svc := finance.New(store, log)
	report, err := svc.RepairSync(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Repair pass failed")
	}

	for _, line := range report.Render() {
		fmt.Println(line)
	}
	if report.Errored() {
		os.Exit(1)
	}
}

func runInspect(log zerolog.Logger) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	var cfg config.Config
	cfg.RegisterFlags(fs)
	clientID := fs.String("client-id", "", "Limit output to one client")
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store := openStore(ctx, log, &cfg)
	defer store.Close()

	clients, err := store.ListClients(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list clients")
	}
	transactions, err := store.ListTransactions(ctx, ledger.TransactionFilter{Type: domain.TypeIncome})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list transactions")
	}

	fmt.Printf("\n=== Clients (%d) ===\n", len(clients))
	for _, c := range clients {
		if *clientID != "" && c.ID != *clientID {
			continue
		}
		existing := domain.SumIncomeFor(transactions, c.ID)
		missing := c.TotalCharged - existing

		fmt.Printf("\n%s (%s)\n", c.Name, c.ID)
		if c.Company != "" {
			fmt.Printf("   Company:  %s\n", c.Company)
		}
		fmt.Printf("   Charged:  $%.2f\n", c.TotalCharged)
		fmt.Printf("   Linked:   $%.2f\n", existing)
		if missing > reconcile.Epsilon {
			fmt.Printf("   Missing:  $%.2f  <- needs repair\n", missing)
		} else {
			fmt.Printf("   In sync\n")
		}
	}
	fmt.Println()
}

func runCategorize(log zerolog.Logger) {
	fs := flag.NewFlagSet("categorize", flag.ExitOnError)
	var cfg config.Config
	cfg.RegisterFlags(fs)
	apply := fs.Bool("apply", false, "Write suggested categories back to the store")
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store := openStore(ctx, log, &cfg)
	defer store.Close()

	transactions, err := store.ListTransactions(ctx, ledger.TransactionFilter{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list transactions")
	}

	suggestions, err := categorize.Suggest(ctx, transactions)
	if err != nil {
		log.Fatal().Err(err).Msg("Category suggestion failed")
	}
	if len(suggestions) == 0 {
		fmt.Println("Nothing to categorize.")
		return
	}

	byID := make(map[string]*domain.Transaction, len(transactions))
	for _, t := range transactions {
		byID[t.ID] = t
	}

	for _, s := range suggestions {
		t, ok := byID[s.TransactionID]
		if !ok {
			continue
		}
		fmt.Printf("%s  %-40q -> %s\n", t.ID, t.Description, s.Category)
		if *apply {
			t.Category = s.Category
			if err := store.UpdateTransaction(ctx, t); err != nil {
				log.Error().Err(err).Str("transaction_id", t.ID).Msg("Failed to apply category")
			}
		}
	}
	if !*apply {
		fmt.Println("\nDry run. Re-run with -apply to write categories.")
	}
}

func runArchive(log zerolog.Logger) {
	fs := flag.NewFlagSet("archive", flag.ExitOnError)
	var cfg config.Config
	cfg.RegisterFlags(fs)
	fs.Parse(os.Args[2:])

	if cfg.Bucket == "" {
		log.Fatal().Msg("Error: -bucket or GCS_BUCKET is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	store := openStore(ctx, log, &cfg)
	defer store.Close()

	svc := finance.New(store, log)
	report, err := svc.RepairSync(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Repair pass failed")
	}

	uri, err := reports.Archive(ctx, cfg.Bucket, report)
	if err != nil {
		log.Fatal().Err(err).Msg("Archive upload failed")
	}

	for _, line := range report.Render() {
		fmt.Println(line)
	}
	fmt.Printf("\nArchived report to %s\n", uri)
}
