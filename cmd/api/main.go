package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aguilartradesfx/financetracker/internal/api/handlers"
	"github.com/aguilartradesfx/financetracker/internal/api/middleware"
	"github.com/aguilartradesfx/financetracker/internal/config"
	"github.com/aguilartradesfx/financetracker/internal/finance"
	"github.com/aguilartradesfx/financetracker/internal/jobs"
	"github.com/aguilartradesfx/financetracker/internal/jobs/inmemory"
	"github.com/aguilartradesfx/financetracker/internal/logger"
)

func main() {
	var cfg config.Config
	port := flag.String("port", "8080", "HTTP server port")
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()

	log := logger.New()
	ctx := context.Background()

	store, err := cfg.OpenStore(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger store")
	}
	if store != nil {
		defer store.Close()
	}

	svc := finance.New(store, log)
	if err := svc.Initialize(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize finance service")
	}

	// Job infrastructure for async repair passes.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
		reconcileJob, ok := job.(*jobs.ReconcileJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", reconcileJob.JobID).
			Str("scope", string(reconcileJob.Scope)).
			Msg("Processing repair job")

		report, err := svc.RepairSync(ctx)
		if err != nil {
			log.Error().Err(err).Str("job_id", reconcileJob.JobID).Msg("Repair pass failed")
			return err
		}

		reconcileJob.Report = report
		log.Info().
			Str("job_id", reconcileJob.JobID).
			Int("created", report.Created).
			Msg("Repair pass completed")
		return nil
	}

	go func() {
		log.Info().Msg("Starting repair worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Repair worker stopped with error")
		}
	}()

	clientsHandler := handlers.NewClientsHandler(svc, log)
	transactionsHandler := handlers.NewTransactionsHandler(svc, log)
	paymentMethodsHandler := handlers.NewPaymentMethodsHandler(svc, log)
	statsHandler := handlers.NewStatsHandler(svc, log)
	repairHandler := handlers.NewRepairHandler(jobQueue, jobStore, log)

	mux := http.NewServeMux()

	// Clients endpoints
	mux.HandleFunc("/api/clients", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			clientsHandler.ListClients(w, r)
		case http.MethodPost:
			clientsHandler.CreateClient(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/clients/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/clients/")
		if id == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Client ID is required")
			return
		}
		switch r.Method {
		case http.MethodPut:
			clientsHandler.UpdateClient(w, r, id)
		case http.MethodDelete:
			clientsHandler.DeleteClient(w, r, id)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Transactions endpoints
	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			transactionsHandler.ListTransactions(w, r)
		case http.MethodPost:
			transactionsHandler.CreateTransaction(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
		if id == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Transaction ID is required")
			return
		}
		switch r.Method {
		case http.MethodPut:
			transactionsHandler.UpdateTransaction(w, r, id)
		case http.MethodDelete:
			transactionsHandler.DeleteTransaction(w, r, id)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Payment method endpoints
	mux.HandleFunc("/api/payment-methods", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			paymentMethodsHandler.ListPaymentMethods(w, r)
		case http.MethodPost:
			paymentMethodsHandler.CreatePaymentMethod(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/payment-methods/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/payment-methods/")
		if id == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Payment method ID is required")
			return
		}
		switch r.Method {
		case http.MethodPut:
			paymentMethodsHandler.UpdatePaymentMethod(w, r, id)
		case http.MethodDelete:
			paymentMethodsHandler.DeletePaymentMethod(w, r, id)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Stats endpoint
	mux.HandleFunc("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			statsHandler.GetStats(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Repair endpoints
	mux.HandleFunc("/api/repair", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			if svc.LocalOnly() {
				middleware.WriteError(w, http.StatusServiceUnavailable, "No ledger store configured")
				return
			}
			repairHandler.EnqueueRepair(w, r)
		case http.MethodGet:
			repairHandler.ListRepairJobs(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/repair/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/repair/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		repairHandler.GetRepairJob(w, r, jobID)
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Bool("local_only", svc.LocalOnly()).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
