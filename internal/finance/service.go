// Package finance orchestrates the ledger store, the reconciliation engine,
// and the in-memory state cache behind one service surface.
package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aguilartradesfx/financetracker/internal/domain"
	"github.com/aguilartradesfx/financetracker/internal/ledger"
	"github.com/aguilartradesfx/financetracker/internal/reconcile"
	"github.com/aguilartradesfx/financetracker/internal/state"
)

// Service is the application surface used by the API handlers, the CLI, and
// the worker. A nil store puts the service in local-only mode: data lives in
// the cache for the lifetime of the process and reconciliation is skipped
// entirely, matching behavior when no backend is configured.
type Service struct {
	store  ledger.Store
	engine *reconcile.Engine
	cache  *state.Cache
	log    zerolog.Logger

	backfillDelay time.Duration
}

func New(store ledger.Store, log zerolog.Logger) *Service {
	s := &Service{
		store:         store,
		cache:         state.NewCache(),
		log:           log,
		backfillDelay: 2 * time.Second,
	}
	if store != nil {
		s.engine = reconcile.New(store, log)
	}
	return s
}

// WithBackfillDelay sets the pause before the startup self-heal pass fires.
func (s *Service) WithBackfillDelay(d time.Duration) *Service {
	s.backfillDelay = d
	return s
}

// LocalOnly reports whether the service runs without a backing store.
func (s *Service) LocalOnly() bool {
	return s.store == nil
}

// Cache exposes the snapshot cache for read-only consumers.
func (s *Service) Cache() *state.Cache {
	return s.cache
}

// Initialize loads the cache from the store and, if any client's charged
// total is out of step with its linked income, schedules one background
// backfill pass. In local-only mode it just marks the cache ready.
func (s *Service) Initialize(ctx context.Context) error {
	if s.LocalOnly() {
		s.log.Warn().Msg("no store configured, running local-only without reconciliation")
		return nil
	}

	if err := s.cache.Refresh(ctx, s.store); err != nil {
		return fmt.Errorf("Initialize: loading state: %w", err)
	}

	transactions, clients, _ := s.cache.Snapshot()
	if reconcile.NeedsBackfill(clients, transactions) {
		s.log.Info().Msg("client totals out of step with ledger, scheduling backfill")
		go s.delayedBackfill()
	}
	return nil
}

// delayedBackfill runs the startup self-heal pass after a short pause so it
// never competes with the initial page of reads. Failures are logged and
// contained here.
func (s *Service) delayedBackfill() {
	time.Sleep(s.backfillDelay)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := s.RepairSync(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("startup backfill failed")
		return
	}
	s.log.Info().Int("created", report.Created).Msg("startup backfill finished")
}

// RepairSync fetches fresh clients and transactions from the store, runs a
// full backfill pass, and refreshes the cache. A fetch failure aborts the
// pass before anything is written.
func (s *Service) RepairSync(ctx context.Context) (*reconcile.Report, error) {
	if s.LocalOnly() {
		return nil, fmt.Errorf("RepairSync: %w", ledger.ErrUnavailable)
	}

	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("RepairSync: fetching clients: %w", err)
	}
	transactions, err := s.store.ListTransactions(ctx, ledger.TransactionFilter{Type: domain.TypeIncome})
	if err != nil {
		return nil, fmt.Errorf("RepairSync: fetching transactions: %w", err)
	}

	report := s.engine.BackfillAll(ctx, clients, transactions)
	s.refreshAfterWrite(ctx)
	return report, nil
}

// AddClient persists the client and immediately reconciles its charged total
// against the (empty) linked income. The returned line describes the
// reconcile outcome; a reconcile failure never undoes the created client.
func (s *Service) AddClient(ctx context.Context, c *domain.Client) (*domain.Client, reconcile.Line, error) {
	if s.LocalOnly() {
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		s.cache.UpsertClient(c)
		return c, reconcile.Line{ClientID: c.ID, ClientName: c.Name, Outcome: reconcile.OutcomeNoAction}, nil
	}

	if err := s.store.InsertClient(ctx, c); err != nil {
		return nil, reconcile.Line{}, fmt.Errorf("AddClient: %w", err)
	}
	s.cache.UpsertClient(c)

	line, err := s.engine.ReconcileOnCreate(ctx, c)
	if err != nil {
		s.log.Error().Err(err).Str("client_id", c.ID).Msg("reconcile after client create failed")
	}
	s.refreshAfterWrite(ctx)
	return c, line, nil
}

// UpdateClient reads the pre-edit snapshot, applies the partial update, and
// reconciles the delta between the two charged totals.
func (s *Service) UpdateClient(ctx context.Context, id string, update domain.ClientUpdate) (*domain.Client, reconcile.Line, error) {
	if s.LocalOnly() {
		prior := s.cache.Client(id)
		if prior == nil {
			return nil, reconcile.Line{}, fmt.Errorf("UpdateClient: %s: %w", id, ledger.ErrNotFound)
		}
		updated := update.Apply(*prior)
		s.cache.UpsertClient(&updated)
		return &updated, reconcile.Line{ClientID: id, ClientName: updated.Name, Outcome: reconcile.OutcomeNoAction}, nil
	}

	prior, err := s.store.GetClient(ctx, id)
	if err != nil {
		return nil, reconcile.Line{}, fmt.Errorf("UpdateClient: reading prior state: %w", err)
	}
	if err := s.store.UpdateClient(ctx, id, update); err != nil {
		return nil, reconcile.Line{}, fmt.Errorf("UpdateClient: %w", err)
	}

	updated := update.Apply(*prior)
	s.cache.UpsertClient(&updated)

	line, err := s.engine.ReconcileOnUpdate(ctx, *prior, updated)
	if err != nil {
		s.log.Error().Err(err).Str("client_id", id).Msg("reconcile after client update failed")
	}
	s.refreshAfterWrite(ctx)
	return &updated, line, nil
}

func (s *Service) DeleteClient(ctx context.Context, id string) error {
	if !s.LocalOnly() {
		if err := s.store.DeleteClient(ctx, id); err != nil {
			return fmt.Errorf("DeleteClient: %w", err)
		}
	}
	s.cache.RemoveClient(id)
	return nil
}

func (s *Service) Clients() []*domain.Client {
	return s.cache.Clients()
}

func (s *Service) Client(id string) *domain.Client {
	return s.cache.Client(id)
}

// AddTransaction persists a manually entered transaction. Reconciliation does
// not run here: user-entered income already reflects reality, and the next
// repair pass accounts for it through the recomputed sums.
func (s *Service) AddTransaction(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Date.IsZero() {
		t.Date = time.Now()
	}
	if !s.LocalOnly() {
		if err := s.store.InsertTransaction(ctx, t); err != nil {
			return nil, fmt.Errorf("AddTransaction: %w", err)
		}
	}
	s.cache.UpsertTransaction(t)
	return t, nil
}

func (s *Service) UpdateTransaction(ctx context.Context, t *domain.Transaction) error {
	if !s.LocalOnly() {
		if err := s.store.UpdateTransaction(ctx, t); err != nil {
			return fmt.Errorf("UpdateTransaction: %w", err)
		}
	}
	s.cache.UpsertTransaction(t)
	return nil
}

func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	if !s.LocalOnly() {
		if err := s.store.DeleteTransaction(ctx, id); err != nil {
			return fmt.Errorf("DeleteTransaction: %w", err)
		}
	}
	s.cache.RemoveTransaction(id)
	return nil
}

func (s *Service) Transactions(filter domain.DateFilter) []*domain.Transaction {
	return s.cache.Transactions(filter)
}

func (s *Service) Stats(filter domain.DateFilter) state.Stats {
	return s.cache.Stats(filter)
}

func (s *Service) MonthlyStats(now time.Time) []state.MonthStats {
	return s.cache.MonthlyStats(now)
}

func (s *Service) AddPaymentMethod(ctx context.Context, m *domain.PaymentMethod) (*domain.PaymentMethod, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if !s.LocalOnly() {
		if err := s.store.InsertPaymentMethod(ctx, m); err != nil {
			return nil, fmt.Errorf("AddPaymentMethod: %w", err)
		}
	}
	s.cache.UpsertPaymentMethod(m)
	return m, nil
}

func (s *Service) UpdatePaymentMethod(ctx context.Context, m *domain.PaymentMethod) error {
	if !s.LocalOnly() {
		if err := s.store.UpdatePaymentMethod(ctx, m); err != nil {
			return fmt.Errorf("UpdatePaymentMethod: %w", err)
		}
	}
	s.cache.UpsertPaymentMethod(m)
	return nil
}

func (s *Service) DeletePaymentMethod(ctx context.Context, id string) error {
	if !s.LocalOnly() {
		if err := s.store.DeletePaymentMethod(ctx, id); err != nil {
			return fmt.Errorf("DeletePaymentMethod: %w", err)
		}
	}
	s.cache.RemovePaymentMethod(id)
	return nil
}

func (s *Service) PaymentMethods() []*domain.PaymentMethod {
	return s.cache.PaymentMethods()
}

// refreshAfterWrite re-reads the full snapshot so synthetic transactions
// inserted by the engine become visible. A failed refresh only logs; the
// write itself already succeeded.
func (s *Service) refreshAfterWrite(ctx context.Context) {
	if err := s.cache.Refresh(ctx, s.store); err != nil {
		s.log.Warn().Err(err).Msg("cache refresh after write failed")
	}
}
