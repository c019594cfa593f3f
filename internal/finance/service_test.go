package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/aguilartradesfx/financetracker/internal/domain"
	"github.com/aguilartradesfx/financetracker/internal/ledger"
	"github.com/aguilartradesfx/financetracker/internal/reconcile"
)

// memStore is an in-memory ledger.Store with the same external_ref dedup
// guarantee the real backends give.
type memStore struct {
	mu           sync.Mutex
	transactions []*domain.Transaction
	clients      []*domain.Client
	methods      []*domain.PaymentMethod

	listTxErr     error
	listClientErr error
	nextID        int
}

var _ ledger.Store = (*memStore)(nil)

func (s *memStore) ListTransactions(_ context.Context, f ledger.TransactionFilter) ([]*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listTxErr != nil {
		return nil, s.listTxErr
	}
	var out []*domain.Transaction
	for _, t := range s.transactions {
		if f.Matches(t) {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *memStore) InsertTransaction(_ context.Context, t *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ExternalRef != "" {
		for _, existing := range s.transactions {
			if existing.ExternalRef == t.ExternalRef {
				return ledger.ErrDuplicateRef
			}
		}
	}
	if t.ID == "" {
		s.nextID++
		t.ID = fmt.Sprintf("tx-%d", s.nextID)
	}
	copied := *t
	s.transactions = append(s.transactions, &copied)
	return nil
}

func (s *memStore) UpdateTransaction(_ context.Context, t *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.transactions {
		if existing.ID == t.ID {
			copied := *t
			s.transactions[i] = &copied
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *memStore) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.transactions {
		if t.ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *memStore) ListClients(_ context.Context) ([]*domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listClientErr != nil {
		return nil, s.listClientErr
	}
	out := make([]*domain.Client, len(s.clients))
	for i, c := range s.clients {
		copied := *c
		out[i] = &copied
	}
	return out, nil
}

func (s *memStore) GetClient(_ context.Context, id string) (*domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		if c.ID == id {
			copied := *c
			return &copied, nil
		}
	}
	return nil, ledger.ErrNotFound
}

func (s *memStore) InsertClient(_ context.Context, c *domain.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		s.nextID++
		c.ID = fmt.Sprintf("client-%d", s.nextID)
	}
	copied := *c
	s.clients = append(s.clients, &copied)
	return nil
}

func (s *memStore) UpdateClient(_ context.Context, id string, update domain.ClientUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.clients {
		if c.ID == id {
			updated := update.Apply(*c)
			s.clients[i] = &updated
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *memStore) DeleteClient(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.clients {
		if c.ID == id {
			s.clients = append(s.clients[:i], s.clients[i+1:]...)
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *memStore) ListPaymentMethods(_ context.Context) ([]*domain.PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.PaymentMethod, len(s.methods))
	for i, m := range s.methods {
		copied := *m
		out[i] = &copied
	}
	return out, nil
}

func (s *memStore) InsertPaymentMethod(_ context.Context, m *domain.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *m
	s.methods = append(s.methods, &copied)
	return nil
}

func (s *memStore) UpdatePaymentMethod(_ context.Context, m *domain.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.methods {
		if existing.ID == m.ID {
			copied := *m
			s.methods[i] = &copied
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *memStore) DeletePaymentMethod(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.methods {
		if m.ID == id {
			s.methods = append(s.methods[:i], s.methods[i+1:]...)
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *memStore) Close() error { return nil }

func (s *memStore) incomeTotal(clientID string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum float64
	for _, t := range s.transactions {
		if t.Type == domain.TypeIncome && t.ClientID == clientID {
			sum += t.Amount
		}
	}
	return sum
}

func newTestService(store ledger.Store) *Service {
	return New(store, zerolog.Nop()).WithBackfillDelay(time.Millisecond)
}

func TestAddClientCreatesMatchingIncome(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store)
	ctx := context.Background()

	client, line, err := svc.AddClient(ctx, &domain.Client{
		Name:          "Acme",
		TotalCharged:  1000,
		PaymentMethod: domain.PayTransferencia,
	})
	if err != nil {
		t.Fatalf("AddClient: %v", err)
	}
	if line.Outcome != reconcile.OutcomeBackfilled || line.Amount != 1000 {
		t.Fatalf("line = %+v, want backfilled 1000", line)
	}
	if got := store.incomeTotal(client.ID); got != 1000 {
		t.Errorf("linked income = %v, want 1000", got)
	}

	// The synthetic transaction must be visible through the cache.
	transactions, _, _ := svc.Cache().Snapshot()
	if len(transactions) != 1 {
		t.Fatalf("cache has %d transactions, want 1", len(transactions))
	}
	if transactions[0].IncomePaymentMethod != domain.PayTransferencia {
		t.Errorf("payment method = %q, want transferencia", transactions[0].IncomePaymentMethod)
	}
}

func TestUpdateClientReconcilesDelta(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store)
	ctx := context.Background()

	client, _, err := svc.AddClient(ctx, &domain.Client{Name: "Acme", TotalCharged: 1000})
	if err != nil {
		t.Fatalf("AddClient: %v", err)
	}

	charged := 1500.0
	_, line, err := svc.UpdateClient(ctx, client.ID, domain.ClientUpdate{TotalCharged: &charged})
	if err != nil {
		t.Fatalf("UpdateClient: %v", err)
	}
	if line.Outcome != reconcile.OutcomeBackfilled || line.Amount != 500 {
		t.Fatalf("line = %+v, want backfilled 500", line)
	}
	if got := store.incomeTotal(client.ID); got != 1500 {
		t.Errorf("linked income = %v, want 1500", got)
	}
}

func TestUpdateClientNameOnlyIsNoop(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store)
	ctx := context.Background()

	client, _, err := svc.AddClient(ctx, &domain.Client{Name: "Acme", TotalCharged: 1000})
	if err != nil {
		t.Fatalf("AddClient: %v", err)
	}

	name := "Acme Corp"
	updated, line, err := svc.UpdateClient(ctx, client.ID, domain.ClientUpdate{Name: &name})
	if err != nil {
		t.Fatalf("UpdateClient: %v", err)
	}
	if line.Outcome != reconcile.OutcomeNoAction {
		t.Errorf("outcome = %q, want no action", line.Outcome)
	}
	if updated.Name != "Acme Corp" || updated.TotalCharged != 1000 {
		t.Errorf("updated = %+v, want renamed client with charged 1000", updated)
	}
	if got := store.incomeTotal(client.ID); got != 1000 {
		t.Errorf("linked income = %v, want unchanged 1000", got)
	}
}

func TestInitializeSchedulesBackfill(t *testing.T) {
	store := &memStore{
		clients: []*domain.Client{{ID: "c1", Name: "Acme", TotalCharged: 750}},
	}
	svc := newTestService(store)

	if err := svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for store.incomeTotal("c1") != 750 {
		if time.Now().After(deadline) {
			t.Fatalf("startup backfill never ran, income = %v", store.incomeTotal("c1"))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestInitializeFetchFailureAborts(t *testing.T) {
	store := &memStore{listClientErr: errors.New("backend down")}
	svc := newTestService(store)

	err := svc.Initialize(context.Background())
	if err == nil {
		t.Fatal("expected initialize error")
	}
	if len(store.transactions) != 0 {
		t.Errorf("aborted initialize wrote %d transactions", len(store.transactions))
	}
}

func TestRepairSyncFetchFailureAborts(t *testing.T) {
	store := &memStore{
		clients:   []*domain.Client{{ID: "c1", Name: "Acme", TotalCharged: 500}},
		listTxErr: errors.New("backend down"),
	}
	svc := newTestService(store)

	_, err := svc.RepairSync(context.Background())
	if err == nil || !strings.Contains(err.Error(), "fetching transactions") {
		t.Fatalf("err = %v, want transaction fetch failure", err)
	}
	if len(store.transactions) != 0 {
		t.Errorf("aborted pass wrote %d transactions", len(store.transactions))
	}
}

func TestRepairSyncReportsPerClient(t *testing.T) {
	store := &memStore{
		clients: []*domain.Client{
			{ID: "c1", Name: "Acme", TotalCharged: 500},
			{ID: "c2", Name: "Globex", TotalCharged: 0},
		},
	}
	svc := newTestService(store)

	report, err := svc.RepairSync(context.Background())
	if err != nil {
		t.Fatalf("RepairSync: %v", err)
	}
	if report.Created != 1 {
		t.Errorf("created = %d, want 1", report.Created)
	}
	if len(report.Lines) != 1 {
		t.Errorf("lines = %d, want 1 (uncharged client skipped)", len(report.Lines))
	}
}

func TestLocalOnlyMode(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	if err := svc.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !svc.LocalOnly() {
		t.Fatal("service with nil store should be local-only")
	}

	client, line, err := svc.AddClient(ctx, &domain.Client{Name: "Acme", TotalCharged: 900})
	if err != nil {
		t.Fatalf("AddClient: %v", err)
	}
	if client.ID == "" {
		t.Error("local-only add did not assign an id")
	}
	if line.Outcome != reconcile.OutcomeNoAction {
		t.Errorf("outcome = %q, reconciliation must not run without a store", line.Outcome)
	}
	transactions, _, _ := svc.Cache().Snapshot()
	if len(transactions) != 0 {
		t.Errorf("local-only mode created %d synthetic transactions", len(transactions))
	}

	if _, err := svc.RepairSync(ctx); !errors.Is(err, ledger.ErrUnavailable) {
		t.Errorf("RepairSync err = %v, want ErrUnavailable", err)
	}
}

func TestTransactionCRUDKeepsCacheFresh(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store)
	ctx := context.Background()

	tx, err := svc.AddTransaction(ctx, &domain.Transaction{
		Type:   domain.TypeExpense,
		Amount: 42,
		Date:   time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	filter := domain.NewDateFilter(domain.RangeAllTime, time.Now(), nil)
	if got := svc.Transactions(filter); len(got) != 1 {
		t.Fatalf("cache has %d transactions, want 1", len(got))
	}

	if err := svc.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if got := svc.Transactions(filter); len(got) != 0 {
		t.Errorf("cache has %d transactions after delete, want 0", len(got))
	}
}
