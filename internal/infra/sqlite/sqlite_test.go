package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aguilartradesfx/financetracker/internal/domain"
	"github.com/aguilartradesfx/financetracker/internal/ledger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "financetracker-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("InsertTransaction generates ID", func(t *testing.T) {
		tx := &domain.Transaction{
			Date:     time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
			Type:     domain.TypeExpense,
			Amount:   42.50,
			Category: "software",
		}

		if err := store.InsertTransaction(ctx, tx); err != nil {
			t.Fatalf("InsertTransaction failed: %v", err)
		}
		if tx.ID == "" {
			t.Error("Expected transaction ID to be generated")
		}
	})

	t.Run("ListTransactions filters by date range and client", func(t *testing.T) {
		clientTx := &domain.Transaction{
			Date:     time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC),
			Type:     domain.TypeIncome,
			Amount:   100,
			Category: domain.CategoryClientPayment,
			ClientID: "client-a",
		}
		oldTx := &domain.Transaction{
			Date:   time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
			Type:   domain.TypeIncome,
			Amount: 5,
		}
		for _, tx := range []*domain.Transaction{clientTx, oldTx} {
			if err := store.InsertTransaction(ctx, tx); err != nil {
				t.Fatalf("InsertTransaction failed: %v", err)
			}
		}

		start := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2025, time.March, 31, 23, 59, 59, 0, time.UTC)
		got, err := store.ListTransactions(ctx, ledger.TransactionFilter{
			StartDate: &start,
			EndDate:   &end,
			ClientID:  "client-a",
		})
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if len(got) != 1 || got[0].ID != clientTx.ID {
			t.Fatalf("filtered list = %+v, want only the March client transaction", got)
		}
		if !got[0].Date.Equal(clientTx.Date) {
			t.Errorf("date round-trip mismatch: got %v, want %v", got[0].Date, clientTx.Date)
		}
	})

	t.Run("duplicate external_ref is rejected", func(t *testing.T) {
		first := &domain.Transaction{
			Date:        time.Now(),
			Type:        domain.TypeIncome,
			Amount:      500,
			Category:    domain.CategoryClientPayment,
			ClientID:    "client-b",
			ExternalRef: "backfill:client-b:0.00:500.00",
		}
		if err := store.InsertTransaction(ctx, first); err != nil {
			t.Fatalf("first insert failed: %v", err)
		}

		replay := *first
		replay.ID = ""
		err := store.InsertTransaction(ctx, &replay)
		if !errors.Is(err, ledger.ErrDuplicateRef) {
			t.Fatalf("replayed insert error = %v, want ErrDuplicateRef", err)
		}

		got, err := store.ListTransactions(ctx, ledger.TransactionFilter{ClientID: "client-b"})
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("transactions for client-b = %d, want 1", len(got))
		}
	})

	t.Run("empty external_ref never collides", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			tx := &domain.Transaction{
				Date:   time.Now(),
				Type:   domain.TypeExpense,
				Amount: 10,
			}
			if err := store.InsertTransaction(ctx, tx); err != nil {
				t.Fatalf("insert %d failed: %v", i+1, err)
			}
		}
	})

	t.Run("client round-trip with last payment date", func(t *testing.T) {
		paid := time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)
		c := &domain.Client{
			Name:            "Acme",
			Company:         "Acme Corp",
			TotalCharged:    1000,
			PaymentMethod:   domain.PayTransferencia,
			LastPaymentDate: &paid,
		}

		if err := store.InsertClient(ctx, c); err != nil {
			t.Fatalf("InsertClient failed: %v", err)
		}
		if c.ID == "" {
			t.Fatal("Expected client ID to be generated")
		}

		got, err := store.GetClient(ctx, c.ID)
		if err != nil {
			t.Fatalf("GetClient failed: %v", err)
		}
		if got.Name != "Acme" || got.TotalCharged != 1000 || got.PaymentMethod != domain.PayTransferencia {
			t.Errorf("client mismatch: %+v", got)
		}
		if got.LastPaymentDate == nil || !got.LastPaymentDate.Equal(paid) {
			t.Errorf("last payment date = %v, want %v", got.LastPaymentDate, paid)
		}
	})

	t.Run("UpdateClient applies partial update", func(t *testing.T) {
		c := &domain.Client{Name: "Globex", TotalCharged: 200}
		if err := store.InsertClient(ctx, c); err != nil {
			t.Fatalf("InsertClient failed: %v", err)
		}

		charged := 350.0
		err := store.UpdateClient(ctx, c.ID, domain.ClientUpdate{TotalCharged: &charged})
		if err != nil {
			t.Fatalf("UpdateClient failed: %v", err)
		}

		got, err := store.GetClient(ctx, c.ID)
		if err != nil {
			t.Fatalf("GetClient failed: %v", err)
		}
		if got.TotalCharged != 350 {
			t.Errorf("total_charged = %v, want 350", got.TotalCharged)
		}
		if got.Name != "Globex" {
			t.Errorf("name = %q, untouched fields must survive the update", got.Name)
		}
	})

	t.Run("GetClient returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetClient(ctx, "nonexistent")
		if !errors.Is(err, ledger.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("deleting a client keeps its transactions", func(t *testing.T) {
		c := &domain.Client{Name: "Initech"}
		if err := store.InsertClient(ctx, c); err != nil {
			t.Fatalf("InsertClient failed: %v", err)
		}
		tx := &domain.Transaction{
			Date:     time.Now(),
			Type:     domain.TypeIncome,
			Amount:   75,
			ClientID: c.ID,
		}
		if err := store.InsertTransaction(ctx, tx); err != nil {
			t.Fatalf("InsertTransaction failed: %v", err)
		}

		if err := store.DeleteClient(ctx, c.ID); err != nil {
			t.Fatalf("DeleteClient failed: %v", err)
		}

		got, err := store.ListTransactions(ctx, ledger.TransactionFilter{ClientID: c.ID})
		if err != nil {
			t.Fatalf("ListTransactions failed: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("orphaned transactions = %d, want 1 (history is preserved)", len(got))
		}
	})

	t.Run("payment method CRUD", func(t *testing.T) {
		m := &domain.PaymentMethod{Name: "Tarjeta BBVA", Type: domain.MethodTarjeta}
		if err := store.InsertPaymentMethod(ctx, m); err != nil {
			t.Fatalf("InsertPaymentMethod failed: %v", err)
		}

		m.Name = "Tarjeta Santander"
		if err := store.UpdatePaymentMethod(ctx, m); err != nil {
			t.Fatalf("UpdatePaymentMethod failed: %v", err)
		}

		methods, err := store.ListPaymentMethods(ctx)
		if err != nil {
			t.Fatalf("ListPaymentMethods failed: %v", err)
		}
		if len(methods) != 1 || methods[0].Name != "Tarjeta Santander" {
			t.Fatalf("methods = %+v, want the renamed card", methods)
		}

		if err := store.DeletePaymentMethod(ctx, m.ID); err != nil {
			t.Fatalf("DeletePaymentMethod failed: %v", err)
		}
		if err := store.DeletePaymentMethod(ctx, m.ID); !errors.Is(err, ledger.ErrNotFound) {
			t.Errorf("second delete error = %v, want ErrNotFound", err)
		}
	})
}
