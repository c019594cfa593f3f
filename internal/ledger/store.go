// Package ledger defines the storage contract for the finance tracker.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/aguilartradesfx/financetracker/internal/domain"
)

var (
	// ErrUnavailable means no backing store is configured or reachable.
	// Callers degrade to local-only behavior; the reconciliation engine
	// skips its pass entirely rather than fabricate unpersisted income.
	ErrUnavailable = errors.New("ledger store unavailable")

	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateRef means a transaction with the same external_ref
	// already exists. The reconciliation engine treats this as
	// "backfill already applied", not as a failure.
	ErrDuplicateRef = errors.New("duplicate external_ref")
)

// TransactionFilter narrows ListTransactions. Zero values match everything.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Type      domain.TransactionType
	ClientID  string
}

// Matches reports whether t satisfies the filter. Backends that cannot push
// the filter into the query use it for in-process filtering.
func (f TransactionFilter) Matches(t *domain.Transaction) bool {
	if f.StartDate != nil && t.Date.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && t.Date.After(*f.EndDate) {
		return false
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	if f.ClientID != "" && t.ClientID != f.ClientID {
		return false
	}
	return true
}

// Store is the ledger storage contract. Implementations: BigQuery (hosted)
// and SQLite (local). Insert methods populate the record's ID when empty.
type Store interface {
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]*domain.Transaction, error)
	InsertTransaction(ctx context.Context, t *domain.Transaction) error
	UpdateTransaction(ctx context.Context, t *domain.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error

	ListClients(ctx context.Context) ([]*domain.Client, error)
	GetClient(ctx context.Context, id string) (*domain.Client, error)
	InsertClient(ctx context.Context, c *domain.Client) error
	UpdateClient(ctx context.Context, id string, update domain.ClientUpdate) error
	DeleteClient(ctx context.Context, id string) error

	ListPaymentMethods(ctx context.Context) ([]*domain.PaymentMethod, error)
	InsertPaymentMethod(ctx context.Context, m *domain.PaymentMethod) error
	UpdatePaymentMethod(ctx context.Context, m *domain.PaymentMethod) error
	DeletePaymentMethod(ctx context.Context, id string) error

	Close() error
}
