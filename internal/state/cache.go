// Package state holds the in-memory snapshot of the ledger that the service
// layer and the API read from. The reconciliation engine never reads it;
// engine inputs are always explicit snapshots handed in by the caller.
package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aguilartradesfx/financetracker/internal/domain"
	"github.com/aguilartradesfx/financetracker/internal/ledger"
)

// Cache is a mutex-guarded mirror of the backing store. All reads return
// copies so callers can iterate without holding the lock.
type Cache struct {
	mu sync.RWMutex

	transactions   []*domain.Transaction
	clients        []*domain.Client
	paymentMethods []*domain.PaymentMethod

	loaded      bool
	lastRefresh time.Time
}

func NewCache() *Cache {
	return &Cache{}
}

// Refresh replaces the whole snapshot from the store. Either all three
// collections update or none do.
func (c *Cache) Refresh(ctx context.Context, store ledger.Store) error {
	transactions, err := store.ListTransactions(ctx, ledger.TransactionFilter{})
	if err != nil {
		return fmt.Errorf("Refresh: listing transactions: %w", err)
	}
	clients, err := store.ListClients(ctx)
	if err != nil {
		return fmt.Errorf("Refresh: listing clients: %w", err)
	}
	methods, err := store.ListPaymentMethods(ctx)
	if err != nil {
		return fmt.Errorf("Refresh: listing payment methods: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.transactions = transactions
	c.clients = clients
	c.paymentMethods = methods
	c.loaded = true
	c.lastRefresh = time.Now()
	return nil
}

// Loaded reports whether at least one refresh has completed.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// LastRefresh returns the time of the most recent successful refresh.
func (c *Cache) LastRefresh() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRefresh
}

// Snapshot returns consistent copies of all three collections, taken under
// one lock acquisition.
func (c *Cache) Snapshot() ([]*domain.Transaction, []*domain.Client, []*domain.PaymentMethod) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyTransactions(c.transactions), copyClients(c.clients), copyMethods(c.paymentMethods)
}

// Transactions returns the cached transactions whose dates fall inside the
// filter, newest first.
func (c *Cache) Transactions(filter domain.DateFilter) []*domain.Transaction {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*domain.Transaction, 0, len(c.transactions))
	for _, t := range c.transactions {
		if filter.Contains(t.Date) {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out
}

func (c *Cache) Clients() []*domain.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyClients(c.clients)
}

// Client returns the cached client with the given id, or nil.
func (c *Cache) Client(id string) *domain.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, cl := range c.clients {
		if cl.ID == id {
			copied := *cl
			return &copied
		}
	}
	return nil
}

func (c *Cache) PaymentMethods() []*domain.PaymentMethod {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyMethods(c.paymentMethods)
}

// UpsertTransaction inserts or replaces a transaction in place. Used to keep
// the cache fresh after a write without a full refresh, and as the only
// storage when no backend is configured.
func (c *Cache) UpsertTransaction(t *domain.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *t
	for i, existing := range c.transactions {
		if existing.ID == t.ID {
			c.transactions[i] = &copied
			return
		}
	}
	c.transactions = append([]*domain.Transaction{&copied}, c.transactions...)
}

func (c *Cache) RemoveTransaction(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, t := range c.transactions {
		if t.ID == id {
			c.transactions = append(c.transactions[:i], c.transactions[i+1:]...)
			return
		}
	}
}

func (c *Cache) UpsertClient(cl *domain.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *cl
	for i, existing := range c.clients {
		if existing.ID == cl.ID {
			c.clients[i] = &copied
			return
		}
	}
	c.clients = append(c.clients, &copied)
}

func (c *Cache) RemoveClient(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, cl := range c.clients {
		if cl.ID == id {
			c.clients = append(c.clients[:i], c.clients[i+1:]...)
			return
		}
	}
}

func (c *Cache) UpsertPaymentMethod(m *domain.PaymentMethod) {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := *m
	for i, existing := range c.paymentMethods {
		if existing.ID == m.ID {
			c.paymentMethods[i] = &copied
			return
		}
	}
	c.paymentMethods = append(c.paymentMethods, &copied)
}

func (c *Cache) RemovePaymentMethod(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, m := range c.paymentMethods {
		if m.ID == id {
			c.paymentMethods = append(c.paymentMethods[:i], c.paymentMethods[i+1:]...)
			return
		}
	}
}

func copyTransactions(in []*domain.Transaction) []*domain.Transaction {
	out := make([]*domain.Transaction, len(in))
	for i, t := range in {
		copied := *t
		out[i] = &copied
	}
	return out
}

func copyClients(in []*domain.Client) []*domain.Client {
	out := make([]*domain.Client, len(in))
	for i, c := range in {
		copied := *c
		out[i] = &copied
	}
	return out
}

func copyMethods(in []*domain.PaymentMethod) []*domain.PaymentMethod {
	out := make([]*domain.PaymentMethod, len(in))
	for i, m := range in {
		copied := *m
		out[i] = &copied
	}
	return out
}
