// Package bigquery provides the hosted implementation of the ledger.Store
// interface, backed by BigQuery tables under a finance dataset.
package bigquery

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/bigquery"

	"github.com/aguilartradesfx/financetracker/internal/domain"
	"github.com/aguilartradesfx/financetracker/internal/ledger"
)

const (
	defaultDatasetID = "finance"

	transactionsTable   = "transactions"
	clientsTable        = "clients"
	paymentMethodsTable = "payment_methods"
)

// Ensure Repository implements ledger.Store
var _ ledger.Store = (*Repository)(nil)

// Repository is the BigQuery-backed ledger store. It holds one shared client
// to avoid creating a new connection for each operation.
type Repository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// New creates a Repository for the given project and dataset. An empty
// projectID falls back to FINANCE_PROJECT_ID; when neither is set the store
// is unavailable and callers run local-only.
func New(ctx context.Context, projectID, datasetID string) (*Repository, error) {
	if projectID == "" {
		projectID = os.Getenv("FINANCE_PROJECT_ID")
	}
	if projectID == "" {
		return nil, fmt.Errorf("no project configured: %w", ledger.ErrUnavailable)
	}
	if datasetID == "" {
		datasetID = defaultDatasetID
	}

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("New: creating bigquery client: %w", err)
	}
	return &Repository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *Repository) table(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", r.projectID, r.datasetID, name)
}

// ListTransactions returns transactions matching the filter, newest first.
func (r *Repository) ListTransactions(ctx context.Context, filter ledger.TransactionFilter) ([]*domain.Transaction, error) {
	return r.listTransactions(ctx, filter)
}

// InsertTransaction persists a new transaction, generating its ID when empty.
func (r *Repository) InsertTransaction(ctx context.Context, t *domain.Transaction) error {
	return r.insertTransaction(ctx, t)
}

// UpdateTransaction rewrites the mutable fields of an existing transaction.
func (r *Repository) UpdateTransaction(ctx context.Context, t *domain.Transaction) error {
	return r.updateTransaction(ctx, t)
}

// DeleteTransaction removes a transaction by ID.
func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	return r.deleteTransaction(ctx, id)
}

// ListClients returns all clients ordered by name.
func (r *Repository) ListClients(ctx context.Context) ([]*domain.Client, error) {
	return r.listClients(ctx)
}

// GetClient retrieves one client by ID.
func (r *Repository) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	return r.getClient(ctx, id)
}

// InsertClient persists a new client, generating its ID when empty.
func (r *Repository) InsertClient(ctx context.Context, c *domain.Client) error {
	return r.insertClient(ctx, c)
}

// UpdateClient applies a partial update to a client.
func (r *Repository) UpdateClient(ctx context.Context, id string, update domain.ClientUpdate) error {
	return r.updateClient(ctx, id, update)
}

// DeleteClient removes a client record, leaving its transactions intact.
func (r *Repository) DeleteClient(ctx context.Context, id string) error {
	return r.deleteClient(ctx, id)
}

// ListPaymentMethods returns all payment methods ordered by name.
func (r *Repository) ListPaymentMethods(ctx context.Context) ([]*domain.PaymentMethod, error) {
	return r.listPaymentMethods(ctx)
}

// InsertPaymentMethod persists a new payment method.
func (r *Repository) InsertPaymentMethod(ctx context.Context, m *domain.PaymentMethod) error {
	return r.insertPaymentMethod(ctx, m)
}

// UpdatePaymentMethod rewrites a payment method.
func (r *Repository) UpdatePaymentMethod(ctx context.Context, m *domain.PaymentMethod) error {
	return r.updatePaymentMethod(ctx, m)
}

// DeletePaymentMethod removes a payment method by ID.
func (r *Repository) DeletePaymentMethod(ctx context.Context, id string) error {
	return r.deletePaymentMethod(ctx, id)
}

// runDML executes a DML statement and waits for the job to finish.
func (r *Repository) runDML(ctx context.Context, q *bigquery.Query) (int64, error) {
	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("run query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("wait for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("job error: %w", err)
	}

	if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
		return qs.NumDMLAffectedRows, nil
	}
	return 0, nil
}
