package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/aguilartradesfx/financetracker/internal/domain"
	"github.com/aguilartradesfx/financetracker/internal/ledger"
)

const txColumns = `
	transaction_id,
	date,
	type,
	amount,
	category,
	description,
	payment_method_id,
	income_payment_method,
	client_id,
	external_ref,
	created_ts`

func (r *Repository) listTransactions(ctx context.Context, filter ledger.TransactionFilter) ([]*domain.Transaction, error) {
	query := "SELECT" + txColumns + " FROM " + r.table(transactionsTable) + " WHERE TRUE"
	var params []bigquery.QueryParameter

	if filter.StartDate != nil {
		query += " AND date >= @start_date"
		params = append(params, bigquery.QueryParameter{Name: "start_date", Value: *filter.StartDate})
	}
	if filter.EndDate != nil {
		query += " AND date <= @end_date"
		params = append(params, bigquery.QueryParameter{Name: "end_date", Value: *filter.EndDate})
	}
	if filter.Type != "" {
		query += " AND type = @type"
		params = append(params, bigquery.QueryParameter{Name: "type", Value: string(filter.Type)})
	}
	if filter.ClientID != "" {
		query += " AND client_id = @client_id"
		params = append(params, bigquery.QueryParameter{Name: "client_id", Value: filter.ClientID})
	}
	query += " ORDER BY date DESC"

	q := r.client.Query(query)
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("listTransactions: query read: %w", err)
	}

	var out []*domain.Transaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listTransactions: iter next: %w", err)
		}
		out = append(out, rowToTransaction(&row))
	}
	return out, nil
}

// insertTransaction streams one row into finance.transactions. Rows carrying
// an external_ref are checked for an existing ref first: BigQuery has no
// unique constraints, so the dedup guard is a read immediately before the
// write. SQLite enforces the same ref with a real unique index.
func (r *Repository) insertTransaction(ctx context.Context, t *domain.Transaction) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Date.IsZero() {
		t.Date = time.Now()
	}

	if t.ExternalRef != "" {
		exists, err := r.externalRefExists(ctx, t.ExternalRef)
		if err != nil {
			return fmt.Errorf("insertTransaction: checking external_ref: %w", err)
		}
		if exists {
			return fmt.Errorf("insertTransaction: ref %s: %w", t.ExternalRef, ledger.ErrDuplicateRef)
		}
	}

	inserter := r.client.DatasetInProject(r.projectID, r.datasetID).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, transactionToRow(t)); err != nil {
		return fmt.Errorf("insertTransaction: inserting row: %w", err)
	}
	return nil
}

func (r *Repository) externalRefExists(ctx context.Context, ref string) (bool, error) {
	q := r.client.Query("SELECT COUNT(*) AS n FROM " + r.table(transactionsTable) + " WHERE external_ref = @ref")
	q.Parameters = []bigquery.QueryParameter{{Name: "ref", Value: ref}}

	it, err := q.Read(ctx)
	if err != nil {
		return false, fmt.Errorf("query read: %w", err)
	}

	var row struct {
		N int64 `bigquery:"n"`
	}
	if err := it.Next(&row); err != nil {
		return false, fmt.Errorf("iter next: %w", err)
	}
	return row.N > 0, nil
}

func (r *Repository) updateTransaction(ctx context.Context, t *domain.Transaction) error {
	q := r.client.Query(`
		UPDATE ` + r.table(transactionsTable) + `
		SET date = @date,
		    type = @type,
		    amount = @amount,
		    category = @category,
		    description = @description,
		    payment_method_id = @payment_method_id,
		    income_payment_method = @income_payment_method,
		    client_id = @client_id
		WHERE transaction_id = @transaction_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "date", Value: t.Date},
		{Name: "type", Value: string(t.Type)},
		{Name: "amount", Value: t.Amount},
		{Name: "category", Value: t.Category},
		{Name: "description", Value: t.Description},
		{Name: "payment_method_id", Value: t.PaymentMethodID},
		{Name: "income_payment_method", Value: string(t.IncomePaymentMethod)},
		{Name: "client_id", Value: t.ClientID},
		{Name: "transaction_id", Value: t.ID},
	}

	affected, err := r.runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("updateTransaction: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("updateTransaction: %s: %w", t.ID, ledger.ErrNotFound)
	}
	return nil
}

func (r *Repository) deleteTransaction(ctx context.Context, id string) error {
	q := r.client.Query("DELETE FROM " + r.table(transactionsTable) + " WHERE transaction_id = @transaction_id")
	q.Parameters = []bigquery.QueryParameter{{Name: "transaction_id", Value: id}}

	affected, err := r.runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("deleteTransaction: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("deleteTransaction: %s: %w", id, ledger.ErrNotFound)
	}
	return nil
}
