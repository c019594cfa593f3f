package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/aguilartradesfx/financetracker/internal/domain"
	"github.com/aguilartradesfx/financetracker/internal/ledger"
)

const clientColumns = `
	client_id,
	name,
	company,
	total_invoice,
	total_paid,
	my_cost,
	total_charged,
	payment_method,
	last_payment_date,
	created_ts`

func (r *Repository) listClients(ctx context.Context) ([]*domain.Client, error) {
	q := r.client.Query("SELECT" + clientColumns + " FROM " + r.table(clientsTable) + " ORDER BY name ASC")

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("listClients: query read: %w", err)
	}

	var out []*domain.Client
	for {
		var row ClientRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listClients: iter next: %w", err)
		}
		out = append(out, rowToClient(&row))
	}
	return out, nil
}

func (r *Repository) getClient(ctx context.Context, id string) (*domain.Client, error) {
	q := r.client.Query("SELECT" + clientColumns + " FROM " + r.table(clientsTable) + " WHERE client_id = @client_id")
	q.Parameters = []bigquery.QueryParameter{{Name: "client_id", Value: id}}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("getClient: query read: %w", err)
	}

	var row ClientRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, fmt.Errorf("getClient: %s: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getClient: iter next: %w", err)
	}
	return rowToClient(&row), nil
}

func (r *Repository) insertClient(ctx context.Context, c *domain.Client) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	inserter := r.client.DatasetInProject(r.projectID, r.datasetID).Table(clientsTable).Inserter()
	if err := inserter.Put(ctx, clientToRow(c)); err != nil {
		return fmt.Errorf("insertClient: inserting row: %w", err)
	}
	return nil
}

// updateClient writes only the fields the update carries. Building the SET
// clause per field keeps an untouched field at its stored value instead of
// clobbering it with a zero.
func (r *Repository) updateClient(ctx context.Context, id string, update domain.ClientUpdate) error {
	var (
		sets   []string
		params []bigquery.QueryParameter
	)
	addSet := func(column, param string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = @%s", column, param))
		params = append(params, bigquery.QueryParameter{Name: param, Value: value})
	}

	if update.Name != nil {
		addSet("name", "name", *update.Name)
	}
	if update.Company != nil {
		addSet("company", "company", *update.Company)
	}
	if update.TotalInvoice != nil {
		addSet("total_invoice", "total_invoice", *update.TotalInvoice)
	}
	if update.TotalPaid != nil {
		addSet("total_paid", "total_paid", *update.TotalPaid)
	}
	if update.MyCost != nil {
		addSet("my_cost", "my_cost", *update.MyCost)
	}
	if update.TotalCharged != nil {
		addSet("total_charged", "total_charged", *update.TotalCharged)
	}
	if update.PaymentMethod != nil {
		addSet("payment_method", "payment_method", string(*update.PaymentMethod))
	}
	if update.LastPaymentDate != nil {
		addSet("last_payment_date", "last_payment_date", civil.DateOf(*update.LastPaymentDate))
	}
	if len(sets) == 0 {
		return nil
	}

	query := "UPDATE " + r.table(clientsTable) + " SET " + sets[0]
	for _, s := range sets[1:] {
		query += ", " + s
	}
	query += " WHERE client_id = @client_id"
	params = append(params, bigquery.QueryParameter{Name: "client_id", Value: id})

	q := r.client.Query(query)
	q.Parameters = params

	affected, err := r.runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("updateClient: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("updateClient: %s: %w", id, ledger.ErrNotFound)
	}
	return nil
}

// deleteClient removes the client row only. Transactions that reference the
// client stay in the ledger so historical income reports keep adding up.
func (r *Repository) deleteClient(ctx context.Context, id string) error {
	q := r.client.Query("DELETE FROM " + r.table(clientsTable) + " WHERE client_id = @client_id")
	q.Parameters = []bigquery.QueryParameter{{Name: "client_id", Value: id}}

	affected, err := r.runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("deleteClient: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("deleteClient: %s: %w", id, ledger.ErrNotFound)
	}
	return nil
}
