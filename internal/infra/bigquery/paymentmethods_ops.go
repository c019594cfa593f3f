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

func (r *Repository) listPaymentMethods(ctx context.Context) ([]*domain.PaymentMethod, error) {
	q := r.client.Query("SELECT method_id, name, type, created_ts FROM " + r.table(paymentMethodsTable) + " ORDER BY name ASC")

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("listPaymentMethods: query read: %w", err)
	}

	var out []*domain.PaymentMethod
	for {
		var row PaymentMethodRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listPaymentMethods: iter next: %w", err)
		}
		out = append(out, &domain.PaymentMethod{
			ID:   row.MethodID,
			Name: row.Name,
			Type: domain.PaymentMethodType(row.Type),
		})
	}
	return out, nil
}

func (r *Repository) insertPaymentMethod(ctx context.Context, m *domain.PaymentMethod) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}

	row := &PaymentMethodRow{
		MethodID:  m.ID,
		Name:      m.Name,
		Type:      string(m.Type),
		CreatedTS: time.Now(),
	}
	inserter := r.client.DatasetInProject(r.projectID, r.datasetID).Table(paymentMethodsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("insertPaymentMethod: inserting row: %w", err)
	}
	return nil
}

func (r *Repository) updatePaymentMethod(ctx context.Context, m *domain.PaymentMethod) error {
	q := r.client.Query("UPDATE " + r.table(paymentMethodsTable) + " SET name = @name, type = @type WHERE method_id = @method_id")
	q.Parameters = []bigquery.QueryParameter{
		{Name: "name", Value: m.Name},
		{Name: "type", Value: string(m.Type)},
		{Name: "method_id", Value: m.ID},
	}

	affected, err := r.runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("updatePaymentMethod: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("updatePaymentMethod: %s: %w", m.ID, ledger.ErrNotFound)
	}
	return nil
}

func (r *Repository) deletePaymentMethod(ctx context.Context, id string) error {
	q := r.client.Query("DELETE FROM " + r.table(paymentMethodsTable) + " WHERE method_id = @method_id")
	q.Parameters = []bigquery.QueryParameter{{Name: "method_id", Value: id}}

	affected, err := r.runDML(ctx, q)
	if err != nil {
		return fmt.Errorf("deletePaymentMethod: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("deletePaymentMethod: %s: %w", id, ledger.ErrNotFound)
	}
	return nil
}
