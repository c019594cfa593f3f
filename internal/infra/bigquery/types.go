package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/aguilartradesfx/financetracker/internal/domain"
)

// TransactionRow represents a transaction record in BigQuery.
type TransactionRow struct {
	TransactionID string    `bigquery:"transaction_id"`
	Date          time.Time `bigquery:"date"`
	Type          string    `bigquery:"type"`
	Amount        float64   `bigquery:"amount"`
	Category      string    `bigquery:"category"`
	Description   string    `bigquery:"description"`

	PaymentMethodID     bigquery.NullString `bigquery:"payment_method_id"`
	IncomePaymentMethod bigquery.NullString `bigquery:"income_payment_method"`
	ClientID            bigquery.NullString `bigquery:"client_id"`
	ExternalRef         bigquery.NullString `bigquery:"external_ref"`

	CreatedTS time.Time `bigquery:"created_ts"`
}

// ClientRow represents a client record in BigQuery.
type ClientRow struct {
	ClientID string `bigquery:"client_id"`
	Name     string `bigquery:"name"`
	Company  string `bigquery:"company"`

	TotalInvoice float64 `bigquery:"total_invoice"`
	TotalPaid    float64 `bigquery:"total_paid"`
	MyCost       float64 `bigquery:"my_cost"`
	TotalCharged float64 `bigquery:"total_charged"`

	PaymentMethod   bigquery.NullString `bigquery:"payment_method"`
	LastPaymentDate bigquery.NullDate   `bigquery:"last_payment_date"`

	CreatedTS time.Time `bigquery:"created_ts"`
}

// PaymentMethodRow represents a payment method record in BigQuery.
type PaymentMethodRow struct {
	MethodID  string    `bigquery:"method_id"`
	Name      string    `bigquery:"name"`
	Type      string    `bigquery:"type"`
	CreatedTS time.Time `bigquery:"created_ts"`
}

func transactionToRow(t *domain.Transaction) *TransactionRow {
	return &TransactionRow{
		TransactionID:       t.ID,
		Date:                t.Date,
		Type:                string(t.Type),
		Amount:              t.Amount,
		Category:            t.Category,
		Description:         t.Description,
		PaymentMethodID:     nullString(t.PaymentMethodID),
		IncomePaymentMethod: nullString(string(t.IncomePaymentMethod)),
		ClientID:            nullString(t.ClientID),
		ExternalRef:         nullString(t.ExternalRef),
		CreatedTS:           time.Now(),
	}
}

func rowToTransaction(r *TransactionRow) *domain.Transaction {
	return &domain.Transaction{
		ID:                  r.TransactionID,
		Date:                r.Date,
		Type:                domain.TransactionType(r.Type),
		Amount:              r.Amount,
		Category:            r.Category,
		Description:         r.Description,
		PaymentMethodID:     r.PaymentMethodID.StringVal,
		IncomePaymentMethod: domain.IncomePaymentMethod(r.IncomePaymentMethod.StringVal),
		ClientID:            r.ClientID.StringVal,
		ExternalRef:         r.ExternalRef.StringVal,
	}
}

func clientToRow(c *domain.Client) *ClientRow {
	row := &ClientRow{
		ClientID:      c.ID,
		Name:          c.Name,
		Company:       c.Company,
		TotalInvoice:  c.TotalInvoice,
		TotalPaid:     c.TotalPaid,
		MyCost:        c.MyCost,
		TotalCharged:  c.TotalCharged,
		PaymentMethod: nullString(string(c.PaymentMethod)),
		CreatedTS:     time.Now(),
	}
	if c.LastPaymentDate != nil {
		row.LastPaymentDate = bigquery.NullDate{
			Date:  civil.DateOf(*c.LastPaymentDate),
			Valid: true,
		}
	}
	return row
}

func rowToClient(r *ClientRow) *domain.Client {
	c := &domain.Client{
		ID:            r.ClientID,
		Name:          r.Name,
		Company:       r.Company,
		TotalInvoice:  r.TotalInvoice,
		TotalPaid:     r.TotalPaid,
		MyCost:        r.MyCost,
		TotalCharged:  r.TotalCharged,
		PaymentMethod: domain.IncomePaymentMethod(r.PaymentMethod.StringVal),
	}
	if r.LastPaymentDate.Valid {
		d := r.LastPaymentDate.Date.In(time.UTC)
		c.LastPaymentDate = &d
	}
	return c
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}
