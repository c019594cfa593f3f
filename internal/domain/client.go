package domain

import (
	"time"
)

// Client is one billable client. TotalCharged is the cumulative amount
// actually received from the client, maintained by direct user edit, not
// derived from the ledger. The reconciliation engine keeps the income
// transactions linked to the client in step with it.
type Client struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Company string `json:"company"`

	TotalInvoice float64 `json:"total_invoice"`
	TotalPaid    float64 `json:"total_paid"`
	MyCost       float64 `json:"my_cost"`
	TotalCharged float64 `json:"total_charged"`

	PaymentMethod   IncomePaymentMethod `json:"payment_method,omitempty"`
	LastPaymentDate *time.Time          `json:"last_payment_date,omitempty"`
}

// ClientUpdate carries the fields of a client edit. Nil means "unchanged",
// mirroring a partial update over the wire.
type ClientUpdate struct {
	Name    *string `json:"name,omitempty"`
	Company *string `json:"company,omitempty"`

	TotalInvoice *float64 `json:"total_invoice,omitempty"`
	TotalPaid    *float64 `json:"total_paid,omitempty"`
	MyCost       *float64 `json:"my_cost,omitempty"`
	TotalCharged *float64 `json:"total_charged,omitempty"`

	PaymentMethod   *IncomePaymentMethod `json:"payment_method,omitempty"`
	LastPaymentDate *time.Time           `json:"last_payment_date,omitempty"`
}

// Apply returns a copy of c with the update's non-nil fields applied.
func (u ClientUpdate) Apply(c Client) Client {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Company != nil {
		c.Company = *u.Company
	}
	if u.TotalInvoice != nil {
		c.TotalInvoice = *u.TotalInvoice
	}
	if u.TotalPaid != nil {
		c.TotalPaid = *u.TotalPaid
	}
	if u.MyCost != nil {
		c.MyCost = *u.MyCost
	}
	if u.TotalCharged != nil {
		c.TotalCharged = *u.TotalCharged
	}
	if u.PaymentMethod != nil {
		c.PaymentMethod = *u.PaymentMethod
	}
	if u.LastPaymentDate != nil {
		d := *u.LastPaymentDate
		c.LastPaymentDate = &d
	}
	return c
}
