package domain

import (
	"time"
)

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// IncomePaymentMethod is how a client pays: Stripe, bank transfer or cash.
type IncomePaymentMethod string

const (
	PayStripe        IncomePaymentMethod = "stripe"
	PayTransferencia IncomePaymentMethod = "transferencia"
	PayEfectivo      IncomePaymentMethod = "efectivo"
)

// CategoryClientPayment tags income transactions generated by the
// reconciliation engine. Apart from this tag and the client link they are
// indistinguishable from user-entered income.
const CategoryClientPayment = "client_payment"

// Transaction represents one ledger entry, either entered by the user or
// synthesized by the reconciliation engine.
type Transaction struct {
	ID          string          `json:"id"`
	Date        time.Time       `json:"date"`
	Type        TransactionType `json:"type"`
	Amount      float64         `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`

	// PaymentMethodID links expenses to one of the user's own payment
	// methods; IncomePaymentMethod records how a client paid income.
	PaymentMethodID     string              `json:"payment_method_id,omitempty"`
	IncomePaymentMethod IncomePaymentMethod `json:"income_payment_method,omitempty"`

	// ClientID links income back to the client it was charged to.
	ClientID string `json:"client_id,omitempty"`

	// ExternalRef is a deterministic dedup key for engine-generated
	// transactions ("backfill:<clientID>:<stamp>"). Empty for user entries.
	ExternalRef string `json:"external_ref,omitempty"`
}

// IsIncomeFor reports whether t is an income transaction linked to clientID.
func (t *Transaction) IsIncomeFor(clientID string) bool {
	return t.Type == TypeIncome && t.ClientID == clientID
}

// SumIncomeFor totals the income transactions linked to the given client.
func SumIncomeFor(transactions []*Transaction, clientID string) float64 {
	var sum float64
	for _, t := range transactions {
		if t.IsIncomeFor(clientID) {
			sum += t.Amount
		}
	}
	return sum
}
