package domain

// PaymentMethodType classifies the user's own payment methods (how the user
// pays expenses). Distinct from IncomePaymentMethod, which is how clients pay.
type PaymentMethodType string

const (
	MethodEfectivo PaymentMethodType = "efectivo"
	MethodTarjeta  PaymentMethodType = "tarjeta"
	MethodBanco    PaymentMethodType = "banco"
	MethodDigital  PaymentMethodType = "digital"
)

// PaymentMethod is one of the user's payment instruments, referenced by
// expense transactions.
type PaymentMethod struct {
	ID   string            `json:"id"`
	Name string            `json:"name"`
	Type PaymentMethodType `json:"type"`
}
