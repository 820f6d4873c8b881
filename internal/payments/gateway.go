package payments

import (
	"context"
	"errors"

	"ecommerce-api/internal/models"
)

// Nombres de método de pago aceptados en el checkout.
const (
	MethodMercadoPago = "mercadopago"
	MethodPix         = "pix"
	MethodBoleto      = "boleto"
	MethodCreditCard  = "credit_card"
	MethodPayPal      = "paypal"
)

var (
	ErrUnknownMethod = errors.New("unknown payment method")

	// ErrMethodUnavailable: el método existe pero está deshabilitado
	// (PayPal).
	ErrMethodUnavailable = errors.New("payment method unavailable")

	ErrNotRefundable    = errors.New("payment is not refundable")
	ErrAlreadyRefunded  = errors.New("payment already refunded")
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidWebhook   = errors.New("invalid webhook payload")
)

// ProviderStatus es el estado normalizado que reporta un proveedor.
type ProviderStatus string

const (
	StatusApproved ProviderStatus = "approved"
	StatusPending  ProviderStatus = "pending"
	StatusRejected ProviderStatus = "rejected"
	StatusRefunded ProviderStatus = "refunded"
)

// Checkout es lo que el cliente necesita para completar el pago:
// URL de checkout hospedado, código PIX, línea digitable, según el
// método.
type Checkout struct {
	Provider      string            `json:"provider"`
	TransactionID string            `json:"transaction_id"`
	CheckoutURL   string            `json:"checkout_url,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

// PaymentInfo es el resultado de consultar un pago en el proveedor.
type PaymentInfo struct {
	Status ProviderStatus
	// OrderRef es nuestro external_reference: el hex de la orden.
	OrderRef string
}

// Gateway unifica los caminos por proveedor que el checkout ramifica.
type Gateway interface {
	Name() string
	CreateCheckout(ctx context.Context, order *models.Order) (*Checkout, error)
	FetchPayment(ctx context.Context, transactionID string) (*PaymentInfo, error)
	Refund(ctx context.Context, transactionID string) error
}
