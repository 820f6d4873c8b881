package payments

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ecommerce-api/internal/models"
)

// Simulated cubre PIX, boleto y tarjeta en desarrollo: genera códigos
// plausibles y resuelve los pagos en memoria sin llamar a ningún
// proveedor.
type Simulated struct {
	method string

	mu       sync.Mutex
	statuses map[string]simulatedPayment
}

type simulatedPayment struct {
	status   ProviderStatus
	orderRef string
}

func NewSimulated(method string) *Simulated {
	return &Simulated{
		method:   method,
		statuses: make(map[string]simulatedPayment),
	}
}

func (s *Simulated) Name() string { return "simulated_" + s.method }

func (s *Simulated) CreateCheckout(ctx context.Context, order *models.Order) (*Checkout, error) {
	transactionID := uuid.New().String()
	details := map[string]string{}
	checkoutURL := ""

	// La tarjeta simulada aprueba al instante; PIX y boleto quedan
	// pendientes hasta que el webhook simulado los resuelva.
	status := StatusPending

	switch s.method {
	case MethodMercadoPago:
		// Reemplaza al checkout hospedado cuando no hay credenciales.
		checkoutURL = "http://localhost:8080/simulated-checkout/" + transactionID
	case MethodPix:
		details["pix_code"] = fmt.Sprintf("00020126-%s-%d", strings.ReplaceAll(transactionID, "-", ""), order.TotalCents)
		details["expires_at"] = time.Now().Add(30 * time.Minute).Format(time.RFC3339)
	case MethodBoleto:
		details["digitable_line"] = fmt.Sprintf("23793.38128 60007.827136 95000.063305 9 %d", order.TotalCents)
		details["due_date"] = time.Now().AddDate(0, 0, 3).Format("2006-01-02")
	case MethodCreditCard:
		status = StatusApproved
	default:
		return nil, ErrUnknownMethod
	}

	s.mu.Lock()
	s.statuses[transactionID] = simulatedPayment{status: status, orderRef: order.ID.Hex()}
	s.mu.Unlock()

	return &Checkout{
		Provider:      s.Name(),
		TransactionID: transactionID,
		CheckoutURL:   checkoutURL,
		Details:       details,
	}, nil
}

func (s *Simulated) FetchPayment(ctx context.Context, transactionID string) (*PaymentInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.statuses[transactionID]
	if !ok {
		return nil, fmt.Errorf("simulated payment %s not found", transactionID)
	}
	return &PaymentInfo{Status: p.status, OrderRef: p.orderRef}, nil
}

func (s *Simulated) Refund(ctx context.Context, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.statuses[transactionID]
	if !ok {
		return fmt.Errorf("simulated payment %s not found", transactionID)
	}
	p.status = StatusRefunded
	s.statuses[transactionID] = p
	return nil
}

// Approve marca un pago simulado como aprobado; lo usa el webhook de
// desarrollo.
func (s *Simulated) Approve(transactionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.statuses[transactionID]
	if !ok {
		return false
	}
	p.status = StatusApproved
	s.statuses[transactionID] = p
	return true
}
