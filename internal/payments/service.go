package payments

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"ecommerce-api/internal/models"
	"ecommerce-api/internal/repository"
)

// PaymentStore es lo que el servicio necesita de la colección de pagos.
type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByOrder(ctx context.Context, orderID primitive.ObjectID) (*models.Payment, error)
	SetTransaction(ctx context.Context, id primitive.ObjectID, transactionID string, details map[string]string) error
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.PaymentStatus) error
	RecordWebhookEvent(ctx context.Context, event *models.WebhookEvent) (bool, error)
	RemoveWebhookEvent(ctx context.Context, eventID string) error
}

// OrderStore es lo que el servicio necesita de la colección de órdenes.
type OrderStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	MarkPaid(ctx context.Context, id primitive.ObjectID) error
	SetPaymentStatus(ctx context.Context, id primitive.ObjectID, status models.PaymentState) error
	MarkCancelled(ctx context.Context, id primitive.ObjectID, fromPayment, toPayment models.PaymentState) error
}

type Service struct {
	payments PaymentStore
	orders   OrderStore
	// gateways por método de pago; byProvider indexa los mismos
	// gateways por nombre de proveedor para resolver webhooks.
	gateways   map[string]Gateway
	byProvider map[string]Gateway
	logger     *zap.Logger
}

func NewService(payments PaymentStore, orders OrderStore, gateways map[string]Gateway, logger *zap.Logger) *Service {
	byProvider := make(map[string]Gateway, len(gateways))
	for _, gw := range gateways {
		byProvider[gw.Name()] = gw
	}
	return &Service{
		payments:   payments,
		orders:     orders,
		gateways:   gateways,
		byProvider: byProvider,
		logger:     logger,
	}
}

// CreatePayment registra el pago pendiente de la orden y pide al
// gateway los datos de checkout. El índice único sobre order_id hace
// imposible un segundo pago para la misma orden.
func (s *Service) CreatePayment(ctx context.Context, order *models.Order, method string) (*Checkout, error) {
	if method == MethodPayPal {
		return nil, ErrMethodUnavailable
	}
	gw, ok := s.gateways[method]
	if !ok {
		return nil, ErrUnknownMethod
	}

	payment := &models.Payment{
		OrderID:     order.ID,
		Provider:    gw.Name(),
		Method:      method,
		AmountCents: order.TotalCents,
		Currency:    order.Currency,
		Status:      models.PaymentPending,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	checkout, err := gw.CreateCheckout(ctx, order)
	if err != nil {
		// El registro queda como failed; el cliente puede reintentar el
		// checkout de la orden tras resolverlo.
		if terr := s.payments.TransitionStatus(ctx, payment.ID, models.PaymentPending, models.PaymentFailed); terr != nil {
			s.logger.Error("failed to mark payment failed",
				zap.String("payment_id", payment.ID.Hex()), zap.Error(terr))
		}
		return nil, fmt.Errorf("gateway checkout: %w", err)
	}

	if err := s.payments.SetTransaction(ctx, payment.ID, checkout.TransactionID, checkout.Details); err != nil {
		return nil, err
	}

	s.logger.Info("payment created",
		zap.String("order_id", order.ID.Hex()),
		zap.String("provider", gw.Name()),
		zap.String("transaction_id", checkout.TransactionID))

	return checkout, nil
}

// ProcessWebhook aplica la notificación del proveedor exactamente una
// vez: el evento pasa por el libro de webhook_events y los cambios de
// estado son transiciones condicionales, así el replay del mismo
// payload es un no-op. Si el procesamiento falla después de registrar
// el evento, el registro se quita del libro: el reintento del proveedor
// con el mismo event id no debe morir descartado como duplicado.
func (s *Service) ProcessWebhook(ctx context.Context, provider, eventID, transactionID string) error {
	if eventID == "" || transactionID == "" {
		return ErrInvalidWebhook
	}
	gw, ok := s.byProvider[provider]
	if !ok {
		return ErrUnknownMethod
	}

	ledgerKey := provider + ":" + eventID
	fresh, err := s.payments.RecordWebhookEvent(ctx, &models.WebhookEvent{
		EventID:  ledgerKey,
		Provider: provider,
	})
	if err != nil {
		return err
	}
	if !fresh {
		s.logger.Info("duplicate webhook discarded",
			zap.String("provider", provider), zap.String("event_id", eventID))
		return nil
	}

	if err := s.applyNotification(ctx, gw, transactionID); err != nil {
		if derr := s.payments.RemoveWebhookEvent(ctx, ledgerKey); derr != nil {
			s.logger.Error("failed to release webhook event after processing error",
				zap.String("event_id", ledgerKey), zap.Error(derr))
		}
		return err
	}
	return nil
}

func (s *Service) applyNotification(ctx context.Context, gw Gateway, transactionID string) error {
	info, err := gw.FetchPayment(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("fetch provider payment: %w", err)
	}

	orderID, err := primitive.ObjectIDFromHex(info.OrderRef)
	if err != nil {
		return ErrInvalidWebhook
	}
	payment, err := s.payments.FindByOrder(ctx, orderID)
	if err != nil {
		return err
	}

	switch info.Status {
	case StatusApproved:
		return s.applyApproved(ctx, payment, orderID, transactionID)
	case StatusRejected:
		return s.applyRejected(ctx, payment, orderID)
	case StatusRefunded:
		return s.applyRefunded(ctx, payment, orderID)
	default:
		// Sigue pendiente en el proveedor; nada que aplicar.
		return nil
	}
}

func (s *Service) applyApproved(ctx context.Context, payment *models.Payment, orderID primitive.ObjectID, transactionID string) error {
	err := s.payments.TransitionStatus(ctx, payment.ID, models.PaymentPending, models.PaymentCompleted)
	if err != nil && !errors.Is(err, repository.ErrConflict) {
		return err
	}
	if err == nil {
		// Guardar el id de pago real del proveedor (difiere del id de
		// preferencia con que se creó el checkout).
		if serr := s.payments.SetTransaction(ctx, payment.ID, transactionID, payment.Details); serr != nil {
			s.logger.Error("failed to record provider transaction id",
				zap.String("payment_id", payment.ID.Hex()), zap.Error(serr))
		}
	}

	if err := s.orders.MarkPaid(ctx, orderID); err != nil && !errors.Is(err, repository.ErrConflict) {
		return err
	}

	s.logger.Info("payment approved",
		zap.String("order_id", orderID.Hex()),
		zap.String("transaction_id", transactionID))
	return nil
}

func (s *Service) applyRejected(ctx context.Context, payment *models.Payment, orderID primitive.ObjectID) error {
	err := s.payments.TransitionStatus(ctx, payment.ID, models.PaymentPending, models.PaymentFailed)
	if err != nil && !errors.Is(err, repository.ErrConflict) {
		return err
	}
	return s.orders.SetPaymentStatus(ctx, orderID, models.PaymentStateFailed)
}

func (s *Service) applyRefunded(ctx context.Context, payment *models.Payment, orderID primitive.ObjectID) error {
	err := s.payments.TransitionStatus(ctx, payment.ID, models.PaymentCompleted, models.PaymentRefunded)
	if err != nil && !errors.Is(err, repository.ErrConflict) {
		return err
	}
	err = s.orders.MarkCancelled(ctx, orderID, models.PaymentStatePaid, models.PaymentStateRefunded)
	if errors.Is(err, repository.ErrConflict) {
		// La orden ya no está en paid: el reembolso ya se aplicó.
		return nil
	}
	return err
}

// Refund reembolsa el pago de una orden. La transición condicional
// completed→refunded elige un único ganador: solo ese llama al
// proveedor, de modo que un reintento concurrente no puede duplicar el
// reembolso.
func (s *Service) Refund(ctx context.Context, orderID primitive.ObjectID) error {
	payment, err := s.payments.FindByOrder(ctx, orderID)
	if err != nil {
		return err
	}

	err = s.payments.TransitionStatus(ctx, payment.ID, models.PaymentCompleted, models.PaymentRefunded)
	if errors.Is(err, repository.ErrConflict) {
		if payment.Status == models.PaymentRefunded {
			return ErrAlreadyRefunded
		}
		return ErrNotRefundable
	}
	if err != nil {
		return err
	}

	if gw, ok := s.byProvider[payment.Provider]; ok && payment.TransactionID != "" {
		if err := gw.Refund(ctx, payment.TransactionID); err != nil {
			// Revertir para que un reintento posterior pueda volver a
			// intentar el reembolso en el proveedor.
			if rerr := s.payments.TransitionStatus(ctx, payment.ID, models.PaymentRefunded, models.PaymentCompleted); rerr != nil {
				s.logger.Error("failed to revert refund transition",
					zap.String("payment_id", payment.ID.Hex()), zap.Error(rerr))
			}
			return fmt.Errorf("provider refund: %w", err)
		}
	}

	err = s.orders.MarkCancelled(ctx, orderID, models.PaymentStatePaid, models.PaymentStateRefunded)
	if err != nil && !errors.Is(err, repository.ErrConflict) {
		return err
	}

	s.logger.Info("payment refunded", zap.String("order_id", orderID.Hex()))
	return nil
}

// PaymentForOrder expone el pago de una orden para consulta.
func (s *Service) PaymentForOrder(ctx context.Context, orderID primitive.ObjectID) (*models.Payment, error) {
	return s.payments.FindByOrder(ctx, orderID)
}
