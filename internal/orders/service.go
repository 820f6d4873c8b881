package orders

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"ecommerce-api/internal/models"
	"ecommerce-api/internal/repository"
	"ecommerce-api/internal/stock"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrNotAllowed         = errors.New("order does not belong to user")
	ErrInvalidTransition  = errors.New("invalid status transition")
)

type CartStore interface {
	FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Cart, error)
	Clear(ctx context.Context, userID primitive.ObjectID) error
}

type ProductStore interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
}

type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID, page, pageSize int) ([]*models.Order, int64, error)
	UpdateStatusIf(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) error
	MarkCancelled(ctx context.Context, id primitive.ObjectID, fromPayment, toPayment models.PaymentState) error
}

type UserStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Reserver es el servicio de stock visto desde el checkout.
type Reserver interface {
	ReserveAll(ctx context.Context, items []stock.Item) error
	ReleaseAll(ctx context.Context, items []stock.Item) error
}

// Refunder es el servicio de pagos visto desde la cancelación.
type Refunder interface {
	Refund(ctx context.Context, orderID primitive.ObjectID) error
}

type Mailer interface {
	SendOrderConfirmation(to string, order *models.Order) error
}

// Service orquesta el checkout. Todas las dependencias entran por el
// constructor; no hay singletons de proceso.
type Service struct {
	orders   OrderStore
	carts    CartStore
	products ProductStore
	users    UserStore
	stock    Reserver
	refunder Refunder
	mailer   Mailer
	logger   *zap.Logger
}

func NewService(orders OrderStore, carts CartStore, products ProductStore, users UserStore, reserver Reserver, refunder Refunder, mailer Mailer, logger *zap.Logger) *Service {
	return &Service{
		orders:   orders,
		carts:    carts,
		products: products,
		users:    users,
		stock:    reserver,
		refunder: refunder,
		mailer:   mailer,
		logger:   logger,
	}
}

type CheckoutRequest struct {
	Shipping      models.ShippingAddress
	PaymentMethod string
}

// Create ejecuta el checkout como una saga con compensaciones
// definidas:
//
//  1. carga y valida el carrito,
//  2. reserva el stock (todo o nada; el rollback vive en ReserveAll),
//  3. inserta la orden con precios congelados — si el insert falla, la
//     compensación libera todo lo reservado,
//  4. vacía el carrito (fallo se registra, no aborta),
//  5. dispara el mail de confirmación sin bloquear la respuesta.
func (s *Service) Create(ctx context.Context, userID primitive.ObjectID, req CheckoutRequest) (*models.Order, error) {
	cart, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	orderItems := make([]models.OrderItem, 0, len(cart.Items))
	reservations := make([]stock.Item, 0, len(cart.Items))
	currency := "BRL"
	var totalCents int64

	for _, item := range cart.Items {
		product, err := s.products.FindByID(ctx, item.ProductID.Hex())
		if err != nil {
			return nil, ErrProductUnavailable
		}
		if !product.IsActive {
			return nil, ErrProductUnavailable
		}

		unitPrice := product.UnitPriceCents()
		orderItems = append(orderItems, models.OrderItem{
			ProductID:      product.ID,
			Name:           product.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: unitPrice,
		})
		reservations = append(reservations, stock.Item{
			ProductID: product.ID,
			Quantity:  item.Quantity,
		})
		totalCents += unitPrice * item.Quantity
		currency = product.Currency
	}

	if err := s.stock.ReserveAll(ctx, reservations); err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:        userID,
		Items:         orderItems,
		TotalCents:    totalCents,
		Currency:      currency,
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentStatePending,
		PaymentMethod: req.PaymentMethod,
		Shipping:      req.Shipping,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		// Compensación: sin orden no puede quedar stock descontado.
		if rerr := s.stock.ReleaseAll(ctx, reservations); rerr != nil {
			s.logger.Error("compensation release failed after order insert error",
				zap.String("user_id", userID.Hex()), zap.Error(rerr))
		}
		return nil, err
	}

	if err := s.carts.Clear(ctx, userID); err != nil {
		s.logger.Error("failed to clear cart after checkout",
			zap.String("order_id", order.ID.Hex()), zap.Error(err))
	}

	s.sendConfirmation(order)

	s.logger.Info("order created",
		zap.String("order_id", order.ID.Hex()),
		zap.String("user_id", userID.Hex()),
		zap.Int64("total_cents", order.TotalCents))

	return order, nil
}

// sendConfirmation no bloquea la respuesta del checkout: la latencia o
// caída del SMTP no afecta al cliente.
func (s *Service) sendConfirmation(order *models.Order) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		user, err := s.users.FindByID(ctx, order.UserID)
		if err != nil {
			s.logger.Error("confirmation mail: user lookup failed",
				zap.String("order_id", order.ID.Hex()), zap.Error(err))
			return
		}
		if err := s.mailer.SendOrderConfirmation(user.Email, order); err != nil {
			s.logger.Error("confirmation mail failed",
				zap.String("order_id", order.ID.Hex()), zap.Error(err))
		}
	}()
}

func (s *Service) Get(ctx context.Context, orderID, userID primitive.ObjectID, isAdmin bool) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && order.UserID != userID {
		return nil, ErrNotAllowed
	}
	return order, nil
}

func (s *Service) ListForUser(ctx context.Context, userID primitive.ObjectID, page, pageSize int) ([]*models.Order, int64, error) {
	return s.orders.FindByUser(ctx, userID, page, pageSize)
}

// UpdateStatus aplica una transición del ciclo de la orden validando la
// máquina de estados y condicionando el update al estado actual.
func (s *Service) UpdateStatus(ctx context.Context, orderID primitive.ObjectID, next models.OrderStatus) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.Status.CanTransition(next) {
		return ErrInvalidTransition
	}
	return s.orders.UpdateStatusIf(ctx, orderID, order.Status, next)
}

// Cancel cancela la orden del usuario: reembolsa si estaba pagada y
// devuelve el stock reservado.
func (s *Service) Cancel(ctx context.Context, orderID, userID primitive.ObjectID, isAdmin bool) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !isAdmin && order.UserID != userID {
		return ErrNotAllowed
	}
	if !order.Status.CanTransition(models.OrderCancelled) {
		return ErrInvalidTransition
	}

	if order.PaymentStatus == models.PaymentStatePaid {
		// Refund deja la orden cancelada con payment_status=refunded.
		if err := s.refunder.Refund(ctx, orderID); err != nil {
			return err
		}
	} else {
		// Escritura condicionada al estado leído: si un webhook marcó la
		// orden pagada en el medio (o otra cancelación ganó), ErrConflict
		// corta acá sin tocar el stock y el llamador reintenta sobre el
		// estado real.
		if err := s.orders.MarkCancelled(ctx, orderID, order.PaymentStatus, order.PaymentStatus); err != nil {
			return err
		}
	}

	releases := make([]stock.Item, 0, len(order.Items))
	for _, item := range order.Items {
		releases = append(releases, stock.Item{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	if err := s.stock.ReleaseAll(ctx, releases); err != nil {
		s.logger.Error("failed to release stock on cancellation",
			zap.String("order_id", orderID.Hex()), zap.Error(err))
	}

	s.logger.Info("order cancelled", zap.String("order_id", orderID.Hex()))
	return nil
}
