package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecommerce-api/internal/orders"
	"ecommerce-api/internal/payments"
	"ecommerce-api/internal/repository"
	"ecommerce-api/internal/response"
)

type PaymentHandler struct {
	service       *payments.Service
	orders        *orders.Service
	webhookSecret string
	simulated     map[string]*payments.Simulated
}

func NewPaymentHandler(service *payments.Service, orderSvc *orders.Service, webhookSecret string, simulated map[string]*payments.Simulated) *PaymentHandler {
	return &PaymentHandler{
		service:       service,
		orders:        orderSvc,
		webhookSecret: webhookSecret,
		simulated:     simulated,
	}
}

type checkoutRequest struct {
	OrderID string `json:"order_id" binding:"required"`
	Method  string `json:"method" binding:"required"`
}

// Checkout crea el pago de una orden del usuario y devuelve los datos
// para completarlo (URL hospedada, código PIX, línea digitable).
func (h *PaymentHandler) Checkout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	orderID, err := primitive.ObjectIDFromHex(req.OrderID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.orders.Get(c.Request.Context(), orderID, userID, isAdmin(c))
	if err != nil {
		if errors.Is(err, orders.ErrNotAllowed) {
			response.Fail(c, http.StatusForbidden, "order does not belong to user")
			return
		}
		notFoundOr500(c, err, "Pedido não encontrado")
		return
	}

	checkout, err := h.service.CreatePayment(c.Request.Context(), order, req.Method)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrMethodUnavailable):
			response.Fail(c, http.StatusNotImplemented, "payment method unavailable")
		case errors.Is(err, payments.ErrUnknownMethod):
			response.Fail(c, http.StatusBadRequest, "unknown payment method")
		case errors.Is(err, repository.ErrDuplicate):
			response.Fail(c, http.StatusConflict, "order already has a payment")
		default:
			response.Error(c, http.StatusInternalServerError, "failed to create payment")
		}
		return
	}

	response.Success(c, http.StatusCreated, checkout)
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid order id")
		return
	}

	// La autorización pasa por la orden: si no es del usuario, tampoco
	// lo es su pago.
	if _, err := h.orders.Get(c.Request.Context(), orderID, userID, isAdmin(c)); err != nil {
		if errors.Is(err, orders.ErrNotAllowed) {
			response.Fail(c, http.StatusForbidden, "order does not belong to user")
			return
		}
		notFoundOr500(c, err, "Pedido não encontrado")
		return
	}

	payment, err := h.service.PaymentForOrder(c.Request.Context(), orderID)
	if err != nil {
		notFoundOr500(c, err, "Pagamento não encontrado")
		return
	}

	response.Success(c, http.StatusOK, payment)
}

// Refund es solo para admin.
func (h *PaymentHandler) Refund(c *gin.Context) {
	orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid order id")
		return
	}

	if err := h.service.Refund(c.Request.Context(), orderID); err != nil {
		switch {
		case errors.Is(err, payments.ErrAlreadyRefunded):
			response.Fail(c, http.StatusConflict, "payment already refunded")
		case errors.Is(err, payments.ErrNotRefundable):
			response.Fail(c, http.StatusConflict, "payment is not refundable")
		default:
			notFoundOr500(c, err, "Pagamento não encontrado")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "payment refunded"})
}

type mercadoPagoNotification struct {
	ID     int64  `json:"id"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

// MercadoPagoWebhook verifica la firma HMAC del header x-signature
// antes de procesar; sin firma válida la notificación se descarta con
// 401.
func (h *PaymentHandler) MercadoPagoWebhook(c *gin.Context) {
	var notification mercadoPagoNotification
	if err := c.ShouldBindJSON(&notification); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload")
		return
	}

	dataID := notification.Data.ID
	if dataID == "" {
		dataID = c.Query("data.id")
	}
	requestID := c.GetHeader("x-request-id")

	if err := payments.VerifyWebhookSignature(h.webhookSecret, c.GetHeader("x-signature"), dataID, requestID); err != nil {
		response.Fail(c, http.StatusUnauthorized, "invalid signature")
		return
	}

	eventID := requestID
	if eventID == "" {
		eventID = dataID + ":" + notification.Action
	}

	if err := h.service.ProcessWebhook(c.Request.Context(), "mercadopago", eventID, dataID); err != nil {
		if errors.Is(err, payments.ErrInvalidWebhook) {
			response.Fail(c, http.StatusBadRequest, "invalid webhook")
			return
		}
		// El proveedor reintenta ante 5xx.
		response.Error(c, http.StatusInternalServerError, "failed to process webhook")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "processed"})
}

// PayPalWebhook existe en la superficie pero el método está
// deshabilitado.
func (h *PaymentHandler) PayPalWebhook(c *gin.Context) {
	response.Fail(c, http.StatusNotImplemented, "paypal is not enabled")
}

type simulatedWebhookRequest struct {
	Provider      string `json:"provider" binding:"required"`
	TransactionID string `json:"transaction_id" binding:"required"`
	EventID       string `json:"event_id" binding:"required"`
	Approve       bool   `json:"approve"`
}

// SimulatedWebhook resuelve pagos PIX/boleto/tarjeta en desarrollo.
func (h *PaymentHandler) SimulatedWebhook(c *gin.Context) {
	var req simulatedWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	gw, ok := h.simulated[req.Provider]
	if !ok {
		response.Fail(c, http.StatusBadRequest, "unknown simulated provider")
		return
	}
	if req.Approve && !gw.Approve(req.TransactionID) {
		response.Fail(c, http.StatusNotFound, "transaction not found")
		return
	}

	if err := h.service.ProcessWebhook(c.Request.Context(), req.Provider, req.EventID, req.TransactionID); err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to process webhook")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "processed"})
}
