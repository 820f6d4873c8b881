package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecommerce-api/internal/models"
	"ecommerce-api/internal/orders"
	"ecommerce-api/internal/repository"
	"ecommerce-api/internal/response"
)

type OrderHandler struct {
	service *orders.Service
}

func NewOrderHandler(service *orders.Service) *OrderHandler {
	return &OrderHandler{service: service}
}

type createOrderRequest struct {
	Shipping      models.ShippingAddress `json:"shipping_address" binding:"required"`
	PaymentMethod string                 `json:"payment_method" binding:"required"`
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.service.Create(c.Request.Context(), userID, orders.CheckoutRequest{
		Shipping:      req.Shipping,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrEmptyCart):
			response.Fail(c, http.StatusBadRequest, "Carrinho vazio")
		case errors.Is(err, orders.ErrProductUnavailable):
			response.Fail(c, http.StatusConflict, "Produto indisponível")
		case errors.Is(err, repository.ErrInsufficientStock):
			response.Fail(c, http.StatusConflict, "Estoque insuficiente")
		default:
			response.Error(c, http.StatusInternalServerError, "failed to create order")
		}
		return
	}

	response.Success(c, http.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.service.Get(c.Request.Context(), orderID, userID, isAdmin(c))
	if err != nil {
		if errors.Is(err, orders.ErrNotAllowed) {
			response.Fail(c, http.StatusForbidden, "order does not belong to user")
			return
		}
		notFoundOr500(c, err, "Pedido não encontrado")
		return
	}

	response.Success(c, http.StatusOK, order)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	orderList, total, err := h.service.ListForUser(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list orders")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"orders": orderList,
		"total":  total,
		"page":   page,
	})
}

type updateStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// UpdateStatus es solo para admin; valida la máquina de estados de la
// orden.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid order id")
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.UpdateStatus(c.Request.Context(), orderID, req.Status); err != nil {
		switch {
		case errors.Is(err, orders.ErrInvalidTransition), errors.Is(err, repository.ErrConflict):
			response.Fail(c, http.StatusConflict, "invalid status transition")
		default:
			notFoundOr500(c, err, "Pedido não encontrado")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "status updated"})
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid order id")
		return
	}

	if err := h.service.Cancel(c.Request.Context(), orderID, userID, isAdmin(c)); err != nil {
		switch {
		case errors.Is(err, orders.ErrNotAllowed):
			response.Fail(c, http.StatusForbidden, "order does not belong to user")
		case errors.Is(err, orders.ErrInvalidTransition):
			response.Fail(c, http.StatusConflict, "order can no longer be cancelled")
		case errors.Is(err, repository.ErrConflict):
			// La orden cambió entre la lectura y la escritura (p. ej. el
			// webhook la marcó pagada); el cliente reintenta sobre el
			// estado actual.
			response.Fail(c, http.StatusConflict, "order state changed, retry")
		default:
			notFoundOr500(c, err, "Pedido não encontrado")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "order cancelled"})
}
