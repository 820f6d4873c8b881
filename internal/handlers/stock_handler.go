package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecommerce-api/internal/repository"
	"ecommerce-api/internal/response"
	"ecommerce-api/internal/stock"
)

// StockHandler expone las operaciones administrativas de inventario.
type StockHandler struct {
	service *stock.Service
}

func NewStockHandler(service *stock.Service) *StockHandler {
	return &StockHandler{service: service}
}

func (h *StockHandler) CheckAvailability(c *gin.Context) {
	qty, err := strconv.ParseInt(c.DefaultQuery("quantity", "1"), 10, 64)
	if err != nil || qty <= 0 {
		response.Fail(c, http.StatusBadRequest, "invalid quantity")
		return
	}

	availability, err := h.service.CheckAvailability(c.Request.Context(), c.Param("productId"), qty)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to check availability")
		return
	}

	response.Success(c, http.StatusOK, availability)
}

type adjustStockRequest struct {
	Delta int64 `json:"delta" binding:"required"`
}

func (h *StockHandler) AdjustStock(c *gin.Context) {
	productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid product id")
		return
	}

	var req adjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Adjust(c.Request.Context(), productID, req.Delta); err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			response.Fail(c, http.StatusConflict, "Estoque insuficiente")
			return
		}
		notFoundOr500(c, err, "Produto não encontrado")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "stock adjusted"})
}

func (h *StockHandler) LowStock(c *gin.Context) {
	threshold, err := strconv.ParseInt(c.DefaultQuery("threshold", "5"), 10, 64)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid threshold")
		return
	}

	products, err := h.service.LowStock(c.Request.Context(), threshold)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list low stock")
		return
	}

	response.Success(c, http.StatusOK, products)
}

func (h *StockHandler) Statistics(c *gin.Context) {
	stats, err := h.service.Statistics(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to load statistics")
		return
	}

	response.Success(c, http.StatusOK, stats)
}
