package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecommerce-api/internal/repository"
	"ecommerce-api/internal/response"
	"ecommerce-api/internal/stock"
)

type CartHandler struct {
	carts    *repository.CartRepository
	products *repository.ProductRepository
	stock    *stock.Service
}

func NewCartHandler(carts *repository.CartRepository, products *repository.ProductRepository, stockSvc *stock.Service) *CartHandler {
	return &CartHandler{carts: carts, products: products, stock: stockSvc}
}

// GetCart devuelve el carrito con los productos poblados y subtotales.
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	cart, err := h.carts.FindByUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrCartNotFound) {
			// Todavía sin carrito: se comporta como carrito vacío.
			response.Success(c, http.StatusOK, gin.H{"items": []gin.H{}, "total_cents": 0})
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to load cart")
		return
	}

	var totalCents int64
	items := make([]gin.H, 0, len(cart.Items))
	for _, item := range cart.Items {
		product, err := h.products.FindByID(c.Request.Context(), item.ProductID.Hex())
		if err != nil {
			// Producto borrado del catálogo: se muestra solo el id.
			items = append(items, gin.H{"product_id": item.ProductID.Hex(), "quantity": item.Quantity})
			continue
		}
		subtotal := product.UnitPriceCents() * item.Quantity
		totalCents += subtotal
		items = append(items, gin.H{
			"product_id":       product.ID.Hex(),
			"name":             product.Name,
			"unit_price_cents": product.UnitPriceCents(),
			"quantity":         item.Quantity,
			"subtotal_cents":   subtotal,
		})
	}

	response.Success(c, http.StatusOK, gin.H{"items": items, "total_cents": totalCents})
}

type addItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,gt=0"`
}

func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid product id")
		return
	}

	// La disponibilidad acá es informativa; la reserva real ocurre en
	// el checkout.
	availability, err := h.stock.CheckAvailability(c.Request.Context(), req.ProductID, req.Quantity)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to check availability")
		return
	}
	if !availability.Available {
		response.Fail(c, http.StatusConflict, availability.Message)
		return
	}

	if err := h.carts.AddItem(c.Request.Context(), userID, productID, req.Quantity); err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to add item")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "item added"})
}

type updateItemRequest struct {
	Quantity int64 `json:"quantity" binding:"required,gt=0"`
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid product id")
		return
	}

	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.carts.UpdateItemQuantity(c.Request.Context(), userID, productID, req.Quantity); err != nil {
		notFoundOr500(c, err, "item not in cart")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "item updated"})
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.carts.RemoveItem(c.Request.Context(), userID, productID); err != nil {
		notFoundOr500(c, err, "cart not found")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "item removed"})
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.carts.Clear(c.Request.Context(), userID); err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to clear cart")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "cart cleared"})
}
