package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecommerce-api/internal/repository"
	"ecommerce-api/internal/response"
)

type WishlistHandler struct {
	users    *repository.UserRepository
	products *repository.ProductRepository
}

func NewWishlistHandler(users *repository.UserRepository, products *repository.ProductRepository) *WishlistHandler {
	return &WishlistHandler{users: users, products: products}
}

func (h *WishlistHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.users.FindByID(c.Request.Context(), userID)
	if err != nil {
		notFoundOr500(c, err, "user not found")
		return
	}

	items := make([]gin.H, 0, len(user.Wishlist))
	for _, productID := range user.Wishlist {
		product, err := h.products.FindByID(c.Request.Context(), productID.Hex())
		if err != nil {
			continue
		}
		items = append(items, gin.H{
			"product_id":       product.ID.Hex(),
			"name":             product.Name,
			"unit_price_cents": product.UnitPriceCents(),
			"in_stock":         product.Stock > 0,
		})
	}

	response.Success(c, http.StatusOK, items)
}

func (h *WishlistHandler) Add(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid product id")
		return
	}

	// Validar que el producto exista antes de agregarlo.
	if _, err := h.products.FindByID(c.Request.Context(), productID.Hex()); err != nil {
		notFoundOr500(c, err, "Produto não encontrado")
		return
	}

	if err := h.users.AddToWishlist(c.Request.Context(), userID, productID); err != nil {
		notFoundOr500(c, err, "user not found")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "added to wishlist"})
}

func (h *WishlistHandler) Remove(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.users.RemoveFromWishlist(c.Request.Context(), userID, productID); err != nil {
		notFoundOr500(c, err, "user not found")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "removed from wishlist"})
}
