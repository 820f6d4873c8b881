package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecommerce-api/internal/models"
	"ecommerce-api/internal/repository"
	"ecommerce-api/internal/response"
)

type ReviewHandler struct {
	reviews *repository.ReviewRepository
	orders  *repository.OrderRepository
}

func NewReviewHandler(reviews *repository.ReviewRepository, orders *repository.OrderRepository) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, orders: orders}
}

type createReviewRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Rating    int    `json:"rating" binding:"required,gte=1,lte=5"`
	Comment   string `json:"comment"`
}

// CreateReview exige una orden pagada con el producto; el índice único
// (user_id, product_id) rechaza la segunda reseña aunque dos requests
// lleguen a la vez.
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	productID, err := primitive.ObjectIDFromHex(req.ProductID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid product id")
		return
	}

	hasPaid, err := h.orders.HasPaidOrderWithProduct(c.Request.Context(), userID, productID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to verify purchase")
		return
	}
	if !hasPaid {
		response.Fail(c, http.StatusForbidden, "Avaliação disponível apenas após a compra")
		return
	}

	review := &models.Review{
		UserID:    userID,
		ProductID: productID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := h.reviews.Create(c.Request.Context(), review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			response.Fail(c, http.StatusConflict, "product already reviewed")
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to create review")
		return
	}

	response.Success(c, http.StatusCreated, review)
}

func (h *ReviewHandler) ListByProduct(c *gin.Context) {
	productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid product id")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	reviews, total, err := h.reviews.FindByProduct(c.Request.Context(), productID, page, pageSize)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list reviews")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"reviews": reviews,
		"total":   total,
		"page":    page,
	})
}

func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	reviewID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid review id")
		return
	}

	if err := h.reviews.Delete(c.Request.Context(), reviewID, userID); err != nil {
		notFoundOr500(c, err, "Avaliação não encontrada")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "review deleted"})
}
