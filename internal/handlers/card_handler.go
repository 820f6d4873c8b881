package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecommerce-api/internal/models"
	"ecommerce-api/internal/repository"
	"ecommerce-api/internal/response"
)

type CardHandler struct {
	cards *repository.CardRepository
}

func NewCardHandler(cards *repository.CardRepository) *CardHandler {
	return &CardHandler{cards: cards}
}

func (h *CardHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var card models.PaymentCard
	if err := c.ShouldBindJSON(&card); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	card.UserID = userID

	if err := h.cards.Create(c.Request.Context(), &card); err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to save card")
		return
	}

	response.Success(c, http.StatusCreated, card)
}

func (h *CardHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	cards, err := h.cards.FindByUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to list cards")
		return
	}

	response.Success(c, http.StatusOK, cards)
}

func (h *CardHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	cardID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid card id")
		return
	}

	if err := h.cards.Delete(c.Request.Context(), cardID, userID); err != nil {
		notFoundOr500(c, err, "Cartão não encontrado")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "card deleted"})
}
