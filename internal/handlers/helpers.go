package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ecommerce-api/internal/middleware"
	"ecommerce-api/internal/models"
	"ecommerce-api/internal/repository"
	"ecommerce-api/internal/response"
)

// currentUserID lee el id que dejó el middleware de auth. El middleware
// ya validó el formato.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	raw := c.GetString(middleware.ContextUserID)
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, "invalid session")
		return primitive.NilObjectID, false
	}
	return id, true
}

func isAdmin(c *gin.Context) bool {
	role, _ := c.Get(middleware.ContextRole)
	return role == models.RoleAdmin
}

// notFoundOr500 mapea los sentinel errors de repositorio a 404/400 y el
// resto a 500 sin filtrar detalle al cliente.
func notFoundOr500(c *gin.Context, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, repository.ErrInvalidID):
		response.Fail(c, http.StatusBadRequest, "invalid id")
	case errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrCategoryNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrCartNotFound),
		errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrPaymentNotFound),
		errors.Is(err, repository.ErrReviewNotFound),
		errors.Is(err, repository.ErrCardNotFound),
		errors.Is(err, repository.ErrResetNotFound):
		response.Fail(c, http.StatusNotFound, notFoundMsg)
	default:
		response.Error(c, http.StatusInternalServerError, "internal error")
	}
}
