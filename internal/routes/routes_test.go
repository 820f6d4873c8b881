package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"ecommerce-api/internal/auth"
	"ecommerce-api/internal/handlers"
	"ecommerce-api/internal/payments"
)

func newTestRouter(devWebhooks bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	h := Handlers{
		Auth:     &handlers.AuthHandler{},
		Products: &handlers.ProductHandler{},
		Category: &handlers.CategoryHandler{},
		Cart:     &handlers.CartHandler{},
		Orders:   &handlers.OrderHandler{},
		Payments: handlers.NewPaymentHandler(nil, nil, "", map[string]*payments.Simulated{}),
		Reviews:  &handlers.ReviewHandler{},
		Wishlist: &handlers.WishlistHandler{},
		Cards:    &handlers.CardHandler{},
		Stock:    &handlers.StockHandler{},
	}
	Register(router, h, tokens, devWebhooks)
	return router
}

func TestSimulatedWebhookOnlyExistsInDevMode(t *testing.T) {
	body := `{"provider":"pix-simulado","transaction_id":"txn-1","event_id":"evt-1"}`

	t.Run("producción", func(t *testing.T) {
		router := newTestRouter(false)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook/simulated", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		router.ServeHTTP(rec, req)

		// Sin modo desarrollo la ruta ni siquiera está registrada.
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("desarrollo", func(t *testing.T) {
		router := newTestRouter(true)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook/simulated", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		router.ServeHTTP(rec, req)

		// La ruta existe; el provider desconocido se rechaza en el handler.
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
