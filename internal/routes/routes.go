package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecommerce-api/internal/auth"
	"ecommerce-api/internal/handlers"
	"ecommerce-api/internal/middleware"
)

// Handlers agrupa todo lo que el router necesita registrar.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Products *handlers.ProductHandler
	Category *handlers.CategoryHandler
	Cart     *handlers.CartHandler
	Orders   *handlers.OrderHandler
	Payments *handlers.PaymentHandler
	Reviews  *handlers.ReviewHandler
	Wishlist *handlers.WishlistHandler
	Cards    *handlers.CardHandler
	Stock    *handlers.StockHandler
}

// Register monta la superficie HTTP completa bajo /api. Las rutas de
// webhooks no llevan autenticación: el proveedor firma la notificación
// y el handler valida esa firma. El webhook simulado no tiene firma,
// por eso solo existe con devWebhooks activo.
func Register(router *gin.Engine, h Handlers, tokens *auth.TokenIssuer, devWebhooks bool) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	// Rutas públicas.
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/password-reset", h.Auth.RequestPasswordReset)
	api.POST("/auth/password-reset/confirm", h.Auth.ConfirmPasswordReset)

	api.GET("/products", h.Products.ListProducts)
	api.GET("/products/:id", h.Products.GetProduct)
	api.GET("/categories", h.Category.ListCategories)
	api.GET("/categories/:id", h.Category.GetCategory)
	api.GET("/reviews/product/:productId", h.Reviews.ListByProduct)
	api.GET("/stock/:productId/availability", h.Stock.CheckAvailability)

	api.POST("/payments/webhook/mercadopago", h.Payments.MercadoPagoWebhook)
	api.POST("/payments/webhook/paypal", h.Payments.PayPalWebhook)
	if devWebhooks {
		api.POST("/payments/webhook/simulated", h.Payments.SimulatedWebhook)
	}

	// Rutas con sesión.
	authed := api.Group("")
	authed.Use(middleware.Auth(tokens))
	{
		authed.GET("/cart", h.Cart.GetCart)
		authed.POST("/cart/items", h.Cart.AddItem)
		authed.PUT("/cart/items/:productId", h.Cart.UpdateItem)
		authed.DELETE("/cart/items/:productId", h.Cart.RemoveItem)
		authed.DELETE("/cart", h.Cart.ClearCart)

		authed.POST("/orders", h.Orders.CreateOrder)
		authed.GET("/orders", h.Orders.ListOrders)
		authed.GET("/orders/:id", h.Orders.GetOrder)
		authed.POST("/orders/:id/cancel", h.Orders.CancelOrder)

		authed.POST("/payments/checkout", h.Payments.Checkout)
		authed.GET("/payments/order/:orderId", h.Payments.GetPayment)

		authed.POST("/reviews", h.Reviews.CreateReview)
		authed.DELETE("/reviews/:id", h.Reviews.DeleteReview)

		authed.GET("/wishlist", h.Wishlist.List)
		authed.POST("/wishlist/:productId", h.Wishlist.Add)
		authed.DELETE("/wishlist/:productId", h.Wishlist.Remove)

		authed.GET("/cards", h.Cards.List)
		authed.POST("/cards", h.Cards.Create)
		authed.DELETE("/cards/:id", h.Cards.Delete)
	}

	// Rutas administrativas.
	admin := api.Group("/admin")
	admin.Use(middleware.Auth(tokens), middleware.RequireAdmin())
	{
		admin.POST("/products", h.Products.CreateProduct)
		admin.PATCH("/products/:id", h.Products.UpdateProduct)
		admin.DELETE("/products/:id", h.Products.DeleteProduct)

		admin.POST("/categories", h.Category.CreateCategory)
		admin.PATCH("/categories/:id", h.Category.UpdateCategory)
		admin.DELETE("/categories/:id", h.Category.DeleteCategory)

		admin.PATCH("/orders/:id/status", h.Orders.UpdateStatus)
		admin.POST("/payments/:orderId/refund", h.Payments.Refund)

		admin.PATCH("/stock/:productId", h.Stock.AdjustStock)
		admin.GET("/stock/low", h.Stock.LowStock)
		admin.GET("/stock/statistics", h.Stock.Statistics)
	}
}
