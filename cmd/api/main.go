package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ecommerce-api/internal/auth"
	"ecommerce-api/internal/cache"
	"ecommerce-api/internal/config"
	"ecommerce-api/internal/database"
	"ecommerce-api/internal/handlers"
	"ecommerce-api/internal/mailer"
	"ecommerce-api/internal/middleware"
	"ecommerce-api/internal/orders"
	"ecommerce-api/internal/payments"
	"ecommerce-api/internal/repository"
	"ecommerce-api/internal/routes"
	"ecommerce-api/internal/stock"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger := newLogger(cfg.LogLevel)
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	client, err := database.Connect(ctx, cfg.MongoURI)
	cancel()
	if err != nil {
		logger.Fatal("failed to connect to mongodb", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			logger.Error("failed to disconnect from mongodb", zap.Error(err))
		}
	}()

	db := client.Database(cfg.MongoDB)
	ctx, cancel = context.WithTimeout(context.Background(), 15*time.Second)
	err = database.EnsureIndexes(ctx, db)
	cancel()
	if err != nil {
		logger.Fatal("failed to create indexes", zap.Error(err))
	}

	// Repositorios.
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	userRepo := repository.NewUserRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	cardRepo := repository.NewCardRepository(db)

	appCache := cache.New(5 * time.Minute)
	defer appCache.Close()

	smtp := mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiresIn)

	// Servicios.
	stockSvc := stock.NewService(productRepo, logger)
	authSvc := auth.NewService(userRepo, tokens, smtp, logger)

	gateways := make(map[string]payments.Gateway)
	simulated := make(map[string]*payments.Simulated)

	if cfg.MercadoPagoToken != "" {
		gateways[payments.MethodMercadoPago] = payments.NewMercadoPago(
			cfg.MercadoPagoBaseURL, cfg.MercadoPagoToken,
			cfg.CheckoutSuccessURL, cfg.CheckoutFailureURL,
		)
	}
	// Los gateways simulados existen solo en modo desarrollo: su webhook
	// no lleva firma y el pagador conoce el transaction_id.
	if cfg.PaymentsDevMode {
		for _, method := range []string{payments.MethodPix, payments.MethodBoleto, payments.MethodCreditCard} {
			sim := payments.NewSimulated(method)
			gateways[method] = sim
			simulated[sim.Name()] = sim
		}
		if _, ok := gateways[payments.MethodMercadoPago]; !ok {
			// Sin credenciales, el checkout hospedado también se simula.
			sim := payments.NewSimulated(payments.MethodMercadoPago)
			gateways[payments.MethodMercadoPago] = sim
			simulated[sim.Name()] = sim
		}
	}

	paymentSvc := payments.NewService(paymentRepo, orderRepo, gateways, logger)
	orderSvc := orders.NewService(orderRepo, cartRepo, productRepo, userRepo, stockSvc, paymentSvc, smtp, logger)

	// HTTP.
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		cors.New(cors.Config{
			AllowOrigins:     []string{cfg.CORSOrigin},
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			AllowCredentials: cfg.CORSOrigin != "*",
			MaxAge:           12 * time.Hour,
		}),
	)

	routes.Register(router, routes.Handlers{
		Auth:     handlers.NewAuthHandler(authSvc),
		Products: handlers.NewProductHandler(productRepo, appCache),
		Category: handlers.NewCategoryHandler(categoryRepo, appCache),
		Cart:     handlers.NewCartHandler(cartRepo, productRepo, stockSvc),
		Orders:   handlers.NewOrderHandler(orderSvc),
		Payments: handlers.NewPaymentHandler(paymentSvc, orderSvc, cfg.MercadoPagoWebhookSecret, simulated),
		Reviews:  handlers.NewReviewHandler(reviewRepo, orderRepo),
		Wishlist: handlers.NewWishlistHandler(userRepo, productRepo),
		Cards:    handlers.NewCardHandler(cardRepo),
		Stock:    handlers.NewStockHandler(stockSvc),
	}, tokens, cfg.PaymentsDevMode)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}

func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	return logger
}
