package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	MongoURI string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDB  string `envconfig:"MONGO_DB" default:"ecommerce"`

	JWTSecret    string        `envconfig:"JWT_SECRET" required:"true"`
	JWTExpiresIn time.Duration `envconfig:"JWT_EXPIRES_IN" default:"24h"`

	CORSOrigin string `envconfig:"CORS_ORIGIN" default:"*"`

	// Rate limit por cliente: r tokens/seg con ráfaga b.
	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"10"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"20"`

	// Habilita los gateways simulados (PIX, boleto, tarjeta) y su
	// webhook sin firma. Nunca en producción: quien paga conoce su
	// transaction_id y podría aprobarse el pago solo.
	PaymentsDevMode bool `envconfig:"PAYMENTS_DEV_MODE" default:"false"`

	MercadoPagoToken         string `envconfig:"MP_ACCESS_TOKEN" default:""`
	MercadoPagoWebhookSecret string `envconfig:"MP_WEBHOOK_SECRET" default:""`
	MercadoPagoBaseURL       string `envconfig:"MP_BASE_URL" default:"https://api.mercadopago.com"`
	CheckoutSuccessURL       string `envconfig:"CHECKOUT_SUCCESS_URL" default:"http://localhost:3000/checkout/success"`
	CheckoutFailureURL       string `envconfig:"CHECKOUT_FAILURE_URL" default:"http://localhost:3000/checkout/failure"`

	SMTPHost string `envconfig:"SMTP_HOST" default:""`
	SMTPPort int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser string `envconfig:"SMTP_USER" default:""`
	SMTPPass string `envconfig:"SMTP_PASS" default:""`
	MailFrom string `envconfig:"MAIL_FROM" default:"no-reply@localhost"`
}

// Load carga .env solo en desarrollo local; en producción las variables
// vienen del entorno y el archivo no existe.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Println("error loading .env file:", err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
