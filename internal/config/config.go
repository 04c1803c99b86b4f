package config

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var AppEnv Config

type Config struct {
	Port           string        `envconfig:"PORT" default:"5000"`
	MongoURI       string        `envconfig:"MONGO_URI" required:"true"`
	DBName         string        `envconfig:"DB_NAME" default:"food_ordering"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	JWTSecret      string        `envconfig:"JWT_SECRET" required:"true"`
	AccessTokenTTL time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"12h"`

	StripeSecretKey     string   `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string   `envconfig:"STRIPE_WEBHOOK_SECRET"`
	ClientURL           string   `envconfig:"CLIENT_URL" default:"http://localhost:3000"`
	Currency            string   `envconfig:"CURRENCY" default:"usd"`
	PaymentMethods      []string `envconfig:"PAYMENT_METHODS" default:"card"`

	DeliveryFee    decimal.Decimal `envconfig:"DELIVERY_FEE" default:"3.99"`
	StrictPricing  bool            `envconfig:"STRICT_PRICING" default:"false"`
	PriceTolerance decimal.Decimal `envconfig:"PRICE_TOLERANCE" default:"0.01"`

	UpstreamTimeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s"`
	StoreTimeout    time.Duration `envconfig:"STORE_TIMEOUT" default:"5s"`

	UploadDir     string `envconfig:"UPLOAD_DIR" default:"./public/uploads"`
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL" default:"/public/uploads"`
}

// SuccessURL is where the processor sends the customer after paying. The
// placeholder is expanded by the processor.
func (c Config) SuccessURL() string {
	return c.ClientURL + "/pages/success?session_id={CHECKOUT_SESSION_ID}"
}

func (c Config) CancelURL() string {
	return c.ClientURL + "/"
}

// RequirePayments fails when the processor credentials are missing.
func (c Config) RequirePayments() error {
	if c.StripeSecretKey == "" {
		return errors.New("STRIPE_SECRET_KEY is required")
	}
	if c.StripeWebhookSecret == "" {
		return errors.New("STRIPE_WEBHOOK_SECRET is required")
	}
	return nil
}

// Load reads .env (when present) and the process environment into AppEnv.
func Load(logger logrus.FieldLogger) (Config, error) {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug(".env not found, using process environment")
		} else {
			logger.Warnf(".env not loaded: %v", err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	if cfg.DeliveryFee.IsNegative() {
		return Config{}, errors.New("DELIVERY_FEE must not be negative")
	}

	AppEnv = cfg
	return cfg, nil
}

// NewLogger builds the JSON logger used by every component.
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
		logger.Warnf("Invalid LOG_LEVEL '%s', using default: %s", level, parsed)
	}
	logger.SetLevel(parsed)
	return logger
}
