package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lateeflat25-prog/9jabukabackend/internal/accounts"
	"github.com/lateeflat25-prog/9jabukabackend/internal/catalog"
	"github.com/lateeflat25-prog/9jabukabackend/internal/checkout"
	"github.com/lateeflat25-prog/9jabukabackend/internal/database"
	"github.com/lateeflat25-prog/9jabukabackend/internal/handlers"
	"github.com/lateeflat25-prog/9jabukabackend/internal/orders"
	"github.com/lateeflat25-prog/9jabukabackend/internal/payment"
	"github.com/lateeflat25-prog/9jabukabackend/internal/pricing"
	"github.com/lateeflat25-prog/9jabukabackend/internal/storage"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(parent context.Context) error {
	cfg := a.cfg
	if err := cfg.RequirePayments(); err != nil {
		return err
	}
	if err := database.EnsureIndexes(a.db, a.logger); err != nil {
		// The session id index is what keeps confirmation idempotent.
		return err
	}

	menu := catalog.NewMongoStore(a.db, cfg.StoreTimeout)
	orderStore := orders.NewMongoStore(a.db, cfg.StoreTimeout)
	processor := payment.NewStripeProcessor(cfg.StripeSecretKey, cfg.StripeWebhookSecret, nil)
	engine := pricing.NewEngine(menu, cfg.DeliveryFee)

	confirmOpts := []orders.Option{orders.WithUpstreamTimeout(cfg.UpstreamTimeout)}
	if cfg.StrictPricing {
		confirmOpts = append(confirmOpts, orders.WithStrictPricing(cfg.PriceTolerance))
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.Deps{
		Catalog: menu,
		Orders:  orderStore,
		Images:  storage.NewLocalImageStore(cfg.UploadDir, cfg.PublicBaseURL),
		Checkout: checkout.NewManager(engine, processor, checkout.Settings{
			Currency:        cfg.Currency,
			PaymentMethods:  cfg.PaymentMethods,
			SuccessURL:      cfg.SuccessURL(),
			CancelURL:       cfg.CancelURL(),
			UpstreamTimeout: cfg.UpstreamTimeout,
		}, a.logger),
		Confirmer: orders.NewConfirmer(orderStore, engine, processor, a.logger, confirmOpts...),
		Status:    orders.NewStatusUpdater(orderStore),
		Admins:    accounts.NewAuthenticator(accounts.NewMongoStore(a.db, cfg.StoreTimeout), cfg.JWTSecret, cfg.AccessTokenTTL),
		Ping: func(ctx context.Context) error {
			return database.Ping(ctx, a.db)
		},
		JWTSecret:  cfg.JWTSecret,
		UploadDir:  cfg.UploadDir,
		PublicPath: cfg.PublicBaseURL,
		Logger:     a.logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
