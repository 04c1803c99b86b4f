// Package cli wires configuration, storage and HTTP into cobra commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lateeflat25-prog/9jabukabackend/internal/config"
	"github.com/lateeflat25-prog/9jabukabackend/internal/database"
)

// Execute runs the root command.
func Execute(version string) error {
	root := &cobra.Command{
		Use:           "9jabuka",
		Short:         "Food ordering backend with hosted checkout",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), ensureIndexesCmd(), createAdminCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// app holds what every command needs once started.
type app struct {
	cfg    config.Config
	logger *logrus.Logger
	client *mongo.Client
	db     *mongo.Database
}

func bootstrap() (*app, error) {
	bootLogger := config.NewLogger("info")
	cfg, err := config.Load(bootLogger)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := config.NewLogger(cfg.LogLevel)

	client, err := database.Connect(cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.DBName)
	logger.WithField("database", db.Name()).Info("MongoDB connected")

	return &app{cfg: cfg, logger: logger, client: client, db: db}, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.StoreTimeout)
	defer cancel()
	if err := a.client.Disconnect(ctx); err != nil {
		a.logger.WithError(err).Warn("MongoDB disconnect failed")
	}
}
