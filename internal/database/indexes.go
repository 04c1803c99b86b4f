package database

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	MenuItemsCollection = "foods"
	OrdersCollection    = "orders"
	AdminsCollection    = "admins"

	// Index names are part of the duplicate-key contract in orders.MongoStore.
	ReferenceNumberIndex = "referenceNumber_unique"
	CheckoutSessionIndex = "checkoutSessionId_unique"
	AdminEmailIndex      = "email_unique"
)

// EnsureOrderIndexes creates the uniqueness constraints the confirmation
// pipeline depends on. Both are safe to re-run.
func EnsureOrderIndexes(db *mongo.Database, logger logrus.FieldLogger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection(OrdersCollection).Indexes()

	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "referenceNumber", Value: 1}},
			Options: options.Index().
				SetName(ReferenceNumberIndex).
				SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "checkoutSessionId", Value: 1}},
			Options: options.Index().
				SetName(CheckoutSessionIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"checkoutSessionId": bson.M{
						"$exists": true,
					},
				}),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("createdAt_desc"),
		},
	}

	logger.Info("EnsureOrderIndexes: creating order indexes")
	names, err := indexes.CreateMany(ctx, models)
	if err != nil {
		logger.WithError(err).Error("EnsureOrderIndexes: index error")
		return err
	}
	logger.WithField("indexes", names).Info("EnsureOrderIndexes: indexes ready")
	return nil
}

func EnsureMenuItemIndexes(db *mongo.Database, logger logrus.FieldLogger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection(MenuItemsCollection).Indexes()

	categoryIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}},
		Options: options.Index().SetName("category_name_index"),
	}

	logger.Info("EnsureMenuItemIndexes: creating category_name_index index")
	if _, err := indexes.CreateOne(ctx, categoryIndex); err != nil {
		logger.WithError(err).Error("EnsureMenuItemIndexes: category index error")
		return err
	}
	logger.Info("EnsureMenuItemIndexes: category_name_index index created")
	return nil
}

func EnsureAdminIndexes(db *mongo.Database, logger logrus.FieldLogger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection(AdminsCollection).Indexes()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName(AdminEmailIndex).
			SetUnique(true),
	}

	logger.Info("EnsureAdminIndexes: creating email_unique index")
	if _, err := indexes.CreateOne(ctx, emailIndex); err != nil {
		logger.WithError(err).Error("EnsureAdminIndexes: email index error")
		return err
	}
	logger.Info("EnsureAdminIndexes: email_unique index created")
	return nil
}

// EnsureIndexes runs every index migration, stopping at the first failure.
func EnsureIndexes(db *mongo.Database, logger logrus.FieldLogger) error {
	for _, ensure := range []func(*mongo.Database, logrus.FieldLogger) error{
		EnsureMenuItemIndexes,
		EnsureOrderIndexes,
		EnsureAdminIndexes,
	} {
		if err := ensure(db, logger); err != nil {
			return err
		}
	}
	return nil
}
