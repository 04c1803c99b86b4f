package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lateeflat25-prog/9jabukabackend/internal/database"
	"github.com/lateeflat25-prog/9jabukabackend/internal/models"
)

type MongoStore struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewMongoStore(db *mongo.Database, timeout time.Duration) *MongoStore {
	return &MongoStore{
		coll:    db.Collection(database.OrdersCollection),
		timeout: timeout,
	}
}

func (s *MongoStore) InsertOrder(ctx context.Context, order *models.Order) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}

	if _, err := s.coll.InsertOne(ctx, order); err != nil {
		order.ID = primitive.NilObjectID
		return classifyInsertError(err)
	}
	return nil
}

// classifyInsertError turns a unique index violation into the sentinel for the
// index that fired.
func classifyInsertError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("insert order: %w", err)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, database.CheckoutSessionIndex):
		return ErrDuplicateSession
	case strings.Contains(msg, database.ReferenceNumberIndex):
		return ErrDuplicateReference
	default:
		return fmt.Errorf("insert order: %w", err)
	}
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var order models.Order
	err := s.coll.FindOne(ctx, filter).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	return &order, nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (*models.Order, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"_id": objectID})
}

func (s *MongoStore) FindByReference(ctx context.Context, reference string) (*models.Order, error) {
	return s.findOne(ctx, bson.M{"referenceNumber": reference})
}

func (s *MongoStore) FindBySession(ctx context.Context, sessionID string) (*models.Order, error) {
	return s.findOne(ctx, bson.M{"checkoutSessionId": sessionID})
}

// ListOrders returns orders newest first together with the unpaginated count.
func (s *MongoStore) ListOrders(ctx context.Context, opts ListOptions) ([]models.Order, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	filter := bson.M{}
	if opts.Status != "" {
		filter["status"] = opts.Status
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if opts.Limit > 0 {
		findOptions.SetSkip(opts.Skip).SetLimit(opts.Limit)
	}

	cursor, err := s.coll.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := make([]models.Order, 0)
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, fmt.Errorf("decode orders: %w", err)
	}
	return orders, total, nil
}

// UpdateStatus is a compare-and-set on the status field.
func (s *MongoStore) UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) (*models.Order, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	filter := bson.M{"_id": objectID, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Order
	err = s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		count, countErr := s.coll.CountDocuments(ctx, bson.M{"_id": objectID})
		if countErr != nil {
			return nil, fmt.Errorf("update order status: %w", countErr)
		}
		if count == 0 {
			return nil, ErrNotFound
		}
		return nil, ErrStatusConflict
	}
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	return &updated, nil
}
