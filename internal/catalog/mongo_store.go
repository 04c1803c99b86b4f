package catalog

import (
	"context"
	"errors"
	"fmt"
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
		coll:    db.Collection(database.MenuItemsCollection),
		timeout: timeout,
	}
}

// GetMenuItem returns ErrNotFound for unknown and malformed ids alike.
func (s *MongoStore) GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var item models.MenuItem
	err = s.coll.FindOne(ctx, bson.M{"_id": objectID}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find menu item %s: %w", id, err)
	}
	return &item, nil
}

func (s *MongoStore) ListMenuItems(ctx context.Context, category string) ([]models.MenuItem, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}

	opts := options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}})
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]models.MenuItem, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode menu items: %w", err)
	}
	return items, nil
}

func (s *MongoStore) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := time.Now().UTC()
	item.ID = primitive.NewObjectID()
	item.CreatedAt = now
	item.UpdatedAt = now

	if _, err := s.coll.InsertOne(ctx, item); err != nil {
		return fmt.Errorf("insert menu item: %w", err)
	}
	return nil
}

func (s *MongoStore) ReplaceMenuItem(ctx context.Context, item *models.MenuItem) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	item.UpdatedAt = time.Now().UTC()
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": item.ID}, item)
	if err != nil {
		return fmt.Errorf("replace menu item %s: %w", item.ID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMenuItem removes the item and returns what was stored, so callers can
// clean up its image.
func (s *MongoStore) DeleteMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var deleted models.MenuItem
	err = s.coll.FindOneAndDelete(ctx, bson.M{"_id": objectID}).Decode(&deleted)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete menu item %s: %w", id, err)
	}
	return &deleted, nil
}
