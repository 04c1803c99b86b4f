// Package accounts manages administrator logins.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lateeflat25-prog/9jabukabackend/internal/database"
	"github.com/lateeflat25-prog/9jabukabackend/internal/models"
)

var (
	ErrNotFound    = errors.New("admin not found")
	ErrEmailExists = errors.New("admin email already exists")
)

type Store interface {
	FindByEmail(ctx context.Context, email string) (*models.Admin, error)
	CreateAdmin(ctx context.Context, admin *models.Admin) error
}

type MongoStore struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewMongoStore(db *mongo.Database, timeout time.Duration) *MongoStore {
	return &MongoStore{coll: db.Collection(database.AdminsCollection), timeout: timeout}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var admin models.Admin
	err := s.coll.FindOne(ctx, bson.M{"email": normalizeEmail(email)}).Decode(&admin)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find admin: %w", err)
	}
	return &admin, nil
}

func (s *MongoStore) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	admin.ID = primitive.NewObjectID()
	admin.Email = normalizeEmail(admin.Email)
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now().UTC()
	}
	if _, err := s.coll.InsertOne(ctx, admin); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}
