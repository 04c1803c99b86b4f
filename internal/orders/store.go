// Package orders materializes paid checkout sessions into orders exactly once
// and guards the order status state machine.
package orders

import (
	"context"
	"errors"

	"github.com/lateeflat25-prog/9jabukabackend/internal/models"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrDuplicateReference means the generated reference number is taken.
	ErrDuplicateReference = errors.New("reference number already exists")
	// ErrDuplicateSession means an order for the checkout session already exists.
	ErrDuplicateSession = errors.New("order already exists for checkout session")
	// ErrStatusConflict means the stored status no longer matches the expected one.
	ErrStatusConflict = errors.New("order status changed concurrently")
)

// ListOptions narrows ListOrders. Zero values mean "all".
type ListOptions struct {
	Status models.OrderStatus
	Skip   int64
	Limit  int64
}

// Store persists orders. Insert must enforce uniqueness of ReferenceNumber and
// CheckoutSessionID atomically and report violations with the sentinels above.
type Store interface {
	InsertOrder(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	FindByReference(ctx context.Context, reference string) (*models.Order, error)
	FindBySession(ctx context.Context, sessionID string) (*models.Order, error)
	ListOrders(ctx context.Context, opts ListOptions) ([]models.Order, int64, error)
	// UpdateStatus sets the status only if it is still from.
	UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) (*models.Order, error)
}
