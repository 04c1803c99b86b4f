// Package testutil holds in-memory stores for tests that need the ordering
// pipeline without MongoDB.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/lateeflat25-prog/9jabukabackend/internal/catalog"
	"github.com/lateeflat25-prog/9jabukabackend/internal/models"
	"github.com/lateeflat25-prog/9jabukabackend/internal/orders"
)

// MemoryCatalog is a catalog.Store backed by a map.
type MemoryCatalog struct {
	mu    sync.RWMutex
	items map[string]models.MenuItem
}

func NewMemoryCatalog(items ...models.MenuItem) *MemoryCatalog {
	c := &MemoryCatalog{items: make(map[string]models.MenuItem)}
	for _, item := range items {
		c.Put(item)
	}
	return c
}

// Put stores item, assigning an id when it has none, and returns the id.
func (c *MemoryCatalog) Put(item models.MenuItem) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	c.items[item.ID.Hex()] = item
	return item.ID.Hex()
}

// SetPrice changes the base price of id in place.
func (c *MemoryCatalog) SetPrice(id string, price float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item := c.items[id]
	item.Price = price
	c.items[id] = item
}

func (c *MemoryCatalog) GetMenuItem(_ context.Context, id string) (*models.MenuItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &item, nil
}

func (c *MemoryCatalog) ListMenuItems(_ context.Context, category string) ([]models.MenuItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	items := make([]models.MenuItem, 0, len(c.items))
	for _, item := range c.items {
		if category == "" || item.Category == category {
			items = append(items, item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (c *MemoryCatalog) CreateMenuItem(_ context.Context, item *models.MenuItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now().UTC()
	item.ID = primitive.NewObjectID()
	item.CreatedAt = now
	item.UpdatedAt = now
	c.items[item.ID.Hex()] = *item
	return nil
}

func (c *MemoryCatalog) ReplaceMenuItem(_ context.Context, item *models.MenuItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[item.ID.Hex()]; !ok {
		return catalog.ErrNotFound
	}
	item.UpdatedAt = time.Now().UTC()
	c.items[item.ID.Hex()] = *item
	return nil
}

func (c *MemoryCatalog) DeleteMenuItem(_ context.Context, id string) (*models.MenuItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	delete(c.items, id)
	return &item, nil
}

// MemoryOrders is an orders.Store with the same uniqueness rules as the
// MongoDB indexes.
type MemoryOrders struct {
	mu       sync.Mutex
	byID     map[string]models.Order
	inserts  int
	failNext error
}

func NewMemoryOrders() *MemoryOrders {
	return &MemoryOrders{byID: make(map[string]models.Order)}
}

// FailNextInsert makes the next InsertOrder return err without storing.
func (s *MemoryOrders) FailNextInsert(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

// Len returns the number of stored orders.
func (s *MemoryOrders) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// InsertAttempts counts InsertOrder calls, failed ones included.
func (s *MemoryOrders) InsertAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserts
}

func (s *MemoryOrders) InsertOrder(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++

	if err := s.failNext; err != nil {
		s.failNext = nil
		return err
	}
	for _, existing := range s.byID {
		if order.CheckoutSessionID != "" && existing.CheckoutSessionID == order.CheckoutSessionID {
			return orders.ErrDuplicateSession
		}
		if existing.ReferenceNumber == order.ReferenceNumber {
			return orders.ErrDuplicateReference
		}
	}
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	stored := *order
	stored.Items = append([]models.OrderLine(nil), order.Items...)
	s.byID[order.ID.Hex()] = stored
	return nil
}

func (s *MemoryOrders) find(match func(models.Order) bool) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.byID {
		if match(order) {
			found := order
			return &found, nil
		}
	}
	return nil, orders.ErrNotFound
}

func (s *MemoryOrders) FindByID(_ context.Context, id string) (*models.Order, error) {
	return s.find(func(o models.Order) bool { return o.ID.Hex() == id })
}

func (s *MemoryOrders) FindByReference(_ context.Context, reference string) (*models.Order, error) {
	return s.find(func(o models.Order) bool { return o.ReferenceNumber == reference })
}

func (s *MemoryOrders) FindBySession(_ context.Context, sessionID string) (*models.Order, error) {
	return s.find(func(o models.Order) bool { return o.CheckoutSessionID != "" && o.CheckoutSessionID == sessionID })
}

func (s *MemoryOrders) ListOrders(_ context.Context, opts orders.ListOptions) ([]models.Order, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]models.Order, 0, len(s.byID))
	for _, order := range s.byID {
		if opts.Status == "" || order.Status == opts.Status {
			matched = append(matched, order)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	if opts.Limit > 0 {
		start := min(opts.Skip, total)
		end := min(start+opts.Limit, total)
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (s *MemoryOrders) UpdateStatus(_ context.Context, id string, from, to models.OrderStatus) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.byID[id]
	if !ok {
		return nil, orders.ErrNotFound
	}
	if order.Status != from {
		return nil, orders.ErrStatusConflict
	}
	order.Status = to
	order.UpdatedAt = time.Now().UTC()
	s.byID[id] = order
	return &order, nil
}
