// Package catalog persists menu items, the authoritative source of prices.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lateeflat25-prog/9jabukabackend/internal/models"
)

var ErrNotFound = errors.New("menu item not found")

// Reader is the read-only view the order pipeline prices against.
type Reader interface {
	GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error)
}

// Store is the full catalog used by menu administration.
type Store interface {
	Reader
	ListMenuItems(ctx context.Context, category string) ([]models.MenuItem, error)
	CreateMenuItem(ctx context.Context, item *models.MenuItem) error
	ReplaceMenuItem(ctx context.Context, item *models.MenuItem) error
	DeleteMenuItem(ctx context.Context, id string) (*models.MenuItem, error)
}

// Validate checks the fields an administrator supplies.
func Validate(item *models.MenuItem) error {
	if strings.TrimSpace(item.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(item.Description) == "" {
		return errors.New("description is required")
	}
	if strings.TrimSpace(item.Category) == "" {
		return errors.New("category is required")
	}
	if item.Price < 0 {
		return errors.New("price must be a non-negative number")
	}
	if item.CookingTime < 1 {
		return errors.New("cookingTime must be a positive integer")
	}
	if err := ValidateSizes(item.Sizes); err != nil {
		return err
	}
	if item.HasSizes && len(item.Sizes) == 0 {
		return errors.New("hasSizes requires at least one size")
	}
	if len(item.Sizes) > 0 {
		item.HasSizes = true
	}
	return nil
}

func ValidateSizes(sizes []models.SizeVariant) error {
	seen := map[models.SizeName]struct{}{}
	for i, size := range sizes {
		if !size.Name.Valid() {
			allowed := make([]string, 0, len(models.SizeNames))
			for _, name := range models.SizeNames {
				allowed = append(allowed, string(name))
			}
			return fmt.Errorf("sizes[%d].name must be one of: %s", i, strings.Join(allowed, ", "))
		}
		if size.Price < 0 {
			return fmt.Errorf("sizes[%d].price must be a non-negative number", i)
		}
		if _, ok := seen[size.Name]; ok {
			return fmt.Errorf("sizes[%d].name %q is listed twice", i, size.Name)
		}
		seen[size.Name] = struct{}{}
	}
	return nil
}
