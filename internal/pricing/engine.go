// Package pricing recomputes cart totals from the catalog. Prices sent by
// clients or stored in checkout metadata are never read here.
package pricing

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/lateeflat25-prog/9jabukabackend/internal/apperr"
	"github.com/lateeflat25-prog/9jabukabackend/internal/catalog"
	"github.com/lateeflat25-prog/9jabukabackend/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Line is a validated cart line with its authoritative unit price.
type Line struct {
	Item      models.MenuItem
	Size      models.SizeName
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Quote is the priced cart. Total = Subtotal + DeliveryFee.
type Quote struct {
	Lines       []Line
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
}

// Engine prices carts against a catalog snapshot.
type Engine struct {
	catalog     catalog.Reader
	deliveryFee decimal.Decimal
}

func NewEngine(reader catalog.Reader, deliveryFee decimal.Decimal) *Engine {
	return &Engine{catalog: reader, deliveryFee: deliveryFee}
}

func (e *Engine) DeliveryFee() decimal.Decimal {
	return e.deliveryFee
}

// Quote validates every line and sums unit price × quantity plus the delivery
// fee. It has no side effects and may be called any number of times.
func (e *Engine) Quote(ctx context.Context, lines []models.CartLine) (*Quote, error) {
	if len(lines) == 0 {
		return nil, apperr.New(apperr.KindInvalidQuantity, "at least one item is required")
	}

	quote := &Quote{
		Lines:       make([]Line, 0, len(lines)),
		Subtotal:    decimal.Zero,
		DeliveryFee: e.deliveryFee,
	}

	for _, cartLine := range lines {
		if cartLine.Quantity < 1 {
			return nil, apperr.New(apperr.KindInvalidQuantity,
				"quantity for item %s must be at least 1", cartLine.ItemID)
		}

		item, err := e.catalog.GetMenuItem(ctx, cartLine.ItemID)
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, apperr.New(apperr.KindItemNotFound, "food item %s not found", cartLine.ItemID)
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, err, "catalog lookup failed")
		}

		unit, err := unitPrice(item, cartLine.Size)
		if err != nil {
			return nil, err
		}

		qty := decimal.NewFromInt(int64(cartLine.Quantity))
		lineTotal := unit.Mul(qty)
		quote.Lines = append(quote.Lines, Line{
			Item:      *item,
			Size:      cartLine.Size,
			Quantity:  cartLine.Quantity,
			UnitPrice: unit,
			LineTotal: lineTotal,
		})
		quote.Subtotal = quote.Subtotal.Add(lineTotal)
	}

	quote.Total = quote.Subtotal.Add(quote.DeliveryFee)
	return quote, nil
}

// unitPrice picks the variant price for sized items and the base price
// otherwise. A size on an item without variants is rejected.
func unitPrice(item *models.MenuItem, size models.SizeName) (decimal.Decimal, error) {
	if !item.RequiresSize() {
		if size != "" {
			return decimal.Zero, apperr.New(apperr.KindInvalidSize,
				"%s is not sold in sizes", item.Name)
		}
		return decimal.NewFromFloat(item.Price), nil
	}

	if size == "" {
		return decimal.Zero, apperr.New(apperr.KindInvalidSize, "a size is required for %s", item.Name)
	}
	price, ok := item.SizePrice(size)
	if !ok {
		return decimal.Zero, apperr.New(apperr.KindInvalidSize,
			"size %q is not offered for %s", size, item.Name)
	}
	return decimal.NewFromFloat(price), nil
}

// MinorUnits converts an amount to the smallest currency unit, rounding half
// away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits is the inverse of MinorUnits.
func FromMinorUnits(units int64) decimal.Decimal {
	return decimal.New(units, -2)
}
