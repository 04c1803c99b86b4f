package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SizeName is one of the fixed container sizes a menu item can be sold in.
type SizeName string

const (
	SizeHalfPan   SizeName = "Half Pan"
	SizeFullPan   SizeName = "Full Pan"
	SizeTwoLitres SizeName = "2 Litres"
)

// SizeNames lists the accepted size names in display order.
var SizeNames = []SizeName{SizeHalfPan, SizeFullPan, SizeTwoLitres}

func (s SizeName) Valid() bool {
	for _, name := range SizeNames {
		if s == name {
			return true
		}
	}
	return false
}

// SizeVariant is a named pricing option for a menu item.
type SizeVariant struct {
	Name  SizeName `bson:"name" json:"name"`
	Price float64  `bson:"price" json:"price"`
}

// MenuItem is a single orderable dish or drink.
type MenuItem struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Price       float64            `bson:"price" json:"price"`
	Category    string             `bson:"category" json:"category"`
	CookingTime int                `bson:"cookingTime" json:"cookingTime"`
	ImageURL    string             `bson:"imageUrl" json:"imageUrl"`
	Sizes       []SizeVariant      `bson:"sizes" json:"sizes"`
	HasSizes    bool               `bson:"hasSizes" json:"hasSizes"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// RequiresSize reports whether every order line for this item must pick a size.
// It keys on the variants themselves; a stray HasSizes flag without variants
// does not make an item unorderable.
func (m MenuItem) RequiresSize() bool {
	return len(m.Sizes) > 0
}

// SizePrice returns the price of the named variant.
func (m MenuItem) SizePrice(name SizeName) (float64, bool) {
	for _, size := range m.Sizes {
		if size.Name == name {
			return size.Price, true
		}
	}
	return 0, false
}
