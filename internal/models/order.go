package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is the kitchen-facing lifecycle of an order.
type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderAccepted OrderStatus = "accepted"
	OrderRejected OrderStatus = "rejected"
)

// PaymentStatus records whether the order has been paid for.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

// OrderLine represents a single menu item entry within an order.
type OrderLine struct {
	MenuItemID primitive.ObjectID `bson:"food" json:"food"`
	Name       string             `bson:"name" json:"name"`
	Size       SizeName           `bson:"size,omitempty" json:"size,omitempty"`
	Quantity   int                `bson:"quantity" json:"quantity"`
	UnitPrice  float64            `bson:"unitPrice" json:"unitPrice"`
}

// Order defines the persisted order document. Only Status changes after insert.
type Order struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReferenceNumber   string             `bson:"referenceNumber" json:"referenceNumber"`
	Items             []OrderLine        `bson:"items" json:"items"`
	DeliveryFee       float64            `bson:"deliveryFee" json:"deliveryFee"`
	TotalAmount       float64            `bson:"totalAmount" json:"totalAmount"`
	MobileNumber      string             `bson:"mobileNumber" json:"mobileNumber"`
	DeliveryLocation  string             `bson:"deliveryLocation" json:"deliveryLocation"`
	PaymentStatus     PaymentStatus      `bson:"paymentStatus" json:"paymentStatus"`
	Status            OrderStatus        `bson:"status" json:"status"`
	CheckoutSessionID string             `bson:"checkoutSessionId,omitempty" json:"checkoutSessionId,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}
