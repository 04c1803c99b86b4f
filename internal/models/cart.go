package models

// CartLine is one requested menu item in a checkout. It is never persisted on
// its own; it travels in checkout session metadata until the order exists.
type CartLine struct {
	ItemID   string   `json:"food" binding:"required"`
	Quantity int      `json:"quantity"`
	Size     SizeName `json:"size,omitempty"`
}

// Contact captures how the customer is reached and where food is delivered.
type Contact struct {
	MobileNumber     string `json:"mobileNumber"`
	DeliveryLocation string `json:"deliveryLocation"`
}
