// Package checkout opens hosted payment sessions for priced carts. The session
// metadata is the only record of a cart until an order is created.
package checkout

//go:generate mockgen -destination=mock_processor.go -package=checkout . Processor

import "context"

// PaymentStatus is the processor's view of a session's payment.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPaid    PaymentStatus = "paid"
	PaymentExpired PaymentStatus = "expired"
)

// LineItem is one row on the hosted checkout page. UnitAmount is in minor
// currency units.
type LineItem struct {
	Name        string
	Description string
	UnitAmount  int64
	Quantity    int64
}

// SessionRequest is everything needed to open a hosted checkout.
type SessionRequest struct {
	LineItems      []LineItem
	Metadata       map[string]string
	PaymentMethods []string
	Currency       string
	SuccessURL     string
	CancelURL      string
}

// Session is a processor-owned checkout session.
type Session struct {
	ID            string
	URL           string
	PaymentStatus PaymentStatus
	Metadata      map[string]string
}

// Event is a verified processor notification. Session is nil for event types
// that do not carry a checkout session.
type Event struct {
	ID      string
	Type    string
	Session *Session
}

const (
	EventSessionCompleted             = "checkout.session.completed"
	EventSessionAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)

// ConfirmsPayment reports whether the event type can carry a paid session.
func (e Event) ConfirmsPayment() bool {
	return e.Type == EventSessionCompleted || e.Type == EventSessionAsyncPaymentSucceeded
}

// Processor is the external payment provider. Implementations return errors
// tagged with apperr kinds: InvalidSignature from ParseEvent, SessionNotFound
// and UpstreamUnavailable from the network calls.
type Processor interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (*Session, error)
	ParseEvent(payload []byte, signature string) (*Event, error)
}
