package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/lateeflat25-prog/9jabukabackend/internal/apperr"
	"github.com/lateeflat25-prog/9jabukabackend/internal/checkout"
	"github.com/lateeflat25-prog/9jabukabackend/internal/models"
	"github.com/lateeflat25-prog/9jabukabackend/internal/pricing"
)

const (
	defaultInsertAttempts  = 5
	defaultUpstreamTimeout = 10 * time.Second
)

// Result is a confirmed order. Created is false when the session had already
// been turned into an order.
type Result struct {
	Order   *models.Order
	Created bool
}

// Confirmer turns paid checkout sessions into orders. Both the client poll and
// the processor webhook end up in confirm, and the session id unique index
// makes the pair safe to race.
type Confirmer struct {
	store        Store
	quoter       checkout.Quoter
	processor    checkout.Processor
	logger       logrus.FieldLogger
	newReference ReferenceGenerator
	now          func() time.Time

	upstreamTimeout time.Duration
	maxAttempts     int
	strictPricing   bool
	tolerance       decimal.Decimal
}

type Option func(*Confirmer)

func WithReferenceGenerator(gen ReferenceGenerator) Option {
	return func(c *Confirmer) { c.newReference = gen }
}

func WithUpstreamTimeout(d time.Duration) Option {
	return func(c *Confirmer) {
		if d > 0 {
			c.upstreamTimeout = d
		}
	}
}

// WithStrictPricing rejects confirmations whose fresh total drifts from the
// quoted one by more than tolerance.
func WithStrictPricing(tolerance decimal.Decimal) Option {
	return func(c *Confirmer) {
		c.strictPricing = true
		c.tolerance = tolerance.Abs()
	}
}

func WithMaxInsertAttempts(n int) Option {
	return func(c *Confirmer) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Confirmer) { c.now = now }
}

func NewConfirmer(store Store, quoter checkout.Quoter, processor checkout.Processor, logger logrus.FieldLogger, opts ...Option) *Confirmer {
	c := &Confirmer{
		store:           store,
		quoter:          quoter,
		processor:       processor,
		logger:          logger,
		newReference:    NewReference,
		now:             time.Now,
		upstreamTimeout: defaultUpstreamTimeout,
		maxAttempts:     defaultInsertAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ConfirmBySessionID is the client poll path. It asks the processor for the
// session state instead of trusting the caller.
func (c *Confirmer) ConfirmBySessionID(ctx context.Context, sessionID string) (*Result, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, apperr.New(apperr.KindSessionNotFound, "sessionId is required")
	}

	if existing, err := c.store.FindBySession(ctx, sessionID); err == nil {
		return &Result{Order: existing}, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, apperr.Wrap(apperr.KindInternal, err, "order lookup failed")
	}

	upstreamCtx, cancel := context.WithTimeout(ctx, c.upstreamTimeout)
	session, err := c.processor.RetrieveSession(upstreamCtx, sessionID)
	cancel()
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, err, "payment processor unavailable")
		}
		return nil, err
	}

	return c.confirm(ctx, session, c.logger.WithField("source", "poll"))
}

// WebhookAction says what happened to a verified webhook event.
type WebhookAction string

const (
	WebhookIgnored WebhookAction = "ignored"
	WebhookCreated WebhookAction = "created"
	WebhookExisted WebhookAction = "existing"
	// WebhookRejected events carry data that can never produce an order. They
	// are acknowledged so the processor stops retrying.
	WebhookRejected WebhookAction = "rejected"
)

// WebhookOutcome is the acknowledgement for a verified event.
type WebhookOutcome struct {
	EventID   string
	EventType string
	Action    WebhookAction
	Order     *models.Order
	Reason    error
}

// ConfirmByWebhookEvent is the push path. An error return means the event must
// not be acknowledged: either the signature failed or a retry may succeed.
func (c *Confirmer) ConfirmByWebhookEvent(ctx context.Context, payload []byte, signature string) (*WebhookOutcome, error) {
	event, err := c.processor.ParseEvent(payload, signature)
	if err != nil {
		if apperr.Is(err, apperr.KindMalformedMetadata) {
			c.logger.WithError(err).Error("unreadable webhook event, manual reconciliation required")
			return &WebhookOutcome{Action: WebhookRejected, Reason: err}, nil
		}
		return nil, err
	}

	outcome := &WebhookOutcome{EventID: event.ID, EventType: event.Type, Action: WebhookIgnored}
	logger := c.logger.WithFields(logrus.Fields{
		"source":    "webhook",
		"eventId":   event.ID,
		"eventType": event.Type,
	})

	if !event.ConfirmsPayment() || event.Session == nil {
		logger.Debug("webhook event ignored")
		return outcome, nil
	}
	if event.Session.PaymentStatus != checkout.PaymentPaid {
		logger.WithField("sessionId", event.Session.ID).Info("session not paid yet, waiting for a later event")
		return outcome, nil
	}

	result, err := c.confirm(ctx, event.Session, logger)
	if err != nil {
		if apperr.KindOf(err).ClientFault() {
			logger.WithError(err).
				WithFields(logrus.Fields{"sessionId": event.Session.ID, "kind": apperr.KindOf(err)}).
				Error("paid session could not become an order, manual reconciliation required")
			outcome.Action = WebhookRejected
			outcome.Reason = err
			return outcome, nil
		}
		return nil, err
	}

	outcome.Order = result.Order
	outcome.Action = WebhookExisted
	if result.Created {
		outcome.Action = WebhookCreated
	}
	return outcome, nil
}

func (c *Confirmer) confirm(ctx context.Context, session *checkout.Session, logger logrus.FieldLogger) (*Result, error) {
	logger = logger.WithField("sessionId", session.ID)

	if session.PaymentStatus != checkout.PaymentPaid {
		return nil, apperr.New(apperr.KindPaymentNotCompleted, "payment not completed")
	}

	existing, err := c.store.FindBySession(ctx, session.ID)
	if err == nil {
		return &Result{Order: existing}, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, apperr.Wrap(apperr.KindInternal, err, "order lookup failed")
	}

	intent, err := checkout.DecodeMetadata(session.Metadata)
	if err != nil {
		return nil, err
	}

	quote, err := c.quoter.Quote(ctx, intent.Lines)
	if err != nil {
		return nil, err
	}
	if err := c.checkQuote(quote, intent, logger); err != nil {
		return nil, err
	}

	order := c.buildOrder(session.ID, quote, intent.Contact)
	return c.insert(ctx, order, logger)
}

func (c *Confirmer) checkQuote(quote *pricing.Quote, intent *checkout.Intent, logger logrus.FieldLogger) error {
	if !intent.HasQuote {
		return nil
	}
	quoted := pricing.FromMinorUnits(intent.QuotedTotal)
	if quoted.Equal(quote.Total) {
		return nil
	}

	drift := logger.WithFields(logrus.Fields{
		"quotedTotal": quoted.StringFixed(2),
		"freshTotal":  quote.Total.StringFixed(2),
	})
	if c.strictPricing && quote.Total.Sub(quoted).Abs().GreaterThan(c.tolerance) {
		drift.Warn("price changed since checkout")
		return apperr.New(apperr.KindPriceMismatch,
			"total changed from %s to %s since checkout", quoted.StringFixed(2), quote.Total.StringFixed(2))
	}
	drift.Info("price changed since checkout, charging fresh total")
	return nil
}

func (c *Confirmer) buildOrder(sessionID string, quote *pricing.Quote, contact models.Contact) *models.Order {
	now := c.now().UTC()
	lines := make([]models.OrderLine, 0, len(quote.Lines))
	for _, line := range quote.Lines {
		lines = append(lines, models.OrderLine{
			MenuItemID: line.Item.ID,
			Name:       line.Item.Name,
			Size:       line.Size,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice.InexactFloat64(),
		})
	}
	return &models.Order{
		Items:             lines,
		DeliveryFee:       quote.DeliveryFee.Round(2).InexactFloat64(),
		TotalAmount:       quote.Total.Round(2).InexactFloat64(),
		MobileNumber:      contact.MobileNumber,
		DeliveryLocation:  contact.DeliveryLocation,
		PaymentStatus:     models.PaymentCompleted,
		Status:            models.OrderPending,
		CheckoutSessionID: sessionID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// insert retries reference collisions with a fresh reference. A session
// collision means another confirmation won, so its order is returned.
func (c *Confirmer) insert(ctx context.Context, order *models.Order, logger logrus.FieldLogger) (*Result, error) {
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		reference, err := c.newReference()
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, err, "generate reference number")
		}
		order.ReferenceNumber = reference

		err = c.store.InsertOrder(ctx, order)
		switch {
		case err == nil:
			logger.WithFields(logrus.Fields{
				"orderId":         order.ID.Hex(),
				"referenceNumber": order.ReferenceNumber,
				"total":           order.TotalAmount,
			}).Info("order created")
			return &Result{Order: order, Created: true}, nil

		case errors.Is(err, ErrDuplicateReference):
			logger.WithField("attempt", attempt).Warn("reference number collision, regenerating")

		case errors.Is(err, ErrDuplicateSession):
			existing, findErr := c.store.FindBySession(ctx, order.CheckoutSessionID)
			if findErr != nil {
				return nil, apperr.Wrap(apperr.KindInternal, findErr, "order lookup after duplicate session")
			}
			logger.WithField("referenceNumber", existing.ReferenceNumber).Info("session already confirmed concurrently")
			return &Result{Order: existing}, nil

		default:
			return nil, apperr.Wrap(apperr.KindInternal, err, "order insert failed")
		}
	}
	return nil, apperr.New(apperr.KindDuplicateReference,
		"no free reference number after %d attempts", c.maxAttempts)
}
