package checkout

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lateeflat25-prog/9jabukabackend/internal/apperr"
	"github.com/lateeflat25-prog/9jabukabackend/internal/models"
	"github.com/lateeflat25-prog/9jabukabackend/internal/pricing"
)

const (
	deliveryFeeLabel       = "Delivery Fee"
	defaultUpstreamTimeout = 10 * time.Second
)

// Quoter prices a cart. *pricing.Engine satisfies it.
type Quoter interface {
	Quote(ctx context.Context, lines []models.CartLine) (*pricing.Quote, error)
}

// Settings carries the processor-facing options of a checkout.
type Settings struct {
	Currency       string
	PaymentMethods []string
	SuccessURL     string
	CancelURL      string

	// UpstreamTimeout bounds the processor call. Zero means 10s.
	UpstreamTimeout time.Duration
}

// Manager opens checkout sessions. It writes nothing locally.
type Manager struct {
	quoter    Quoter
	processor Processor
	settings  Settings
	logger    logrus.FieldLogger
}

func NewManager(quoter Quoter, processor Processor, settings Settings, logger logrus.FieldLogger) *Manager {
	if settings.UpstreamTimeout <= 0 {
		settings.UpstreamTimeout = defaultUpstreamTimeout
	}
	return &Manager{
		quoter:    quoter,
		processor: processor,
		settings:  settings,
		logger:    logger,
	}
}

// CreateSession validates and prices the cart, then opens a hosted session
// whose metadata carries the cart and contact details.
func (m *Manager) CreateSession(ctx context.Context, lines []models.CartLine, contact models.Contact) (*Session, error) {
	contact.MobileNumber = strings.TrimSpace(contact.MobileNumber)
	contact.DeliveryLocation = strings.TrimSpace(contact.DeliveryLocation)
	if contact.MobileNumber == "" || contact.DeliveryLocation == "" {
		return nil, apperr.New(apperr.KindInvalidContact, "mobile number and delivery location are required")
	}

	quote, err := m.quoter.Quote(ctx, lines)
	if err != nil {
		return nil, err
	}

	meta, err := EncodeMetadata(lines, contact, pricing.MinorUnits(quote.Total))
	if err != nil {
		return nil, err
	}

	req := SessionRequest{
		LineItems:      lineItems(quote),
		Metadata:       meta,
		PaymentMethods: m.settings.PaymentMethods,
		Currency:       m.settings.Currency,
		SuccessURL:     m.settings.SuccessURL,
		CancelURL:      m.settings.CancelURL,
	}

	upstreamCtx, cancel := context.WithTimeout(ctx, m.settings.UpstreamTimeout)
	session, err := m.processor.CreateCheckoutSession(upstreamCtx, req)
	cancel()
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, err, "payment processor unavailable")
		}
		return nil, err
	}

	m.logger.WithFields(logrus.Fields{
		"sessionId": session.ID,
		"lines":     len(lines),
		"total":     quote.Total.StringFixed(2),
	}).Info("checkout session created")
	return session, nil
}

func lineItems(quote *pricing.Quote) []LineItem {
	items := make([]LineItem, 0, len(quote.Lines)+1)
	for _, line := range quote.Lines {
		name := line.Item.Name
		if line.Size != "" {
			name += " (" + string(line.Size) + ")"
		}
		items = append(items, LineItem{
			Name:        name,
			Description: line.Item.Description,
			UnitAmount:  pricing.MinorUnits(line.UnitPrice),
			Quantity:    int64(line.Quantity),
		})
	}
	if quote.DeliveryFee.IsPositive() {
		items = append(items, LineItem{
			Name:       deliveryFeeLabel,
			UnitAmount: pricing.MinorUnits(quote.DeliveryFee),
			Quantity:   1,
		})
	}
	return items
}
