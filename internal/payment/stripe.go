// Package payment adapts Stripe Checkout to checkout.Processor.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/lateeflat25-prog/9jabukabackend/internal/apperr"
	"github.com/lateeflat25-prog/9jabukabackend/internal/checkout"
)

// StripeProcessor talks to Stripe. It holds no per-request state and is safe
// for concurrent use.
type StripeProcessor struct {
	api           *client.API
	webhookSecret string
}

// NewStripeProcessor builds a processor for secretKey. backends may be nil to
// use Stripe's public endpoints.
func NewStripeProcessor(secretKey, webhookSecret string, backends *stripe.Backends) *StripeProcessor {
	return &StripeProcessor{
		api:           client.New(secretKey, backends),
		webhookSecret: webhookSecret,
	}
}

func (p *StripeProcessor) CreateCheckoutSession(ctx context.Context, req checkout.SessionRequest) (*checkout.Session, error) {
	params := buildSessionParams(req)
	params.Context = ctx

	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, classify(err, "create checkout session")
	}
	return toSession(session), nil
}

func (p *StripeProcessor) RetrieveSession(ctx context.Context, sessionID string) (*checkout.Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, classify(err, "retrieve checkout session")
	}
	return toSession(session), nil
}

// ParseEvent verifies the Stripe-Signature header before decoding anything.
// API version mismatches are tolerated because only the session object is read.
func (p *StripeProcessor) ParseEvent(payload []byte, signature string) (*checkout.Event, error) {
	if p.webhookSecret == "" {
		return nil, apperr.New(apperr.KindInternal, "webhook secret is not configured")
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidSignature, err, "webhook signature verification failed")
	}

	parsed := &checkout.Event{ID: event.ID, Type: string(event.Type)}
	if !strings.HasPrefix(parsed.Type, "checkout.session.") {
		return parsed, nil
	}
	if event.Data == nil {
		return nil, apperr.New(apperr.KindMalformedMetadata, "event %s has no data", event.ID)
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, apperr.Wrap(apperr.KindMalformedMetadata, err, "event does not carry a checkout session")
	}
	parsed.Session = toSession(&session)
	return parsed, nil
}

func buildSessionParams(req checkout.SessionRequest) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice(req.PaymentMethods),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
	}

	for _, item := range req.LineItems {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.Description != "" {
			product.Description = stripe.String(item.Description)
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(req.Currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(item.UnitAmount),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	for key, value := range req.Metadata {
		params.AddMetadata(key, value)
	}
	return params
}

func toSession(s *stripe.CheckoutSession) *checkout.Session {
	status := checkout.PaymentUnpaid
	switch {
	case s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
		status = checkout.PaymentPaid
	case s.Status == stripe.CheckoutSessionStatusExpired:
		status = checkout.PaymentExpired
	}

	meta := make(map[string]string, len(s.Metadata))
	for key, value := range s.Metadata {
		meta[key] = value
	}
	return &checkout.Session{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: status,
		Metadata:      meta,
	}
}

// classify maps Stripe failures onto apperr kinds. Missing sessions are the
// caller's fault, everything else is the processor being unavailable.
func classify(err error, op string) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode == http.StatusNotFound || stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return apperr.Wrap(apperr.KindSessionNotFound, err, "checkout session not found")
		}
	}
	return apperr.Wrap(apperr.KindUpstreamUnavailable, err, op)
}
