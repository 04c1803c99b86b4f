package orders_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.uber.org/mock/gomock"
	"golang.org/x/sync/errgroup"

	"github.com/lateeflat25-prog/9jabukabackend/internal/apperr"
	"github.com/lateeflat25-prog/9jabukabackend/internal/checkout"
	"github.com/lateeflat25-prog/9jabukabackend/internal/models"
	"github.com/lateeflat25-prog/9jabukabackend/internal/orders"
	"github.com/lateeflat25-prog/9jabukabackend/internal/pricing"
	"github.com/lateeflat25-prog/9jabukabackend/internal/testutil"
)

var contact = models.Contact{MobileNumber: "08031234567", DeliveryLocation: "12 Allen Avenue, Ikeja"}

type fixture struct {
	menu      *testutil.MemoryCatalog
	store     *testutil.MemoryOrders
	processor *checkout.MockProcessor
	engine    *pricing.Engine
	pizza     string
	cola      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	menu := testutil.NewMemoryCatalog()
	f := &fixture{
		menu:      menu,
		store:     testutil.NewMemoryOrders(),
		processor: checkout.NewMockProcessor(gomock.NewController(t)),
		engine:    pricing.NewEngine(menu, decimal.RequireFromString("3.99")),
	}
	f.pizza = menu.Put(models.MenuItem{Name: "Margherita", Description: "Tomato and basil", Category: "Pizza", Price: 10})
	f.cola = menu.Put(models.MenuItem{Name: "Cola", Description: "Chilled", Category: "Drinks", Price: 2})
	return f
}

func (f *fixture) confirmer(opts ...orders.Option) *orders.Confirmer {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return orders.NewConfirmer(f.store, f.engine, f.processor, logger, opts...)
}

func (f *fixture) cart() []models.CartLine {
	return []models.CartLine{{ItemID: f.pizza, Quantity: 2}, {ItemID: f.cola, Quantity: 1}}
}

// paidSession returns a session carrying the cart as the checkout manager
// would have encoded it, quoted at the catalog prices of the moment.
func (f *fixture) paidSession(t *testing.T, id string) *checkout.Session {
	t.Helper()
	quote, err := f.engine.Quote(context.Background(), f.cart())
	if err != nil {
		t.Fatalf("quote cart: %v", err)
	}
	meta, err := checkout.EncodeMetadata(f.cart(), contact, pricing.MinorUnits(quote.Total))
	if err != nil {
		t.Fatalf("encode metadata: %v", err)
	}
	return &checkout.Session{ID: id, PaymentStatus: checkout.PaymentPaid, Metadata: meta}
}

func (f *fixture) expectRetrieve(session *checkout.Session) *gomock.Call {
	return f.processor.EXPECT().RetrieveSession(gomock.Any(), session.ID).Return(session, nil)
}

func (f *fixture) expectEvent(eventType string, session *checkout.Session) {
	f.processor.EXPECT().
		ParseEvent(gomock.Any(), "sig").
		Return(&checkout.Event{ID: "evt_1", Type: eventType, Session: session}, nil)
}

func sequence(refs ...string) orders.ReferenceGenerator {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		ref := refs[min(i, len(refs)-1)]
		i++
		return ref, nil
	}
}

func TestConfirmBySessionIDCreatesOrder(t *testing.T) {
	f := newFixture(t)
	session := f.paidSession(t, "cs_test_1")
	f.expectRetrieve(session)

	result, err := f.confirmer().ConfirmBySessionID(context.Background(), "cs_test_1")
	if err != nil {
		t.Fatalf("ConfirmBySessionID returned error: %v", err)
	}
	order := result.Order
	if !result.Created {
		t.Fatal("expected a new order")
	}
	if order.TotalAmount != 25.99 || order.DeliveryFee != 3.99 {
		t.Fatalf("expected total 25.99 with fee 3.99, got %v and %v", order.TotalAmount, order.DeliveryFee)
	}
	if order.Status != models.OrderPending || order.PaymentStatus != models.PaymentCompleted {
		t.Fatalf("unexpected statuses: %s / %s", order.Status, order.PaymentStatus)
	}
	if len(order.Items) != 2 || order.Items[0].Quantity != 2 || order.Items[0].UnitPrice != 10 {
		t.Fatalf("unexpected lines: %+v", order.Items)
	}
	if len(order.ReferenceNumber) != 10 || order.CheckoutSessionID != "cs_test_1" {
		t.Fatalf("unexpected identifiers: %q %q", order.ReferenceNumber, order.CheckoutSessionID)
	}
	if order.MobileNumber != contact.MobileNumber || order.DeliveryLocation != contact.DeliveryLocation {
		t.Fatalf("contact not copied: %+v", order)
	}
	if f.store.Len() != 1 {
		t.Fatalf("expected 1 stored order, got %d", f.store.Len())
	}
}

func TestConfirmRecomputesWithCurrentPrices(t *testing.T) {
	f := newFixture(t)
	session := f.paidSession(t, "cs_price")
	f.menu.SetPrice(f.pizza, 12)
	f.expectRetrieve(session)

	result, err := f.confirmer().ConfirmBySessionID(context.Background(), "cs_price")
	if err != nil {
		t.Fatalf("ConfirmBySessionID returned error: %v", err)
	}
	if result.Order.TotalAmount != 29.99 {
		t.Fatalf("expected the current price to give 29.99, got %v", result.Order.TotalAmount)
	}
}

func TestStrictPricingRejectsDrift(t *testing.T) {
	f := newFixture(t)
	session := f.paidSession(t, "cs_strict")
	f.menu.SetPrice(f.pizza, 12)
	f.expectRetrieve(session)

	confirmer := f.confirmer(orders.WithStrictPricing(decimal.RequireFromString("0.01")))
	_, err := confirmer.ConfirmBySessionID(context.Background(), "cs_strict")
	if !apperr.Is(err, apperr.KindPriceMismatch) {
		t.Fatalf("expected PriceMismatch, got %v", err)
	}
	if f.store.Len() != 0 {
		t.Fatal("expected no order")
	}

	f.expectEvent(checkout.EventSessionCompleted, session)
	outcome, err := confirmer.ConfirmByWebhookEvent(context.Background(), []byte("{}"), "sig")
	if err != nil {
		t.Fatalf("expected the webhook to be acknowledged, got %v", err)
	}
	if outcome.Action != orders.WebhookRejected || !apperr.Is(outcome.Reason, apperr.KindPriceMismatch) {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestStrictPricingAllowsUnchangedTotal(t *testing.T) {
	f := newFixture(t)
	f.expectRetrieve(f.paidSession(t, "cs_same"))

	confirmer := f.confirmer(orders.WithStrictPricing(decimal.RequireFromString("0.01")))
	if _, err := confirmer.ConfirmBySessionID(context.Background(), "cs_same"); err != nil {
		t.Fatalf("ConfirmBySessionID returned error: %v", err)
	}
}

func TestConfirmTwiceReturnsSameOrder(t *testing.T) {
	f := newFixture(t)
	f.expectRetrieve(f.paidSession(t, "cs_twice")).Times(1)
	confirmer := f.confirmer()

	first, err := confirmer.ConfirmBySessionID(context.Background(), "cs_twice")
	if err != nil {
		t.Fatalf("first confirmation failed: %v", err)
	}
	second, err := confirmer.ConfirmBySessionID(context.Background(), "cs_twice")
	if err != nil {
		t.Fatalf("second confirmation failed: %v", err)
	}
	if second.Created {
		t.Fatal("expected the second confirmation to find the existing order")
	}
	if first.Order.ReferenceNumber != second.Order.ReferenceNumber {
		t.Fatalf("expected the same order, got %s and %s", first.Order.ReferenceNumber, second.Order.ReferenceNumber)
	}
	if f.store.Len() != 1 {
		t.Fatalf("expected 1 stored order, got %d", f.store.Len())
	}
}

func TestConcurrentConfirmationsCreateOneOrder(t *testing.T) {
	f := newFixture(t)
	session := f.paidSession(t, "cs_race")
	f.processor.EXPECT().RetrieveSession(gomock.Any(), "cs_race").Return(session, nil).AnyTimes()
	f.processor.EXPECT().
		ParseEvent(gomock.Any(), "sig").
		Return(&checkout.Event{ID: "evt_race", Type: checkout.EventSessionCompleted, Session: session}, nil).
		AnyTimes()
	confirmer := f.confirmer()

	var (
		mu         sync.Mutex
		created    int
		references = map[string]struct{}{}
	)
	record := func(order *models.Order, isNew bool) {
		mu.Lock()
		defer mu.Unlock()
		if isNew {
			created++
		}
		references[order.ReferenceNumber] = struct{}{}
	}

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < 16; i++ {
		if i%2 == 0 {
			g.Go(func() error {
				result, err := confirmer.ConfirmBySessionID(ctx, "cs_race")
				if err != nil {
					return err
				}
				record(result.Order, result.Created)
				return nil
			})
			continue
		}
		g.Go(func() error {
			outcome, err := confirmer.ConfirmByWebhookEvent(ctx, []byte("{}"), "sig")
			if err != nil {
				return err
			}
			if outcome.Order == nil {
				return errors.New("webhook produced no order")
			}
			record(outcome.Order, outcome.Action == orders.WebhookCreated)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("confirmation failed: %v", err)
	}

	if created != 1 {
		t.Fatalf("expected exactly one creation, got %d", created)
	}
	if len(references) != 1 || f.store.Len() != 1 {
		t.Fatalf("expected one order, got %d references and %d stored", len(references), f.store.Len())
	}
}

func TestWebhookAfterPollReturnsExistingOrder(t *testing.T) {
	f := newFixture(t)
	session := f.paidSession(t, "cs_both")
	f.expectRetrieve(session)
	confirmer := f.confirmer()

	polled, err := confirmer.ConfirmBySessionID(context.Background(), "cs_both")
	if err != nil {
		t.Fatalf("poll confirmation failed: %v", err)
	}

	f.expectEvent(checkout.EventSessionCompleted, session)
	outcome, err := confirmer.ConfirmByWebhookEvent(context.Background(), []byte("{}"), "sig")
	if err != nil {
		t.Fatalf("webhook confirmation failed: %v", err)
	}
	if outcome.Action != orders.WebhookExisted {
		t.Fatalf("expected existing order, got %s", outcome.Action)
	}
	if outcome.Order.ReferenceNumber != polled.Order.ReferenceNumber {
		t.Fatalf("expected reference %s, got %s", polled.Order.ReferenceNumber, outcome.Order.ReferenceNumber)
	}
	if f.store.Len() != 1 {
		t.Fatalf("expected 1 stored order, got %d", f.store.Len())
	}
}

func TestWebhookWithBadSignatureCreatesNothing(t *testing.T) {
	f := newFixture(t)
	f.processor.EXPECT().
		ParseEvent(gomock.Any(), "forged").
		Return(nil, apperr.New(apperr.KindInvalidSignature, "webhook signature verification failed"))

	_, err := f.confirmer().ConfirmByWebhookEvent(context.Background(), []byte("{}"), "forged")
	if !apperr.Is(err, apperr.KindInvalidSignature) {
		t.Fatalf("expected InvalidSignature, got %v", err)
	}
	if f.store.Len() != 0 || f.store.InsertAttempts() != 0 {
		t.Fatal("expected no insert attempt")
	}
}

func TestUnpaidSession(t *testing.T) {
	f := newFixture(t)
	session := f.paidSession(t, "cs_unpaid")
	session.PaymentStatus = checkout.PaymentUnpaid
	f.expectRetrieve(session)
	confirmer := f.confirmer()

	_, err := confirmer.ConfirmBySessionID(context.Background(), "cs_unpaid")
	if !apperr.Is(err, apperr.KindPaymentNotCompleted) {
		t.Fatalf("expected PaymentNotCompleted, got %v", err)
	}

	f.expectEvent(checkout.EventSessionCompleted, session)
	outcome, err := confirmer.ConfirmByWebhookEvent(context.Background(), []byte("{}"), "sig")
	if err != nil || outcome.Action != orders.WebhookIgnored {
		t.Fatalf("expected the unpaid event to be ignored, got %+v, %v", outcome, err)
	}
	if f.store.Len() != 0 {
		t.Fatal("expected no order")
	}
}

func TestIrrelevantEventIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.expectEvent("checkout.session.expired", &checkout.Session{ID: "cs_gone", PaymentStatus: checkout.PaymentExpired})

	outcome, err := f.confirmer().ConfirmByWebhookEvent(context.Background(), []byte("{}"), "sig")
	if err != nil || outcome.Action != orders.WebhookIgnored {
		t.Fatalf("expected ignored, got %+v, %v", outcome, err)
	}
}

func TestMalformedMetadata(t *testing.T) {
	f := newFixture(t)
	session := &checkout.Session{
		ID:            "cs_bad",
		PaymentStatus: checkout.PaymentPaid,
		Metadata:      map[string]string{"items": "not json", "mobileNumber": "0803", "deliveryLocation": "Yaba"},
	}
	f.expectRetrieve(session)
	confirmer := f.confirmer()

	_, err := confirmer.ConfirmBySessionID(context.Background(), "cs_bad")
	if !apperr.Is(err, apperr.KindMalformedMetadata) {
		t.Fatalf("expected MalformedMetadata, got %v", err)
	}

	f.expectEvent(checkout.EventSessionCompleted, session)
	outcome, err := confirmer.ConfirmByWebhookEvent(context.Background(), []byte("{}"), "sig")
	if err != nil {
		t.Fatalf("expected acknowledgement, got %v", err)
	}
	if outcome.Action != orders.WebhookRejected || !apperr.Is(outcome.Reason, apperr.KindMalformedMetadata) {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestItemDeletedBeforeConfirmation(t *testing.T) {
	f := newFixture(t)
	session := f.paidSession(t, "cs_deleted")
	if _, err := f.menu.DeleteMenuItem(context.Background(), f.cola); err != nil {
		t.Fatalf("delete cola: %v", err)
	}
	f.expectRetrieve(session)

	_, err := f.confirmer().ConfirmBySessionID(context.Background(), "cs_deleted")
	if !apperr.Is(err, apperr.KindItemNotFound) {
		t.Fatalf("expected ItemNotFound, got %v", err)
	}
}

func TestReferenceCollisionIsRetried(t *testing.T) {
	f := newFixture(t)
	if err := f.store.InsertOrder(context.Background(), &models.Order{ReferenceNumber: "TAKEN00000"}); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	f.expectRetrieve(f.paidSession(t, "cs_collide"))

	confirmer := f.confirmer(orders.WithReferenceGenerator(sequence("TAKEN00000", "TAKEN00000", "FRESH00000")))
	result, err := confirmer.ConfirmBySessionID(context.Background(), "cs_collide")
	if err != nil {
		t.Fatalf("ConfirmBySessionID returned error: %v", err)
	}
	if result.Order.ReferenceNumber != "FRESH00000" {
		t.Fatalf("expected the regenerated reference, got %s", result.Order.ReferenceNumber)
	}
	if got := f.store.InsertAttempts(); got != 4 {
		t.Fatalf("expected 3 confirmation inserts after the seed, got %d", got-1)
	}
}

func TestReferenceCollisionsExhausted(t *testing.T) {
	f := newFixture(t)
	if err := f.store.InsertOrder(context.Background(), &models.Order{ReferenceNumber: "TAKEN00000"}); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	f.expectRetrieve(f.paidSession(t, "cs_exhaust"))

	confirmer := f.confirmer(
		orders.WithReferenceGenerator(sequence("TAKEN00000")),
		orders.WithMaxInsertAttempts(3),
	)
	_, err := confirmer.ConfirmBySessionID(context.Background(), "cs_exhaust")
	if !apperr.Is(err, apperr.KindDuplicateReference) {
		t.Fatalf("expected DuplicateReference, got %v", err)
	}
	if apperr.KindOf(err).ClientFault() {
		t.Fatal("expected a server fault")
	}
}

func TestWebhookStoreFailureIsNotAcknowledged(t *testing.T) {
	f := newFixture(t)
	session := f.paidSession(t, "cs_down")
	f.store.FailNextInsert(errors.New("no reachable servers"))
	f.expectEvent(checkout.EventSessionCompleted, session)

	outcome, err := f.confirmer().ConfirmByWebhookEvent(context.Background(), []byte("{}"), "sig")
	if err == nil {
		t.Fatalf("expected an error so the processor retries, got %+v", outcome)
	}
	if apperr.KindOf(err).ClientFault() {
		t.Fatalf("expected a server fault, got %v", err)
	}
}

func TestConfirmBySessionIDMapsProcessorErrors(t *testing.T) {
	f := newFixture(t)
	f.processor.EXPECT().
		RetrieveSession(gomock.Any(), "cs_missing").
		Return(nil, apperr.New(apperr.KindSessionNotFound, "checkout session not found"))
	f.processor.EXPECT().
		RetrieveSession(gomock.Any(), "cs_timeout").
		Return(nil, context.DeadlineExceeded)
	confirmer := f.confirmer()

	if _, err := confirmer.ConfirmBySessionID(context.Background(), "cs_missing"); !apperr.Is(err, apperr.KindSessionNotFound) {
		t.Fatalf("expected SessionNotFound, got %v", err)
	}
	if _, err := confirmer.ConfirmBySessionID(context.Background(), "cs_timeout"); !apperr.Is(err, apperr.KindUpstreamUnavailable) {
		t.Fatalf("expected UpstreamUnavailable, got %v", err)
	}
	if _, err := confirmer.ConfirmBySessionID(context.Background(), "  "); !apperr.Is(err, apperr.KindSessionNotFound) {
		t.Fatalf("expected SessionNotFound for a blank id, got %v", err)
	}
}
