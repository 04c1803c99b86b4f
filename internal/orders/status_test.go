package orders_test

import (
	"context"
	"testing"
	"time"

	"github.com/lateeflat25-prog/9jabukabackend/internal/apperr"
	"github.com/lateeflat25-prog/9jabukabackend/internal/models"
	"github.com/lateeflat25-prog/9jabukabackend/internal/orders"
	"github.com/lateeflat25-prog/9jabukabackend/internal/testutil"
)

func seedOrder(t *testing.T, store *testutil.MemoryOrders, ref string, status models.OrderStatus) string {
	t.Helper()
	order := &models.Order{
		ReferenceNumber: ref,
		Status:          status,
		PaymentStatus:   models.PaymentCompleted,
		TotalAmount:     25.99,
		CreatedAt:       time.Now().UTC(),
	}
	if err := store.InsertOrder(context.Background(), order); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order.ID.Hex()
}

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{"pending", "Accepted", " rejected "} {
		if _, err := orders.ParseStatus(raw); err != nil {
			t.Fatalf("expected %q to parse, got %v", raw, err)
		}
	}
	for _, raw := range []string{"", "shipped", "done"} {
		if _, err := orders.ParseStatus(raw); !apperr.Is(err, apperr.KindInvalidStatus) {
			t.Fatalf("expected InvalidStatus for %q, got %v", raw, err)
		}
	}
}

func TestUpdateStatusFromPending(t *testing.T) {
	store := testutil.NewMemoryOrders()
	updater := orders.NewStatusUpdater(store)
	id := seedOrder(t, store, "REF0000001", models.OrderPending)

	order, err := updater.UpdateStatus(context.Background(), id, "accepted")
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if order.Status != models.OrderAccepted {
		t.Fatalf("expected accepted, got %s", order.Status)
	}
	if order.TotalAmount != 25.99 || order.ReferenceNumber != "REF0000001" {
		t.Fatalf("expected other fields untouched, got %+v", order)
	}
}

func TestUpdateStatusPendingToPendingIsNoop(t *testing.T) {
	store := testutil.NewMemoryOrders()
	id := seedOrder(t, store, "REF0000002", models.OrderPending)

	order, err := orders.NewStatusUpdater(store).UpdateStatus(context.Background(), id, "pending")
	if err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	if order.Status != models.OrderPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
}

func TestUpdateStatusTerminalStatesAreFinal(t *testing.T) {
	store := testutil.NewMemoryOrders()
	updater := orders.NewStatusUpdater(store)
	accepted := seedOrder(t, store, "REF0000003", models.OrderAccepted)
	rejected := seedOrder(t, store, "REF0000004", models.OrderRejected)

	cases := []struct {
		id     string
		status string
	}{
		{accepted, "pending"},
		{accepted, "rejected"},
		{accepted, "accepted"},
		{rejected, "accepted"},
		{rejected, "pending"},
	}
	for _, tc := range cases {
		_, err := updater.UpdateStatus(context.Background(), tc.id, tc.status)
		if !apperr.Is(err, apperr.KindInvalidTransition) {
			t.Fatalf("expected InvalidTransition for -> %s, got %v", tc.status, err)
		}
	}
}

func TestUpdateStatusErrors(t *testing.T) {
	store := testutil.NewMemoryOrders()
	updater := orders.NewStatusUpdater(store)
	id := seedOrder(t, store, "REF0000005", models.OrderPending)

	if _, err := updater.UpdateStatus(context.Background(), id, "cooking"); !apperr.Is(err, apperr.KindInvalidStatus) {
		t.Fatalf("expected InvalidStatus, got %v", err)
	}
	if _, err := updater.UpdateStatus(context.Background(), "65f1c0ffee00000000000000", "accepted"); !apperr.Is(err, apperr.KindOrderNotFound) {
		t.Fatalf("expected OrderNotFound, got %v", err)
	}
}

func TestCheckTransition(t *testing.T) {
	if err := orders.CheckTransition(models.OrderPending, models.OrderRejected); err != nil {
		t.Fatalf("pending -> rejected should be allowed: %v", err)
	}
	if !orders.Terminal(models.OrderAccepted) || orders.Terminal(models.OrderPending) {
		t.Fatal("unexpected Terminal result")
	}
}
